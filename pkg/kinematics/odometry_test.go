package kinematics

import (
	"math"
	"testing"
)

func TestStraightLine(t *testing.T) {
	// With w=0 the taylor terms vanish and this degenerates to exact
	// straight-line motion.
	dx, dy, dth := IntegrationStep(0.5, 0.0, 0.1)
	if dx != 0.5*0.1 || dy != 0.0 || dth != 0.0 {
		t.Errorf("got %f, %f, %f", dx, dy, dth)
	}
}

func TestStraightLineTenTicks(t *testing.T) {
	var p Pose
	for i := 0; i < 10; i++ {
		if !p.Integrate(1.0, 0.0, 0.1) {
			t.Fatal("integration step rejected")
		}
	}
	expectPoseNear(t, p, 1.0, 0.0, 0.0)
}

func TestTurnInPlaceIntegration(t *testing.T) {
	var p Pose
	p.Integrate(0.0, 1.0, 0.5)
	expectPoseNear(t, p, 0.0, 0.0, 0.5)
}

func TestHeadingRotatesDeltas(t *testing.T) {
	p := Pose{Theta: math.Pi / 2}
	p.Integrate(1.0, 0.0, 0.1)
	expectPoseNear(t, p, 0.0, 0.1, math.Pi/2)
}

func TestCurvedPathApproximation(t *testing.T) {
	// Integrate a quarter circle of radius 1 in many small steps and
	// compare against the exact result.
	var p Pose
	const steps = 1000
	dt := (math.Pi / 2) / steps
	for i := 0; i < steps; i++ {
		p.Integrate(1.0, 1.0, dt)
	}
	if math.Abs(p.X-1.0) > 1e-3 || math.Abs(p.Y-1.0) > 1e-3 {
		t.Errorf("quarter circle ended at %f, %f", p.X, p.Y)
	}
	if math.Abs(p.Theta-math.Pi/2) > 1e-9 {
		t.Errorf("theta %f", p.Theta)
	}
}

func TestOversizeStepSkipped(t *testing.T) {
	p := Pose{X: 1, Y: 2, Theta: 3}
	if p.Integrate(1.0, 0.0, 10.5) {
		t.Error("step over the sanity bound should be rejected")
	}
	expectPoseNear(t, p, 1, 2, 3)
}

func TestThetaNotWrapped(t *testing.T) {
	var p Pose
	for i := 0; i < 100; i++ {
		p.Integrate(0.0, 1.0, 0.1)
	}
	expectPoseNear(t, p, 0, 0, 10.0)
}

func TestClampNonFinite(t *testing.T) {
	p := Pose{X: math.NaN(), Y: 2, Theta: math.Inf(1)}
	if !p.ClampNonFinite() {
		t.Error("expected clamp")
	}
	expectPoseNear(t, p, NaNSentinel, 2, NaNSentinel)

	q := Pose{X: 1, Y: 2, Theta: 3}
	if q.ClampNonFinite() {
		t.Error("finite pose should not be clamped")
	}
}

func expectPoseNear(t *testing.T, p Pose, x, y, th float64) {
	t.Helper()
	if math.Abs(p.X-x) > 1e-9 || math.Abs(p.Y-y) > 1e-9 || math.Abs(p.Theta-th) > 1e-9 {
		t.Errorf("pose (%f, %f, %f), expected (%f, %f, %f)", p.X, p.Y, p.Theta, x, y, th)
	}
}
