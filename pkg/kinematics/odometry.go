package kinematics

import "math"

// MaxIntegrationDT is the sanity bound on a single integration step, in
// seconds.  A dt this large means the loop stalled or the clock jumped; one
// giant step would wreck the estimate, so the step is skipped instead.
const MaxIntegrationDT = 10.0

// NaNSentinel is what a pose coordinate is reset to if it ever goes
// non-finite, so downstream consumers never see a NaN.
const NaNSentinel = -1.0

// Pose is a 2D position and heading.  Theta is unbounded (not wrapped).
type Pose struct {
	X     float64
	Y     float64
	Theta float64
}

// IntegrationStep returns the pose delta for travelling at v (m/s) and w
// (rad/s) for dt seconds, expressed in the frame of the pose at the start of
// the step.
//
// This is the cosine/sine taylor-expanded form of the exact curved-path
// integral; it has no singularity at w=0.
func IntegrationStep(v, w, dt float64) (dx, dy, dth float64) {
	dx = v * (dt - (w*w)*(dt*dt*dt)/6.0)
	dy = v * (w*dt*dt/2.0 - (w*w*w)*(dt*dt*dt*dt)/24.0)
	dth = w * dt
	return
}

// Integrate advances the pose by travelling at v, w for dt seconds.  Returns
// false (leaving the pose untouched) if dt exceeds MaxIntegrationDT; the
// caller should still reset its time reference.
func (p *Pose) Integrate(v, w, dt float64) bool {
	if dt > MaxIntegrationDT {
		return false
	}
	dx, dy, dth := IntegrationStep(v, w, dt)
	p.X += dx*math.Cos(p.Theta) - dy*math.Sin(p.Theta)
	p.Y += dx*math.Sin(p.Theta) + dy*math.Cos(p.Theta)
	p.Theta += dth
	return true
}

// ClampNonFinite resets any non-finite coordinate to NaNSentinel.  Returns
// true if anything had to be clamped.
func (p *Pose) ClampNonFinite() bool {
	clamped := false
	for _, c := range []*float64{&p.X, &p.Y, &p.Theta} {
		if math.IsNaN(*c) || math.IsInf(*c, 0) {
			*c = NaNSentinel
			clamped = true
		}
	}
	return clamped
}
