package telemetry

import (
	"math"
	"testing"
)

func TestQuaternionYawRoundTrip(t *testing.T) {
	for _, yaw := range []float64{0, 0.5, -0.5, 1.0, math.Pi / 2, -math.Pi + 0.01, math.Pi - 0.01} {
		q := QuaternionFromYaw(yaw)
		if got := q.Yaw(); math.Abs(got-yaw) > 1e-9 {
			t.Errorf("yaw %f round-tripped to %f", yaw, got)
		}
	}
}

func TestQuaternionFromYawIsUnit(t *testing.T) {
	q := QuaternionFromYaw(1.3)
	norm := q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W
	if math.Abs(norm-1.0) > 1e-12 {
		t.Errorf("norm %f", norm)
	}
	if q.X != 0 || q.Y != 0 {
		t.Errorf("pure yaw should not have x/y components: %+v", q)
	}
}

func TestIdentityQuaternion(t *testing.T) {
	q := QuaternionFromYaw(0)
	if q.W != 1 || q.Z != 0 {
		t.Errorf("expected identity, got %+v", q)
	}
}
