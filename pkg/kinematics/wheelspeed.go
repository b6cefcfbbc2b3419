package kinematics

import "math"

// Geometry holds the fixed dimensions and limits of the differential drive.
// Speeds are in metres/second, widths in metres.
type Geometry struct {
	AxleWidth   float64
	MaxWheelVel float64
	MinWheelVel float64

	// +1 if positive speed means forward, -1 if positive means backwards.
	LeftSign  int
	RightSign int
}

// WheelSpeeds converts a linear velocity v (m/s) and angular velocity w
// (rad/s) into left and right wheel speeds in m/s, sign-corrected for the
// hardware.
func WheelSpeeds(v, w float64, g Geometry) (left, right float64) {
	left = v - (g.AxleWidth/2.0)*w
	right = v + (g.AxleWidth/2.0)*w

	// Scale the speeds to respect the wheel speed limit.  Both wheels get
	// the same factor so the turning ratio is preserved.
	limitk := 1.0
	if math.Abs(left) > g.MaxWheelVel {
		limitk = g.MaxWheelVel / math.Abs(left)
	}
	if math.Abs(right) > g.MaxWheelVel {
		rlimitk := g.MaxWheelVel / math.Abs(right)
		if rlimitk < limitk {
			limitk = rlimitk
		}
	}
	if limitk != 1.0 {
		left *= limitk
		right *= limitk
	}

	// Below the minimum controllable speed the motors just buzz; force
	// those to zero.
	if math.Abs(left) < g.MinWheelVel {
		left = 0.0
	}
	if math.Abs(right) < g.MinWheelVel {
		right = 0.0
	}

	left *= float64(g.LeftSign)
	right *= float64(g.RightSign)
	return
}
