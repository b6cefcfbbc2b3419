package telemetry

import (
	"math"
	"time"
)

// Twist is a velocity command: forward speed and yaw rate.
type Twist struct {
	LinearX  float64 `json:"linear_x"`
	AngularZ float64 `json:"angular_z"`
}

// Quaternion carries an orientation on the wire.  The robot only ever yaws,
// but consumers expect a full quaternion.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

func QuaternionFromYaw(yaw float64) Quaternion {
	return Quaternion{
		Z: math.Sin(yaw / 2.0),
		W: math.Cos(yaw / 2.0),
	}
}

// Yaw extracts the heading from a quaternion.
func (q Quaternion) Yaw() float64 {
	return math.Atan2(2.0*(q.W*q.Z+q.X*q.Y), 1.0-2.0*(q.Y*q.Y+q.Z*q.Z))
}

// Odometry is the integrated pose estimate plus the velocity it was
// integrated from.
type Odometry struct {
	FrameID      string    `json:"frame_id"`
	ChildFrameID string    `json:"child_frame_id"`
	Stamp        time.Time `json:"stamp"`

	X           float64    `json:"x"`
	Y           float64    `json:"y"`
	Orientation Quaternion `json:"orientation"`

	LinearVelocity  float64 `json:"linear_velocity"`
	AngularVelocity float64 `json:"angular_velocity"`
}

// Transform is a rigid transform between two frames.
type Transform struct {
	ParentFrame string    `json:"parent_frame"`
	ChildFrame  string    `json:"child_frame"`
	Stamp       time.Time `json:"stamp"`

	X        float64    `json:"x"`
	Y        float64    `json:"y"`
	Z        float64    `json:"z"`
	Rotation Quaternion `json:"rotation"`
}

// PoseStamped is a bare pose in a named frame; used for the simulator's
// ground-truth output and for external pose resets.
type PoseStamped struct {
	FrameID string    `json:"frame_id"`
	Stamp   time.Time `json:"stamp"`

	X           float64    `json:"x"`
	Y           float64    `json:"y"`
	Orientation Quaternion `json:"orientation"`
}
