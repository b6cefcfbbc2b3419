package motor

import (
	"math"

	"github.com/JamesRaub/scarab/pkg/kinematics"
)

// Tuning holds the motor controller and drive-train parameters.  Replaced
// wholesale on reconfiguration, never mutated field by field.
type Tuning struct {
	AxleWidth         float64 `yaml:"axle_width" json:"axle_width"`
	WheelDiam         float64 `yaml:"wheel_diam" json:"wheel_diam"`
	MotorToWheelRatio float64 `yaml:"motor_to_wheel_ratio" json:"motor_to_wheel_ratio"`
	PulsesPerMotorRev float64 `yaml:"quad_pulse_per_motor_rev" json:"quad_pulse_per_motor_rev"`

	AccelMax    float64 `yaml:"accel_max" json:"accel_max"`
	MinWheelVel float64 `yaml:"min_wheel_vel" json:"min_wheel_vel"`
	MaxWheelVel float64 `yaml:"max_wheel_vel" json:"max_wheel_vel"`

	PIDParamP uint32 `yaml:"pid_param_p" json:"pid_param_p"`
	PIDParamI uint32 `yaml:"pid_param_i" json:"pid_param_i"`
	PIDParamD uint32 `yaml:"pid_param_d" json:"pid_param_d"`
	PIDQPPS   uint32 `yaml:"pid_qpps" json:"pid_qpps"`

	// +1 if positive speed means forward, -1 if positive means backwards.
	LeftSign  int `yaml:"left_sign" json:"left_sign"`
	RightSign int `yaml:"right_sign" json:"right_sign"`
}

// DefaultTuning returns the parameters for the scarab drive train.
func DefaultTuning() Tuning {
	return Tuning{
		AxleWidth:         0.255,
		WheelDiam:         0.1,
		MotorToWheelRatio: 40.0,
		PulsesPerMotorRev: 2000.0,
		AccelMax:          1.0,
		MinWheelVel:       0.0,
		MaxWheelVel:       0.8,
		PIDParamP:         15000,
		PIDParamI:         0x250,
		PIDParamD:         500,
		PIDQPPS:           300000,
		LeftSign:          -1,
		RightSign:         1,
	}
}

// PulsesPerMeter derives the encoder pulse count for one metre of wheel
// travel.
func (t Tuning) PulsesPerMeter() float64 {
	motorRevPerMeter := t.MotorToWheelRatio / (math.Pi * t.WheelDiam)
	return t.PulsesPerMotorRev * motorRevPerMeter
}

// AccelMaxPulses derives the maximum acceleration in pulses/s^2.
func (t Tuning) AccelMaxPulses() uint32 {
	return uint32(t.AccelMax * t.PulsesPerMeter())
}

// Geometry extracts the parameters the wheel-speed mapping needs.
func (t Tuning) Geometry() kinematics.Geometry {
	return kinematics.Geometry{
		AxleWidth:   t.AxleWidth,
		MaxWheelVel: t.MaxWheelVel,
		MinWheelVel: t.MinWheelVel,
		LeftSign:    1, // sign correction is applied at the hardware boundary
		RightSign:   1,
	}
}

// PIDChanged reports whether the fields that live on the hardware controller
// differ, meaning they need re-pushing.
func (t Tuning) PIDChanged(other Tuning) bool {
	return t.PIDParamP != other.PIDParamP ||
		t.PIDParamI != other.PIDParamI ||
		t.PIDParamD != other.PIDParamD ||
		t.PIDQPPS != other.PIDQPPS
}
