package motor

// State mirrors the motor_state record published on every command and
// update.  Setpoint wheel speeds are pre-sign-correction; the pulse-rate
// setpoints are exactly what went to the hardware.
type State struct {
	VSetpoint float64 `json:"v_sp"`
	WSetpoint float64 `json:"w_sp"`

	LeftSetpoint  float64 `json:"left_sp"`
	RightSetpoint float64 `json:"right_sp"`

	LeftSetpointPulses  int32 `json:"left_qpps_sp"`
	RightSetpointPulses int32 `json:"right_qpps_sp"`

	LeftPulses  int32 `json:"left_qpps"`
	RightPulses int32 `json:"right_qpps"`

	LeftMeasured  float64 `json:"left"`
	RightMeasured float64 `json:"right"`

	// Velocity derived from the measured wheel speeds.
	V float64 `json:"v"`
	W float64 `json:"w"`
}
