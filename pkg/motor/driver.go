package motor

import (
	"context"
	"fmt"
	"math"

	"github.com/JamesRaub/scarab/pkg/kinematics"
	"github.com/JamesRaub/scarab/pkg/roboclaw"
)

// StatePublisher receives the motor state snapshot after every successful
// command or update.
type StatePublisher interface {
	PublishMotorState(State)
}

// Controller commands the two wheel channels of the roboclaw and reads back
// their measured speeds.  It is not internally locked; callers serialize all
// access behind the hardware lock (see drivenode).
type Controller struct {
	claw roboclaw.Interface
	sup  *Supervisor
	pub  StatePublisher

	tuning Tuning
	// Derived from tuning, recomputed on every change.
	pulsesPerMeter float64
	accelPulses    uint32

	state State
}

func NewController(claw roboclaw.Interface, pub StatePublisher, tuning Tuning) *Controller {
	c := &Controller{
		claw:   claw,
		pub:    pub,
		tuning: tuning,
	}
	c.sup = NewSupervisor(claw, c.Configure)
	c.deriveTuning()
	return c
}

// Supervisor exposes the fault supervisor so the node can run the initial
// blocking open through it.
func (c *Controller) Supervisor() *Supervisor {
	return c.sup
}

func (c *Controller) deriveTuning() {
	c.pulsesPerMeter = c.tuning.PulsesPerMeter()
	c.accelPulses = c.tuning.AccelMaxPulses()
}

// Configure pushes the PID constants and max pulse rate to both wheel
// channels.  Idempotent; must be re-run after any tuning change and after
// every link restart.
func (c *Controller) Configure() error {
	t := c.tuning
	fmt.Printf("Motor: setting PID params: P=%d I=%d D=%d QPPS=%d\n",
		t.PIDParamP, t.PIDParamI, t.PIDParamD, t.PIDQPPS)
	if err := c.claw.SetM1Constants(t.PIDParamD, t.PIDParamP, t.PIDParamI, t.PIDQPPS); err != nil {
		return err
	}
	return c.claw.SetM2Constants(t.PIDParamD, t.PIDParamP, t.PIDParamI, t.PIDQPPS)
}

// ApplyTuning replaces the tuning parameters wholesale, re-deriving the
// pulse conversions and re-pushing the hardware constants if they changed.
func (c *Controller) ApplyTuning(ctx context.Context, t Tuning) {
	pidChanged := c.tuning.PIDChanged(t)
	c.tuning = t
	c.deriveTuning()
	if pidChanged {
		if err := c.Configure(); err != nil {
			fmt.Println("Motor: failed to push new PID params:", err)
			c.sup.RecordFailure(ctx)
		}
	}
}

// Tuning returns the parameters currently in force.
func (c *Controller) Tuning() Tuning {
	return c.tuning
}

// SetVelocity commands the motors to the given linear and angular velocity.
// Best-effort: if the first wheel's command fails the call reports the
// failure and returns without trying the second; the next command or tick
// self-corrects.
func (c *Controller) SetVelocity(ctx context.Context, v, w float64) {
	c.state.VSetpoint = v
	c.state.WSetpoint = w

	c.state.LeftSetpoint, c.state.RightSetpoint = kinematics.WheelSpeeds(v, w, c.tuning.Geometry())

	// Convert to pulses/s, applying the per-side polarity the hardware
	// expects.
	c.state.LeftSetpointPulses = int32(math.Round(
		float64(c.tuning.LeftSign) * c.state.LeftSetpoint * c.pulsesPerMeter))
	c.state.RightSetpointPulses = int32(math.Round(
		float64(c.tuning.RightSign) * c.state.RightSetpoint * c.pulsesPerMeter))

	if err := c.claw.SpeedAccelM1(c.accelPulses, c.state.LeftSetpointPulses); err != nil {
		fmt.Println("Motor: problem with SpeedAccel on motor 1:", err)
		c.sup.RecordFailure(ctx)
		return
	}
	if err := c.claw.SpeedAccelM2(c.accelPulses, c.state.RightSetpointPulses); err != nil {
		fmt.Println("Motor: problem with SpeedAccel on motor 2:", err)
		c.sup.RecordFailure(ctx)
		return
	}

	c.sup.RecordSuccess()
	c.pub.PublishMotorState(c.state)
}

// Update reads the measured speed of both wheels and re-derives v and w.  On
// any failure the stale state is left in place for this tick and the
// supervisor is informed.
func (c *Controller) Update(ctx context.Context) {
	left, ok := c.readSpeed(ctx, 1, c.claw.ReadISpeedM1)
	if !ok {
		return
	}
	right, ok := c.readSpeed(ctx, 2, c.claw.ReadISpeedM2)
	if !ok {
		return
	}
	c.state.LeftPulses = left
	c.state.RightPulses = right

	// Back to m/s, undoing the per-side polarity.
	c.state.LeftMeasured = float64(c.tuning.LeftSign) * float64(left) / c.pulsesPerMeter
	c.state.RightMeasured = float64(c.tuning.RightSign) * float64(right) / c.pulsesPerMeter

	c.state.V = (c.state.RightMeasured + c.state.LeftMeasured) / 2.0
	c.state.W = (c.state.RightMeasured - c.state.LeftMeasured) / c.tuning.AxleWidth

	c.sup.RecordSuccess()
	c.pub.PublishMotorState(c.state)
}

func (c *Controller) readSpeed(ctx context.Context, wheel int,
	read func() (int32, uint8, bool, error)) (int32, bool) {
	speed, status, valid, err := read()
	if err != nil {
		fmt.Printf("Motor: problem reading motor %d speed: %v\n", wheel, err)
		c.sup.RecordFailure(ctx)
		return 0, false
	}
	// An unrecognized status byte means the reading can't be trusted;
	// treat it the same as a communication failure.
	if !valid || (status != roboclaw.StatusForward && status != roboclaw.StatusBackward) {
		fmt.Printf("Motor: invalid data from motor %d (status=%d valid=%v)\n", wheel, status, valid)
		c.sup.RecordFailure(ctx)
		return 0, false
	}
	return speed * roboclaw.ISpeedScale, true
}

// State returns the state as reflected by the last SetVelocity and Update
// calls.
func (c *Controller) State() State {
	return c.state
}
