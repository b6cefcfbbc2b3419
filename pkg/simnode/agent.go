package simnode

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JamesRaub/scarab/pkg/config"
	"github.com/JamesRaub/scarab/pkg/kinematics"
	"github.com/JamesRaub/scarab/pkg/telemetry"
)

// Publisher receives one agent's outputs.
type Publisher interface {
	PublishOdometry(telemetry.Odometry)
	PublishTransform(telemetry.Transform)
	PublishGroundTruth(telemetry.PoseStamped)
}

// Agent is one simulated robot.  It integrates its commanded velocity into a
// pose at one rate and publishes the pose at another.
//
// Mirrors the drive node's lock split: the integrate loop reads (v, w) and
// writes the pose, the publish loop only reads the pose, and a command
// handler only writes (v, w) — so the two never serialize behind each other.
type Agent struct {
	name      string
	odomFrame string
	baseFrame string

	freq        float64
	publishFreq float64

	pub Publisher

	vwLock sync.Mutex
	v, w   float64

	poseLock        sync.Mutex
	pose            kinematics.Pose
	lastIntegration time.Time
}

func newAgent(cfg config.SimAgent, sim config.Sim, pub Publisher) *Agent {
	return &Agent{
		name:        cfg.Name,
		odomFrame:   cfg.Name + "/" + sim.OdomFrame,
		baseFrame:   cfg.Name + "/" + sim.BaseFrame,
		freq:        cfg.Freq,
		publishFreq: cfg.PublishFreq,
		pub:         pub,
		pose: kinematics.Pose{
			X:     cfg.X,
			Y:     cfg.Y,
			Theta: cfg.Theta,
		},
	}
}

// SetVelocity applies a velocity command; it takes effect on the agent's
// next integration step.
func (a *Agent) SetVelocity(v, w float64) {
	a.vwLock.Lock()
	defer a.vwLock.Unlock()
	a.v = v
	a.w = w
}

// ResetPose overwrites the pose directly, bypassing integration.
func (a *Agent) ResetPose(x, y, theta float64) {
	fmt.Printf("Sim [%s]: pose reset to %.3f, %.3f, %.3f\n", a.name, x, y, theta)
	a.poseLock.Lock()
	defer a.poseLock.Unlock()
	a.pose = kinematics.Pose{X: x, Y: y, Theta: theta}
}

// Pose returns the current pose.
func (a *Agent) Pose() kinematics.Pose {
	a.poseLock.Lock()
	defer a.poseLock.Unlock()
	return a.pose
}

// IntegrateLoop advances the pose at the agent's integration rate until ctx
// is cancelled.
func (a *Agent) IntegrateLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	defer fmt.Printf("Sim [%s]: integrate loop exited\n", a.name)

	a.poseLock.Lock()
	a.lastIntegration = time.Now()
	a.poseLock.Unlock()

	ticker := time.NewTicker(period(a.freq))
	defer ticker.Stop()
	for ctx.Err() == nil {
		a.integrateOnce(time.Now())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (a *Agent) integrateOnce(now time.Time) {
	a.vwLock.Lock()
	v, w := a.v, a.w
	a.vwLock.Unlock()

	a.poseLock.Lock()
	defer a.poseLock.Unlock()
	dt := now.Sub(a.lastIntegration).Seconds()
	a.lastIntegration = now
	a.pose.Integrate(v, w, dt)
	if a.pose.ClampNonFinite() {
		fmt.Printf("Sim [%s]: pose went non-finite (v=%f w=%f), clamped\n", a.name, v, w)
	}
}

// PublishLoop publishes the pose at the agent's publication rate until ctx
// is cancelled.
func (a *Agent) PublishLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	defer fmt.Printf("Sim [%s]: publish loop exited\n", a.name)

	ticker := time.NewTicker(period(a.publishFreq))
	defer ticker.Stop()
	for ctx.Err() == nil {
		a.publishOnce(time.Now())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (a *Agent) publishOnce(now time.Time) {
	pose := a.Pose()
	a.vwLock.Lock()
	v, w := a.v, a.w
	a.vwLock.Unlock()

	q := telemetry.QuaternionFromYaw(pose.Theta)
	a.pub.PublishOdometry(telemetry.Odometry{
		FrameID:         a.odomFrame,
		ChildFrameID:    a.baseFrame,
		Stamp:           now,
		X:               pose.X,
		Y:               pose.Y,
		Orientation:     q,
		LinearVelocity:  v,
		AngularVelocity: w,
	})
	a.pub.PublishTransform(telemetry.Transform{
		ParentFrame: a.odomFrame,
		ChildFrame:  a.baseFrame,
		Stamp:       now,
		X:           pose.X,
		Y:           pose.Y,
		Rotation:    q,
	})
	a.pub.PublishGroundTruth(telemetry.PoseStamped{
		FrameID:     a.odomFrame,
		Stamp:       now,
		X:           pose.X,
		Y:           pose.Y,
		Orientation: q,
	})
}

func period(freq float64) time.Duration {
	return time.Duration(float64(time.Second) / freq)
}
