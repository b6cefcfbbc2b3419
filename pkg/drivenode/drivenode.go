package drivenode

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JamesRaub/scarab/pkg/config"
	"github.com/JamesRaub/scarab/pkg/kinematics"
	"github.com/JamesRaub/scarab/pkg/motor"
	"github.com/JamesRaub/scarab/pkg/telemetry"
)

// Publisher receives the pose outputs of every control-loop tick.
type Publisher interface {
	PublishOdometry(telemetry.Odometry)
	PublishTransform(telemetry.Transform)
}

// Reconfig is the live-reconfiguration payload: the full tuning set plus the
// node's own parameters.
type Reconfig struct {
	OdomFrame string  `json:"odom_frame"`
	BaseFrame string  `json:"base_frame"`
	Freq      float64 `json:"freq"`

	Motor motor.Tuning `json:"motor"`
}

// Node runs the fixed-rate control loop: read measured speeds, integrate
// odometry, publish.  Velocity commands arrive asynchronously on the
// caller's thread.
//
// Two separate locks by design: driverLock serializes all hardware access so
// a command never races an in-flight read, stateLock guards the pose and
// loop parameters so a command doesn't have to wait for odometry publishing.
type Node struct {
	driver *motor.Controller
	pub    Publisher

	driverLock sync.Mutex

	stateLock       sync.Mutex
	freq            float64
	odomFrame       string
	baseFrame       string
	pose            kinematics.Pose
	lastIntegration time.Time
}

func New(driver *motor.Controller, pub Publisher, cfg config.Drive) *Node {
	return &Node{
		driver:    driver,
		pub:       pub,
		freq:      cfg.Freq,
		odomFrame: cfg.OdomFrame,
		baseFrame: cfg.BaseFrame,
	}
}

// OnTwist applies a velocity command.  Only the hardware lock is taken, so a
// command doesn't wait for an in-flight integrate/publish.
func (n *Node) OnTwist(ctx context.Context, t telemetry.Twist) {
	n.driverLock.Lock()
	defer n.driverLock.Unlock()
	n.driver.SetVelocity(ctx, t.LinearX, t.AngularZ)
}

// Reconfigure applies a new parameter set.  The loop picks up a frequency
// change at the top of its next iteration.
func (n *Node) Reconfigure(ctx context.Context, r Reconfig) {
	n.stateLock.Lock()
	if r.OdomFrame != n.odomFrame {
		fmt.Println("Node: setting odom_frame to", r.OdomFrame)
		n.odomFrame = r.OdomFrame
	}
	if r.BaseFrame != n.baseFrame {
		fmt.Println("Node: setting base_frame to", r.BaseFrame)
		n.baseFrame = r.BaseFrame
	}
	n.freq = r.Freq
	n.stateLock.Unlock()

	fmt.Println("Node: updating wheel & motor params")
	n.driverLock.Lock()
	n.driver.ApplyTuning(ctx, r.Motor)
	n.driverLock.Unlock()
}

// Pose returns the current odometry estimate.
func (n *Node) Pose() kinematics.Pose {
	n.stateLock.Lock()
	defer n.stateLock.Unlock()
	return n.pose
}

// Loop runs the control loop until ctx is cancelled, then commands zero
// velocity on the way out.
func (n *Node) Loop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	defer fmt.Println("Node: control loop exited")
	defer func() {
		fmt.Println("Node: zeroing motors for shut down")
		n.driverLock.Lock()
		n.driver.SetVelocity(ctx, 0.0, 0.0)
		n.driverLock.Unlock()
	}()

	n.stateLock.Lock()
	curFreq := n.freq
	n.lastIntegration = time.Now()
	n.stateLock.Unlock()

	ticker := time.NewTicker(period(curFreq))
	defer ticker.Stop()

	for ctx.Err() == nil {
		n.stateLock.Lock()
		if n.freq != curFreq {
			fmt.Printf("Node: updating rate to %.3fhz\n", n.freq)
			curFreq = n.freq
			ticker.Reset(period(curFreq))
		}
		n.tick(ctx, time.Now())
		n.stateLock.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// tick performs one control-loop iteration.  Caller holds stateLock.
func (n *Node) tick(ctx context.Context, now time.Time) {
	n.driverLock.Lock()
	n.driver.Update(ctx)
	st := n.driver.State()
	n.driverLock.Unlock()

	dt := now.Sub(n.lastIntegration).Seconds()
	n.lastIntegration = now
	if !n.pose.Integrate(st.V, st.W, dt) {
		fmt.Printf("Node: skipping odometry step, dt=%.1fs\n", dt)
	}
	if n.pose.ClampNonFinite() {
		fmt.Printf("Node: odometry went non-finite (v=%f w=%f), clamped\n", st.V, st.W)
	}

	q := telemetry.QuaternionFromYaw(n.pose.Theta)
	n.pub.PublishOdometry(telemetry.Odometry{
		FrameID:         n.odomFrame,
		ChildFrameID:    n.baseFrame,
		Stamp:           now,
		X:               n.pose.X,
		Y:               n.pose.Y,
		Orientation:     q,
		LinearVelocity:  st.V,
		AngularVelocity: st.W,
	})
	n.pub.PublishTransform(telemetry.Transform{
		ParentFrame: n.odomFrame,
		ChildFrame:  n.baseFrame,
		Stamp:       now,
		X:           n.pose.X,
		Y:           n.pose.Y,
		Rotation:    q,
	})
}

func period(freq float64) time.Duration {
	return time.Duration(float64(time.Second) / freq)
}
