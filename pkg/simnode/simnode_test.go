package simnode

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/JamesRaub/scarab/pkg/config"
	"github.com/JamesRaub/scarab/pkg/kinematics"
	"github.com/JamesRaub/scarab/pkg/telemetry"
)

type recordingPublisher struct {
	lock  sync.Mutex
	odoms []telemetry.Odometry
	tfs   []telemetry.Transform
	gts   []telemetry.PoseStamped
}

func (r *recordingPublisher) PublishOdometry(o telemetry.Odometry) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.odoms = append(r.odoms, o)
}

func (r *recordingPublisher) PublishTransform(t telemetry.Transform) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.tfs = append(r.tfs, t)
}

func (r *recordingPublisher) PublishGroundTruth(gt telemetry.PoseStamped) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.gts = append(r.gts, gt)
}

func testSimConfig(names ...string) config.Sim {
	cfg := config.DefaultSim()
	for _, name := range names {
		cfg.Agents = append(cfg.Agents, config.SimAgent{
			Name:        name,
			Freq:        50,
			PublishFreq: 10,
		})
	}
	return cfg
}

func newTestAgent() (*Agent, *recordingPublisher) {
	pub := &recordingPublisher{}
	cfg := testSimConfig("alpha")
	return newAgent(cfg.Agents[0], cfg, pub), pub
}

func TestAgentIntegratesCommandedVelocity(t *testing.T) {
	a, _ := newTestAgent()
	a.SetVelocity(1.0, 0.0)

	start := time.Now()
	a.lastIntegration = start
	for i := 1; i <= 10; i++ {
		a.integrateOnce(start.Add(time.Duration(i) * 100 * time.Millisecond))
	}

	p := a.Pose()
	if math.Abs(p.X-1.0) > 1e-9 || math.Abs(p.Y) > 1e-9 {
		t.Errorf("pose after 1s at 1m/s: %+v", p)
	}
}

func TestAgentPoseReset(t *testing.T) {
	a, _ := newTestAgent()
	a.SetVelocity(1.0, 0.5)
	start := time.Now()
	a.lastIntegration = start
	a.integrateOnce(start.Add(100 * time.Millisecond))

	a.ResetPose(5.0, -2.0, 1.5)
	p := a.Pose()
	if p.X != 5.0 || p.Y != -2.0 || p.Theta != 1.5 {
		t.Errorf("pose after reset: %+v", p)
	}
}

func TestAgentClampsNonFinitePose(t *testing.T) {
	a, _ := newTestAgent()
	a.ResetPose(math.NaN(), 0, 0)
	start := time.Now()
	a.lastIntegration = start
	a.integrateOnce(start.Add(20 * time.Millisecond))

	if p := a.Pose(); p.X != kinematics.NaNSentinel {
		t.Errorf("expected sentinel, got %+v", p)
	}
}

func TestAgentPublishesAllTopics(t *testing.T) {
	a, pub := newTestAgent()
	a.ResetPose(1.0, 2.0, 0.5)
	a.publishOnce(time.Now())

	if len(pub.odoms) != 1 || len(pub.tfs) != 1 || len(pub.gts) != 1 {
		t.Fatalf("got %d odoms, %d tfs, %d gts", len(pub.odoms), len(pub.tfs), len(pub.gts))
	}
	o := pub.odoms[0]
	if o.FrameID != "alpha/odom" || o.ChildFrameID != "alpha/base_link" {
		t.Errorf("bad frames: %+v", o)
	}
	if o.X != 1.0 || o.Y != 2.0 {
		t.Errorf("bad position: %+v", o)
	}
	if yaw := pub.gts[0].Orientation.Yaw(); math.Abs(yaw-0.5) > 1e-9 {
		t.Errorf("bad yaw %f", yaw)
	}
}

func TestAgentsAreIndependent(t *testing.T) {
	cfg := testSimConfig("alpha", "beta")
	m := NewManager(cfg, func(string) Publisher { return &recordingPublisher{} })

	alpha, ok := m.Agent("alpha")
	if !ok {
		t.Fatal("missing agent alpha")
	}
	beta, _ := m.Agent("beta")

	alpha.SetVelocity(1.0, 0.0)
	start := time.Now()
	alpha.lastIntegration = start
	beta.lastIntegration = start
	alpha.integrateOnce(start.Add(time.Second))
	beta.integrateOnce(start.Add(time.Second))

	if p := alpha.Pose(); math.Abs(p.X-1.0) > 1e-9 {
		t.Errorf("alpha pose: %+v", p)
	}
	if p := beta.Pose(); p.X != 0 || p.Y != 0 {
		t.Errorf("beta should not have moved: %+v", p)
	}
}

func TestManagerRunsAndStops(t *testing.T) {
	cfg := testSimConfig("alpha", "beta")
	pubs := map[string]*recordingPublisher{}
	m := NewManager(cfg, func(name string) Publisher {
		p := &recordingPublisher{}
		pubs[name] = p
		return p
	})

	if got := m.Names(); len(got) != 2 || got[0] != "alpha" || got[1] != "beta" {
		t.Fatalf("names: %v", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	time.Sleep(250 * time.Millisecond)
	cancel()
	m.Wait()

	for name, p := range pubs {
		p.lock.Lock()
		if len(p.odoms) == 0 {
			t.Errorf("agent %s never published", name)
		}
		p.lock.Unlock()
	}
}
