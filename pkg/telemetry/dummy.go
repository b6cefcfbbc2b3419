package telemetry

import (
	"fmt"

	"github.com/JamesRaub/scarab/pkg/motor"
)

// Dummy returns a publisher that just logs, for running without a broker.
func Dummy() *dummyPublisher {
	return &dummyPublisher{}
}

type dummyPublisher struct {
}

func (d *dummyPublisher) PublishMotorState(s motor.State) {
	fmt.Printf("Dummy publish motor state: v=%.3f w=%.3f\n", s.V, s.W)
}

func (d *dummyPublisher) PublishOdometry(o Odometry) {
	fmt.Printf("Dummy publish odom: x=%.3f y=%.3f\n", o.X, o.Y)
}

func (d *dummyPublisher) PublishTransform(t Transform) {
	fmt.Printf("Dummy publish tf: %s -> %s\n", t.ParentFrame, t.ChildFrame)
}

func (d *dummyPublisher) PublishGroundTruth(gt PoseStamped) {
	fmt.Printf("Dummy publish gt_pose: x=%.3f y=%.3f\n", gt.X, gt.Y)
}
