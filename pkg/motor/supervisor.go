package motor

import (
	"context"
	"fmt"
	"time"

	"github.com/JamesRaub/scarab/pkg/roboclaw"
)

const (
	// Consecutive failures before the link is declared wedged and reset.
	failureThreshold = 5

	openRetryInterval  = 250 * time.Millisecond
	openNotifyInterval = 10 * time.Second
)

// Supervisor tracks consecutive communication failures against the motor
// controller and restarts the link when it looks wedged.  A restart is a
// USB-level reset followed by a blocking reopen and a re-push of the
// controller configuration; it never gives up while the process is alive.
type Supervisor struct {
	claw roboclaw.Interface

	// Re-applied after every successful (re)open; the controller loses its
	// PID constants over a reset.
	configure func() error

	failures int
}

func NewSupervisor(claw roboclaw.Interface, configure func() error) *Supervisor {
	return &Supervisor{
		claw:      claw,
		configure: configure,
	}
}

// RecordSuccess resets the consecutive-failure counter.
func (s *Supervisor) RecordSuccess() {
	s.failures = 0
}

// RecordFailure counts one communication failure.  On hitting the threshold
// it restarts the link, blocking until the reopen succeeds or ctx is
// cancelled.
func (s *Supervisor) RecordFailure(ctx context.Context) {
	s.failures++
	if s.failures < failureThreshold {
		return
	}

	fmt.Println("Supervisor: several errors from roboclaw, restarting link")
	if err := s.claw.ResetUSB(); err != nil {
		fmt.Println("Supervisor: USB reset failed:", err)
	}
	if err := s.OpenBlocking(ctx); err != nil {
		// Only happens on shutdown.
		fmt.Println("Supervisor: gave up reopening link:", err)
		return
	}
	if err := s.configure(); err != nil {
		fmt.Println("Supervisor: failed to reconfigure controller:", err)
	}
	s.failures = 0
}

// Failures returns the current consecutive-failure count.
func (s *Supervisor) Failures() int {
	return s.failures
}

// OpenBlocking retries opening the serial link at a fixed interval until it
// succeeds or ctx is cancelled, warning periodically while the link stays
// down.
func (s *Supervisor) OpenBlocking(ctx context.Context) error {
	fmt.Println("Supervisor: connecting to roboclaw...")
	start := time.Now()
	lastNotify := start
	var lastErr error
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = s.claw.Open()
		if lastErr == nil {
			fmt.Println("Supervisor: connected to roboclaw")
			return nil
		}
		time.Sleep(openRetryInterval)
		if down := time.Since(start); down > openNotifyInterval &&
			time.Since(lastNotify) > openNotifyInterval {
			fmt.Printf("Supervisor: haven't connected in %.2f seconds, last error: %v\n",
				down.Seconds(), lastErr)
			lastNotify = time.Now()
		}
	}
}
