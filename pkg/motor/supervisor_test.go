package motor

import (
	"context"
	"testing"
)

func newTestSupervisor(claw *fakeClaw) *Supervisor {
	return NewSupervisor(claw, func() error {
		claw.configures++
		return nil
	})
}

func TestRestartAfterThreshold(t *testing.T) {
	claw := newFakeClaw()
	s := newTestSupervisor(claw)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		s.RecordFailure(ctx)
		if claw.usbResets != 0 {
			t.Fatalf("restarted after only %d failures", i+1)
		}
	}
	s.RecordFailure(ctx)

	if claw.usbResets != 1 {
		t.Errorf("expected exactly 1 USB reset, got %d", claw.usbResets)
	}
	if claw.opens != 1 {
		t.Errorf("expected exactly 1 reopen, got %d", claw.opens)
	}
	if claw.configures != 1 {
		t.Errorf("expected configuration re-push after restart, got %d", claw.configures)
	}
	if s.Failures() != 0 {
		t.Errorf("counter should reset after restart, got %d", s.Failures())
	}
}

func TestSuccessResetsCounter(t *testing.T) {
	claw := newFakeClaw()
	s := newTestSupervisor(claw)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		s.RecordFailure(ctx)
	}
	s.RecordSuccess()
	if s.Failures() != 0 {
		t.Fatalf("expected counter reset, got %d", s.Failures())
	}

	// Four more failures must not trip the restart.
	for i := 0; i < 4; i++ {
		s.RecordFailure(ctx)
	}
	if claw.usbResets != 0 {
		t.Errorf("restart triggered despite intervening success")
	}
}

func TestOpenBlockingRetries(t *testing.T) {
	claw := newFakeClaw()
	claw.openErrs = 3
	s := newTestSupervisor(claw)

	if err := s.OpenBlocking(context.Background()); err != nil {
		t.Fatal(err)
	}
	if claw.opens != 4 {
		t.Errorf("expected 4 open attempts, got %d", claw.opens)
	}
}

func TestOpenBlockingHonoursCancellation(t *testing.T) {
	claw := newFakeClaw()
	claw.openErrs = 1 << 30 // never succeeds
	s := newTestSupervisor(claw)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.OpenBlocking(ctx)
	}()
	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
