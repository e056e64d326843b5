package notifications_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tracker000/gridtrack/internal/notifications"
)

type scriptedNotifier struct {
	calls int
	errs  []error
}

func (s *scriptedNotifier) SendPasswordReset(context.Context, notifications.PasswordResetInput) error {
	s.calls++

	if len(s.errs) == 0 {
		return nil
	}

	err := s.errs[0]
	s.errs = s.errs[1:]

	return err
}

func sampleInput() notifications.PasswordResetInput {
	return notifications.PasswordResetInput{
		Email:      "a@example.com",
		Username:   "alice",
		ResetToken: "tok",
		ExpiresAt:  time.Now().Add(time.Hour),
	}
}

func TestCircuitOpensAfterThreshold(t *testing.T) {
	boom := errors.New("smtp down")

	inner := &scriptedNotifier{errs: []error{boom, boom, boom, boom}}

	n := notifications.NewProtectedNotifier(inner, notifications.ProtectedNotifierConfig{
		Timeout:          time.Second,
		FailureThreshold: 2,
		Cooldown:         time.Hour,
		HalfOpenMaxCalls: 1,
	})

	ctx := context.Background()

	// two failures reach the threshold
	for i := 0; i < 2; i++ {
		if err := n.SendPasswordReset(ctx, sampleInput()); !errors.Is(err, boom) {
			t.Fatalf("call %d: got %v, want inner error", i, err)
		}
	}

	// circuit is now open: the inner notifier must not be reached
	if err := n.SendPasswordReset(ctx, sampleInput()); !errors.Is(err, notifications.ErrCircuitOpen) {
		t.Fatalf("got %v, want ErrCircuitOpen", err)
	}

	if inner.calls != 2 {
		t.Fatalf("inner called %d times, want 2", inner.calls)
	}
}

func TestCircuitRecoversAfterCooldown(t *testing.T) {
	boom := errors.New("smtp down")

	inner := &scriptedNotifier{errs: []error{boom}}

	n := notifications.NewProtectedNotifier(inner, notifications.ProtectedNotifierConfig{
		Timeout:          time.Second,
		FailureThreshold: 1,
		Cooldown:         10 * time.Millisecond,
		HalfOpenMaxCalls: 1,
	})

	ctx := context.Background()

	if err := n.SendPasswordReset(ctx, sampleInput()); !errors.Is(err, boom) {
		t.Fatalf("got %v, want inner error", err)
	}

	if err := n.SendPasswordReset(ctx, sampleInput()); !errors.Is(err, notifications.ErrCircuitOpen) {
		t.Fatalf("got %v, want ErrCircuitOpen", err)
	}

	time.Sleep(20 * time.Millisecond)

	// half-open trial call succeeds and closes the circuit again
	if err := n.SendPasswordReset(ctx, sampleInput()); err != nil {
		t.Fatalf("trial call after cooldown: %v", err)
	}

	if err := n.SendPasswordReset(ctx, sampleInput()); err != nil {
		t.Fatalf("call after recovery: %v", err)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	boom := errors.New("smtp down")

	inner := &scriptedNotifier{errs: []error{boom, nil, boom}}

	n := notifications.NewProtectedNotifier(inner, notifications.ProtectedNotifierConfig{
		Timeout:          time.Second,
		FailureThreshold: 2,
		Cooldown:         time.Hour,
		HalfOpenMaxCalls: 1,
	})

	ctx := context.Background()

	_ = n.SendPasswordReset(ctx, sampleInput()) // fail (1)
	_ = n.SendPasswordReset(ctx, sampleInput()) // success resets the count
	_ = n.SendPasswordReset(ctx, sampleInput()) // fail (1 again)

	// still below threshold, so the circuit stays closed
	if err := n.SendPasswordReset(ctx, sampleInput()); errors.Is(err, notifications.ErrCircuitOpen) {
		t.Fatal("circuit opened although failures were not consecutive")
	}
}
