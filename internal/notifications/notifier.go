package notifications

import (
	"context"
	"time"
)

// PasswordResetInput is everything a delivery channel needs to hand the
// reset token to the account holder.
type PasswordResetInput struct {
	Email      string
	Username   string
	ResetToken string
	ExpiresAt  time.Time
}

// Notifier delivers a password-reset token out of band. The raw token only
// ever travels through here; the stores keep fingerprints.
type Notifier interface {
	SendPasswordReset(ctx context.Context, in PasswordResetInput) error
}
