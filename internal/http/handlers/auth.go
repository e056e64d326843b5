package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tracker000/gridtrack/internal/auth"
	"github.com/tracker000/gridtrack/internal/config"
	"github.com/tracker000/gridtrack/internal/domain/account"
	"github.com/tracker000/gridtrack/internal/http/middlewares"
	"github.com/tracker000/gridtrack/internal/notifications"
	"github.com/tracker000/gridtrack/internal/security"
	"github.com/tracker000/gridtrack/internal/session"
)

type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Create(ctx context.Context, email, username, passwordHash, role string) (account.Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type SessionManager interface {
	Login(ctx context.Context, email, password string) (string, account.Account, error)
	Revoke(ctx context.Context, raw string) error
	RevokeAll(ctx context.Context, accountID string) error
}

type ResetStore interface {
	Create(ctx context.Context, row auth.ResetRow) error
	Get(ctx context.Context, jti string) (auth.ResetRow, error)
	MarkRedeemed(ctx context.Context, jti string) error
}

type AuthHandler struct {
	accounts AccountStore
	sessions SessionManager
	resets   ResetStore
	tokens   *auth.Manager
	notifier notifications.Notifier
	log      *slog.Logger
}

func NewAuthHandler(accounts AccountStore, sessions SessionManager, resets ResetStore, tokens *auth.Manager, notifier notifications.Notifier, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		sessions: sessions,
		resets:   resets,
		tokens:   tokens,
		notifier: notifier,
		log:      log,
	}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=2,max=64"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create account")
		return
	}

	// self-registration always lands on the non-privileged role
	acct, err := h.accounts.Create(cctx, req.Email, req.Username, hash, account.RoleUser)

	if err != nil {
		if errors.Is(err, account.ErrEmailTaken) {
			RespondError(ctx, http.StatusBadRequest, "email_taken", "Email is already in use.", nil)
			return
		}

		RespondInternal(ctx, "Could not create account")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message":  "Account created successfully",
		"username": acct.Username,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for store lookup
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	raw, acct, err := h.sessions.Login(cctx, req.Email, req.Password)

	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
			return
		}

		RespondInternal(ctx, "Could not create session")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token":    raw,
		"username": acct.Username,
		"role":     acct.Role,
	})
}

// Logout retires the presented token. Unknown or already-revoked tokens still
// get a 204 so repeated logouts are harmless.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	raw := middlewares.BearerToken(ctx)

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	if err := h.sessions.Revoke(cctx, raw); err != nil {
		h.log.WarnContext(ctx.Request.Context(), "logout revoke failed", "error", err)
	}

	ctx.Status(http.StatusNoContent)
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword answers 200 whether or not the email maps to an account, so
// the endpoint cannot be used to enumerate addresses.
func (h *AuthHandler) ForgotPassword(ctx *gin.Context) {
	var req ForgotPasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	acct, err := h.accounts.GetByEmail(cctx, req.Email)

	if err == nil {
		h.issueReset(cctx, acct)
	} else if !errors.Is(err, account.ErrNotFound) {
		h.log.ErrorContext(ctx.Request.Context(), "forgot-password lookup failed", "error", err)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "If that account exists, a password reset link has been sent.",
	})
}

func (h *AuthHandler) issueReset(ctx context.Context, acct account.Account) {
	raw, jti, expiresAt, err := h.tokens.GenerateResetToken(acct.ID, acct.Email)

	if err != nil {
		h.log.ErrorContext(ctx, "could not sign reset token", "error", err)
		return
	}

	row := auth.ResetRow{
		ID:        jti,
		AccountID: acct.ID,
		TokenHash: h.tokens.Hash(raw),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.resets.Create(ctx, row); err != nil {
		h.log.ErrorContext(ctx, "could not store reset token", "error", err)
		return
	}

	err = h.notifier.SendPasswordReset(ctx, notifications.PasswordResetInput{
		Email:      acct.Email,
		Username:   acct.Username,
		ResetToken: raw,
		ExpiresAt:  expiresAt,
	})

	if err != nil {
		// the row is already stored; the token just never reached the user
		h.log.ErrorContext(ctx, "reset notification failed", "error", err)
	}
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

func (h *AuthHandler) ResetPassword(ctx *gin.Context) {
	var req ResetPasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	claims, err := h.tokens.VerifyResetToken(req.Token)

	if err != nil {
		RespondBadRequest(ctx, "Invalid or expired reset token", nil)
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	row, err := h.resets.Get(cctx, claims.JTI)

	if err != nil {
		RespondBadRequest(ctx, "Invalid or expired reset token", nil)
		return
	}

	// verify hash matches the presented token (prevents token substitution)
	if row.TokenHash != h.tokens.Hash(req.Token) {
		RespondBadRequest(ctx, "Invalid or expired reset token", nil)
		return
	}

	if row.RedeemedAt != nil {
		RespondBadRequest(ctx, "Invalid or expired reset token", nil)
		return
	}

	if time.Now().UTC().After(row.ExpiresAt) {
		RespondBadRequest(ctx, "Invalid or expired reset token", nil)
		return
	}

	hash, err := security.HashPassword(req.NewPassword)

	if err != nil {
		RespondInternal(ctx, "Could not reset password")
		return
	}

	if err := h.accounts.UpdatePassword(cctx, row.AccountID, hash); err != nil {
		RespondInternal(ctx, "Could not reset password")
		return
	}

	if err := h.resets.MarkRedeemed(cctx, claims.JTI); err != nil {
		RespondInternal(ctx, "Could not reset password")
		return
	}

	// stolen sessions die with the old password
	if err := h.sessions.RevokeAll(cctx, row.AccountID); err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "could not revoke sessions after reset", "error", err, "account_id", row.AccountID)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Password has been reset. Please log in again.",
	})
}
