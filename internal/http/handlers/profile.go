package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tracker000/gridtrack/internal/config"
	"github.com/tracker000/gridtrack/internal/domain/account"
	"github.com/tracker000/gridtrack/internal/http/middlewares"
)

type ProfileStore interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	UpdateProfile(ctx context.Context, id string, upd account.ProfileUpdate) (account.Account, error)
}

type ProfileHandler struct {
	accounts ProfileStore
}

func NewProfileHandler(accounts ProfileStore) *ProfileHandler {
	return &ProfileHandler{accounts: accounts}
}

func (h *ProfileHandler) Me(ctx *gin.Context) {
	acct, ok := middlewares.AccountFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	ctx.JSON(http.StatusOK, acct)
}

// Pointer fields distinguish "field absent" from "set to empty": only the
// fields present in the request body are written.
type UpdateProfileRequest struct {
	Name       *string `json:"name" binding:"omitempty,min=1,max=64"`
	Phone      *string `json:"phone" binding:"omitempty,max=32"`
	ProfilePic *string `json:"profilePic"`
}

func (h *ProfileHandler) UpdateProfile(ctx *gin.Context) {
	acct, ok := middlewares.AccountFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	updated, err := h.accounts.UpdateProfile(cctx, acct.ID, account.ProfileUpdate{
		Username:   req.Name,
		Phone:      req.Phone,
		ProfilePic: req.ProfilePic,
	})

	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			RespondNotFound(ctx, "Account no longer exists")
			return
		}

		RespondInternal(ctx, "Could not update profile")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":    "Profile updated",
		"profilePic": updated.ProfilePic,
	})
}
