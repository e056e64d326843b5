package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tracker000/gridtrack/internal/auth"
	"github.com/tracker000/gridtrack/internal/config"
	"github.com/tracker000/gridtrack/internal/domain/account"
	"github.com/tracker000/gridtrack/internal/security"
)

// AdminUsersHandler lets an admin provision accounts directly, without the
// self-registration flow.
type AdminUsersHandler struct {
	accounts AccountStore
	tokens   *auth.Manager
}

func NewAdminUsersHandler(accounts AccountStore, tokens *auth.Manager) *AdminUsersHandler {
	return &AdminUsersHandler{accounts: accounts, tokens: tokens}
}

type AddUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"omitempty,min=2,max=64"`
	Password string `json:"password" binding:"omitempty,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=admin user"`
}

func (h *AdminUsersHandler) AddUser(ctx *gin.Context) {
	var req AddUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	username := req.Username
	if username == "" {
		// default to the local part of the email
		username, _, _ = strings.Cut(req.Email, "@")
	}

	role := req.Role
	if role == "" {
		role = account.RoleUser
	}

	password := req.Password
	generated := false

	if password == "" {
		raw, err := h.tokens.NewToken()

		if err != nil {
			RespondInternal(ctx, "Could not create account")
			return
		}

		password = raw
		generated = true
	}

	hash, err := security.HashPassword(password)

	if err != nil {
		RespondInternal(ctx, "Could not create account")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	acct, err := h.accounts.Create(cctx, req.Email, username, hash, role)

	if err != nil {
		if errors.Is(err, account.ErrEmailTaken) {
			RespondError(ctx, http.StatusBadRequest, "email_taken", "Email is already in use.", nil)
			return
		}

		RespondInternal(ctx, "Could not create account")
		return
	}

	resp := gin.H{
		"id":       acct.ID,
		"email":    acct.Email,
		"username": acct.Username,
		"role":     acct.Role,
	}

	// a generated password is shown exactly once, here
	if generated {
		resp["password"] = password
	}

	ctx.JSON(http.StatusCreated, resp)
}
