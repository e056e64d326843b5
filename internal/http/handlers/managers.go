package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tracker000/gridtrack/internal/config"
	"github.com/tracker000/gridtrack/internal/domain/grid"
)

type ManagerStore interface {
	Create(ctx context.Context, name string) (grid.Manager, error)
	List(ctx context.Context) ([]grid.Manager, error)
}

type ManagersHandler struct {
	managers ManagerStore
}

func NewManagersHandler(managers ManagerStore) *ManagersHandler {
	return &ManagersHandler{managers: managers}
}

func (h *ManagersHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	managers, err := h.managers.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list managers")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"managers": managers})
}

type AddManagerRequest struct {
	Name string `json:"name" binding:"required,min=1,max=128"`
}

func (h *ManagersHandler) Create(ctx *gin.Context) {
	var req AddManagerRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	mgr, err := h.managers.Create(cctx, req.Name)

	if err != nil {
		RespondInternal(ctx, "Could not create manager")
		return
	}

	ctx.JSON(http.StatusCreated, mgr)
}
