package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tracker000/gridtrack/internal/cache"
	"github.com/tracker000/gridtrack/internal/config"
	"github.com/tracker000/gridtrack/internal/domain/grid"
	"github.com/tracker000/gridtrack/internal/observability"
)

type CellStore interface {
	Upsert(ctx context.Context, managerID string, row, col int, value string) (grid.Cell, error)
	List(ctx context.Context, managerID string) ([]grid.Cell, error)
}

type CellsHandler struct {
	cells CellStore
	cache cache.Store
	prom  *observability.Prom
}

func NewCellsHandler(cells CellStore, cacheStore cache.Store, prom *observability.Prom) *CellsHandler {
	return &CellsHandler{
		cells: cells,
		cache: cacheStore,
		prom:  prom,
	}
}

// Row and Col bind through pointers so 0 survives the required check.
type SaveCellRequest struct {
	ManagerID string `json:"managerId" binding:"required,uuid"`
	Row       *int   `json:"row" binding:"required,gte=0"`
	Col       *int   `json:"col" binding:"required,gte=0"`
	Content   string `json:"content" binding:"max=255"`
}

const cellsCacheKeyAll = "cells:all"

func cellsCacheKey(managerID string) string {
	if managerID == "" {
		return cellsCacheKeyAll
	}

	return "cells:" + managerID
}

// SaveCell upserts one cell. Writing the same coordinates again replaces the
// value; there is no separate create vs update path.
func (h *CellsHandler) SaveCell(ctx *gin.Context) {
	var req SaveCellRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	start := time.Now()

	_, err := h.cells.Upsert(cctx, req.ManagerID, *req.Row, *req.Col, req.Content)

	h.prom.ObserveStoreOp("cells.upsert", start, err)

	if err != nil {
		if errors.Is(err, grid.ErrManagerNotFound) {
			RespondError(ctx, http.StatusBadRequest, "manager_not_found", "Unknown managerId.", nil)
			return
		}

		RespondInternal(ctx, "Could not save cell")
		return
	}

	// drop the cached listings this write staled
	h.cache.Delete(cctx, cellsCacheKeyAll)
	h.cache.Delete(cctx, cellsCacheKey(req.ManagerID))

	ctx.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// ListCells serves the full grid, optionally narrowed to one manager via the
// managerId query param. Listings are cached as marshalled bytes and served
// with an ETag so unchanged polls cost a 304.
func (h *CellsHandler) ListCells(ctx *gin.Context) {
	managerID := ctx.Query("managerId")
	key := cellsCacheKey(managerID)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if body, ok := h.cache.Get(cctx, key); ok {
		h.prom.CacheHits.Inc()
		RespondRawJSONWithETag(ctx, http.StatusOK, body)
		return
	}

	h.prom.CacheMisses.Inc()

	start := time.Now()

	cells, err := h.cells.List(cctx, managerID)

	h.prom.ObserveStoreOp("cells.list", start, err)

	if err != nil {
		RespondInternal(ctx, "Could not list cells")
		return
	}

	body, err := json.Marshal(gin.H{"cells": cells})

	if err != nil {
		RespondInternal(ctx, "Could not list cells")
		return
	}

	h.cache.Set(cctx, key, body)

	RespondRawJSONWithETag(ctx, http.StatusOK, body)
}
