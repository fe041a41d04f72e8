package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oekaki-dex/backend/internal/common"
	"github.com/oekaki-dex/backend/internal/service"
)

const defaultListLimit = 20

// DexHandler handles the dex API endpoints
type DexHandler struct {
	dexService *service.DexService
}

// NewDexHandler creates a new DexHandler
func NewDexHandler(dexService *service.DexService) *DexHandler {
	return &DexHandler{dexService: dexService}
}

// Upload handles a drawing submission
// POST /api/upload
func (h *DexHandler) Upload(c *gin.Context) {
	name := c.PostForm("name")
	hint := c.PostForm("hint")
	imageData := c.PostForm("imageData")

	entry, err := h.dexService.Submit(c.Request.Context(), name, hint, imageData)
	if err != nil {
		if errors.Is(err, common.ErrInvalidInput) {
			common.ErrorResponse(c, http.StatusBadRequest, common.ErrInvalidInput.Error(), nil)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, err.Error(), err)
		return
	}

	common.SuccessResponse(c, http.StatusOK, entry)
}

// List returns catalog entries, newest first
// GET /api/entries?limit=N
func (h *DexHandler) List(c *gin.Context) {
	limit := defaultListLimit
	if raw, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "limit must be an integer", nil)
			return
		}
		limit = n
	}

	entries, err := h.dexService.List(limit)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, err.Error(), err)
		return
	}

	common.SuccessResponse(c, http.StatusOK, entries)
}

// Delete removes an entry and its backing image
// DELETE /api/entries/:id
func (h *DexHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.dexService.Delete(id); err != nil {
		if errors.Is(err, common.ErrEntryNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, "Entry not found", nil)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, err.Error(), err)
		return
	}

	common.SuccessResponse(c, http.StatusOK, gin.H{"success": true, "id": id})
}
