package handler

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oekaki-dex/backend/internal/common"
	"github.com/oekaki-dex/backend/pkg/storage"
)

// ImageHandler serves stored image blobs by relative path
type ImageHandler struct {
	media *storage.LocalStore
}

// NewImageHandler creates a new ImageHandler
func NewImageHandler(media *storage.LocalStore) *ImageHandler {
	return &ImageHandler{media: media}
}

// Serve streams an image file from the media root
// GET /images/*filepath
func (h *ImageHandler) Serve(c *gin.Context) {
	relPath := strings.TrimPrefix(c.Param("filepath"), "/")

	abs, err := h.media.Resolve(relPath)
	if err != nil {
		common.ErrorResponse(c, http.StatusForbidden, "forbidden", err)
		return
	}

	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		common.ErrorResponse(c, http.StatusNotFound, "Image not found", nil)
		return
	}

	c.File(abs)
}
