package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/oekaki-dex/backend/internal/handler"
)

// Setup configures all API routes
func Setup(
	router *gin.Engine,
	dexHandler *handler.DexHandler,
	imageHandler *handler.ImageHandler,
) {
	api := router.Group("/api")
	api.POST("/upload", dexHandler.Upload)
	api.GET("/entries", dexHandler.List)
	api.DELETE("/entries/:id", dexHandler.Delete)

	router.GET("/images/*filepath", imageHandler.Serve)
}
