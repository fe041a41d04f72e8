package common

import (
	"github.com/gin-gonic/gin"

	pkglogger "github.com/oekaki-dex/backend/pkg/logger"
)

// ErrorResponse returns an error JSON response in the dex wire format
// ({"error": "<message>"}) and logs the underlying error when present.
func ErrorResponse(c *gin.Context, status int, message string, err error) {
	if err != nil {
		pkglogger.GetLogger().Error().
			Err(err).
			Int("status", status).
			Str("path", c.Request.URL.Path).
			Msg(message)
	}
	c.JSON(status, gin.H{"error": message})
}

// SuccessResponse returns a successful JSON response with the given payload
func SuccessResponse(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}
