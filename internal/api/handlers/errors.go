package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/warden/backend/internal/api/middleware"
	"github.com/Wikid82/warden/backend/internal/services"
)

// respondError maps service errors to a status code and a JSON error body.
// Internal failures are logged and reported without detail.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": publicMessage(err, services.ErrValidation)})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": publicMessage(err, services.ErrNotFound)})
	default:
		middleware.GetRequestLogger(c).WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// publicMessage drops the error class prefix, e.g. "not found: IP not found"
// becomes "IP not found".
func publicMessage(err, class error) string {
	return strings.TrimPrefix(err.Error(), class.Error()+": ")
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
