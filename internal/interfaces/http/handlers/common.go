// internal/interfaces/http/handlers/common.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-api/internal/pkg/apperr"
)

// respondError writes the HTTP response for a service error, mapping
// the error kind to the matching status code.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := apperr.Message(err)

	switch apperr.KindOf(err) {
	case apperr.KindInvalid:
		status = http.StatusBadRequest
	case apperr.KindUnauthorized:
		status = http.StatusUnauthorized
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	default:
		// Do not leak internal error details to clients
		message = "Internal server error"
	}

	c.JSON(status, gin.H{
		"error": message,
	})
}

// respondBindError writes a 400 response for malformed request payloads
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"details": err.Error(),
	})
}
