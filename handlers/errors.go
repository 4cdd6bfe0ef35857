package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arsipku/arsipku/internal/apperr"
	"github.com/arsipku/arsipku/pkg/logger"
)

// writeError maps service error kinds onto HTTP statuses. Unclassified
// errors are logged and hidden behind a generic 500.
func writeError(c *gin.Context, err error) {
	switch {
	case apperr.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperr.IsAuthentication(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case apperr.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperr.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Errorf("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
