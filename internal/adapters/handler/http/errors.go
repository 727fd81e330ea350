package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/services"
)

var badRequestErrors = []error{
	domain.ErrInvalidDate,
	domain.ErrInvalidMonth,
	domain.ErrInvalidYear,
	domain.ErrInvalidWater,
	domain.ErrHabitNameEmpty,
	domain.ErrHabitNameTooLong,
	domain.ErrHabitSubtitleTooLong,
	domain.ErrDisplayNameTooLong,
	domain.ErrInvalidBlobRef,
}

// handleError writes the response for err. Unknown errors are attached to
// the gin context so the request logger records them.
func handleError(c *gin.Context, err error) {
	_ = c.Error(err)

	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			c.JSON(http.StatusBadRequest, gin.H{"error": target.Error()})
			return
		}
	}

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})

	case errors.Is(err, domain.ErrProtectedCategory):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrStartDateInPast), errors.Is(err, domain.ErrInvalidReorder):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrBlobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})

	case errors.Is(err, domain.ErrSessionClosed):
		c.JSON(http.StatusConflict, gin.H{"error": "session closed, please sign in again"})

	case errors.Is(err, domain.ErrPermissionDenied):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": services.MsgWritePermissionDenied})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// handleBlobError reports failures of the photo backend as 502 and
// everything the engine itself rejected like handleError does.
func handleBlobError(c *gin.Context, err error) {
	for _, known := range []error{
		domain.ErrUnauthenticated,
		domain.ErrInvalidDate,
		domain.ErrInvalidBlobRef,
		domain.ErrBlobNotFound,
		domain.ErrSessionClosed,
	} {
		if errors.Is(err, known) {
			handleError(c, err)
			return
		}
	}

	_ = c.Error(err)
	c.JSON(http.StatusBadGateway, gin.H{"error": "photo storage failed", "details": err.Error()})
}
