package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

// BlobHandler serves uploaded photos back to their owner.
type BlobHandler struct {
	blobs domain.BlobStore
}

func NewBlobHandler(blobs domain.BlobStore) *BlobHandler {
	return &BlobHandler{blobs: blobs}
}

func (h *BlobHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/blobs/*key", h.Get)
}

func (h *BlobHandler) Get(c *gin.Context) {
	uid, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	key := strings.TrimPrefix(c.Param("key"), "/")
	// Foreign keys look exactly like missing ones.
	if repository.BlobOwner(key) != uid {
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
		return
	}

	blob, err := h.blobs.Open(c.Request.Context(), key)
	if err != nil {
		handleError(c, err)
		return
	}

	c.Header("Cache-Control", "private, max-age=86400")
	c.Data(http.StatusOK, blob.ContentType, blob.Data)
}
