package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fixmyarea-be/apperrors"
	"fixmyarea-be/storage"
)

type FileController struct {
	photos storage.PhotoStore
	log    *zap.Logger
}

func NewFileController(photos storage.PhotoStore, log *zap.Logger) *FileController {
	return &FileController{photos: photos, log: log}
}

// Get handles GET /api/files/:id and streams the stored photo.
func (h *FileController) Get(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	obj, err := h.photos.Open(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(c, h.log, apperrors.NotFound("Photo"))
			return
		}
		respondError(c, h.log, apperrors.Upstream("Failed to open photo", err))
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Header("Content-Type", contentType)
	if obj.Size > 0 {
		c.Header("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, obj.Body); err != nil {
		h.log.Warn("Photo stream interrupted", zap.String("id", c.Param("id")), zap.Error(err))
	}
}
