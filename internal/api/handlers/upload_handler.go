package handlers

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ChengYu2002/juxin-website-backend/internal/config"
	"github.com/ChengYu2002/juxin-website-backend/internal/storage"
	"github.com/ChengYu2002/juxin-website-backend/internal/tasks"
)

// extByMime is also the MIME whitelist for product images.
var extByMime = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// UploadHandler handles admin image uploads to the object store.
type UploadHandler struct {
	cfg        *config.Config
	storage    storage.IObjectStorage
	taskClient IAsynqClient
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(cfg *config.Config, store storage.IObjectStorage, taskClient IAsynqClient) *UploadHandler {
	return &UploadHandler{cfg: cfg, storage: store, taskClient: taskClient}
}

// Upload handles POST /api/admin/uploads (multipart field "image").
func (h *UploadHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "missing image file"})
		return
	}

	maxBytes := int64(h.cfg.ImageMaxSizeMB) * 1024 * 1024
	if fileHeader.Size > maxBytes {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": fmt.Sprintf("image exceeds %dMB limit", h.cfg.ImageMaxSizeMB)})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unreadable image file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil || int64(len(data)) > maxBytes {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unreadable image file"})
		return
	}

	// Sniff the content type rather than trusting the client header.
	contentType := http.DetectContentType(data)
	ext, allowed := extByMime[contentType]
	if !allowed {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unsupported image type"})
		return
	}

	key := fmt.Sprintf("products/%s.%s", uuid.NewString(), ext)
	if err := h.storage.Upload(c.Request.Context(), key, data, contentType); err != nil {
		log.Printf("Failed to upload image %s: %v", key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "upload failed"})
		return
	}

	// Normalize oversized images in the background; the admin UI gets the
	// final URL immediately since the key never changes.
	task, err := tasks.NewImageNormalizeTask(key)
	if err == nil {
		_, err = h.taskClient.EnqueueContext(context.Background(), task, asynq.Queue("images"))
	}
	if err != nil {
		log.Printf("Failed to enqueue image normalization for %s: %v", key, err)
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "key": key, "url": h.storage.PublicURL(key)})
}

type deleteUploadRequest struct {
	URL string `json:"url"`
}

// Delete handles DELETE /api/admin/uploads with body {url}.
func (h *UploadHandler) Delete(c *gin.Context) {
	var req deleteUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "bad request"})
		return
	}

	key, err := h.storage.KeyFromURL(req.URL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	if err := h.storage.Delete(c.Request.Context(), key); err != nil {
		log.Printf("Failed to delete image %s: %v", key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
