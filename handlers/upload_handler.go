package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"knowme/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxUploadSize = 5 << 20 // 5 MB

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type UploadHandler struct {
	media storage.MediaStore
}

func NewUploadHandler(media storage.MediaStore) *UploadHandler {
	return &UploadHandler{media: media}
}

// Upload accepts one multipart image and stores it under a random
// object name, so uploads can never collide or overwrite each other.
func (h *UploadHandler) Upload(c *gin.Context) {
	if h.media == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Image uploads are not configured"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	if fileHeader.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large (max 5 MB)"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	ext, ok := allowedImageTypes[strings.ToLower(contentType)]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported file type, expected an image"})
		return
	}
	if e := strings.ToLower(filepath.Ext(fileHeader.Filename)); e != "" {
		ext = e
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read uploaded file"})
		return
	}
	defer file.Close()

	objectName := uuid.New().String() + ext
	imageURL, err := h.media.Upload(c.Request.Context(), objectName, file, fileHeader.Size, contentType)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"image_url": imageURL})
}
