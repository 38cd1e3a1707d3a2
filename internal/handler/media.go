package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Pauline-WN/AjaliApp/internal/service"
	"github.com/Pauline-WN/AjaliApp/internal/storage"
)

// multipartOverhead is allowed on top of the file limit for boundaries and
// part headers.
const multipartOverhead = 1 << 20

type MediaHandler interface {
	UploadMedia(c *gin.Context)
}

type mediaHandler struct {
	media    service.MediaService
	maxBytes int64
	logger   *zap.Logger
}

func NewMediaHandler(media service.MediaService, maxBytes int64, logger *zap.Logger) MediaHandler {
	if maxBytes <= 0 {
		maxBytes = service.DefaultMaxUploadBytes
	}
	return &mediaHandler{media: media, maxBytes: maxBytes, logger: logger}
}

// UploadMedia handles POST /incidents/:id/:mediaType with a multipart "file".
func (h *mediaHandler) UploadMedia(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	mediaType := c.Param("mediaType")
	if _, err := service.ParseMediaType(mediaType); err != nil {
		respondError(c, h.logger, err, "Invalid media type")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "File too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": "No file provided"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		h.logger.Error("Failed to read upload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "Failed to read file"})
		return
	}

	attachment, err := h.media.Attach(c.Request.Context(), id, mediaType, data, header.Filename)
	if err != nil {
		respondError(c, h.logger, err, "Error uploading "+mediaType)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": capitalize(string(attachment.MediaType)) + " uploaded successfully",
		"url":     attachment.URL,
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ServeUpload handles GET /uploads/:filename for the local blob store.
func ServeUpload(store *storage.LocalStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		path, err := store.Open(c.Param("filename"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "File not found"})
			return
		}
		c.File(path)
	}
}
