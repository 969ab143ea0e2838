package handler

import (
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/classlens/engagement-backend-go/internal/storage"
	"github.com/classlens/engagement-backend-go/pkg/response"
)

// FileHandler streams blobs referenced by signed download tokens
type FileHandler struct {
	blobs  storage.BlobStore
	signer *storage.URLSigner
}

// NewFileHandler creates a new file handler
func NewFileHandler(blobs storage.BlobStore, signer *storage.URLSigner) *FileHandler {
	return &FileHandler{blobs: blobs, signer: signer}
}

// Download verifies the token and streams the blob it grants. The route
// itself is unauthenticated: possession of an unexpired token is the
// credential.
// GET /api/files/:token
func (h *FileHandler) Download(c *gin.Context) {
	bucket, key, err := h.signer.Verify(c.Param("token"))
	if err != nil {
		response.Error(c, http.StatusForbidden, "Invalid or expired download link")
		return
	}

	blob, size, err := h.blobs.Open(bucket, key)
	if err != nil {
		response.NotFound(c, "File not found")
		return
	}
	defer blob.Close()

	c.Header("Content-Length", strconv.FormatInt(size, 10))
	c.Header("Content-Type", contentType(key))
	c.Header("Content-Disposition", `attachment; filename="`+path.Base(key)+`"`)
	c.Status(http.StatusOK)
	io.Copy(c.Writer, blob)
}

func contentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".csv":
		return "text/csv"
	case ".mp4", ".mov", ".mkv", ".avi":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}
