package handler

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"toolcrib/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// uploadDir resolves the base directory for stored files. Relative paths are
// allowed so dev setups work without configuration.
func uploadDir() string {
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		return dir
	}
	return "./uploads"
}

// saveUpload stores a multipart file under <uploadDir>/<subdir>/ with a
// collision-proof name and returns the path relative to the upload root; that
// relative path is what records persist and what DownloadFile resolves. The
// original filename is kept only as a sanitized suffix.
func saveUpload(c *gin.Context, file *multipart.FileHeader, subdir string) (string, error) {
	base := filepath.Base(file.Filename)
	base = strings.ReplaceAll(base, " ", "_")

	dir := filepath.Join(uploadDir(), subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to prepare upload dir: %w", err)
	}

	name := fmt.Sprintf("%d_%s_%s", time.Now().Unix(), uuid.NewString()[:8], base)
	if err := c.SaveUploadedFile(file, filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}

	return filepath.Join(subdir, name), nil
}

// DownloadFile serves a stored upload (order documents, calibration
// certificates) by its relative path. Requests that try to escape the upload
// root are rejected.
// @Summary      Download a stored attachment
// @Tags         files
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        path  path      string  true  "Stored file path"
// @Failure      404   {object}  response.Response
// @Router       /files/{path} [get]
func DownloadFile(c *gin.Context) {
	rel := filepath.Clean(strings.TrimPrefix(c.Param("path"), "/"))
	if rel == "." || strings.HasPrefix(rel, "..") {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid file path"))
		return
	}

	full := filepath.Join(uploadDir(), rel)
	if _, err := os.Stat(full); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "file not found"))
		return
	}

	c.File(full)
}
