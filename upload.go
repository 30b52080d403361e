package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"medicare-api/models"
	"medicare-api/service"
)

const maxLicenseSize = 5 * 1024 * 1024

var allowedLicenseTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

// uploadLicenseHandler accepts a license document during doctor registration.
// The file is validated before anything touches disk: a rejected file leaves
// no storage side effect.
func (a *api) uploadLicenseHandler(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		a.respondError(c, &service.StorageError{Message: "file missing"})
		return
	}
	if file.Size > maxLicenseSize {
		a.respondError(c, &service.StorageError{Message: "file too large (max 5MB)"})
		return
	}
	contentType := strings.TrimSpace(strings.Split(file.Header.Get("Content-Type"), ";")[0])
	ext, ok := allowedLicenseTypes[contentType]
	if !ok {
		a.respondError(c, &service.StorageError{Message: "unsupported file type (pdf, jpeg or png only)"})
		return
	}

	storedName := uuid.NewString() + ext
	dir := a.cfg.LicenseDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		a.respondError(c, fmt.Errorf("create license dir: %w", err))
		return
	}
	fullPath := filepath.Join(dir, storedName)
	if err := c.SaveUploadedFile(file, fullPath); err != nil {
		a.respondError(c, fmt.Errorf("save upload: %w", err))
		return
	}

	storePath := filepath.ToSlash(filepath.Join("licenses", storedName))
	up := &models.Upload{
		FileName:    filepath.Base(file.Filename),
		StoredName:  storedName,
		StorePath:   storePath,
		ContentType: contentType,
		Size:        file.Size,
	}
	if err := a.uploads.Create(c.Request.Context(), up); err != nil {
		// Keep the store consistent with the table.
		_ = os.Remove(fullPath)
		a.respondError(c, fmt.Errorf("record upload: %w", err))
		return
	}
	a.log.Info("license uploaded", zap.String("stored_name", storedName), zap.Int64("size", file.Size))

	respondOK(c, "file uploaded", gin.H{
		"filePath": storePath,
		"fileName": up.FileName,
		"fileSize": file.Size,
		"mimeType": contentType,
	})
}
