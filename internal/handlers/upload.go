package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	folderPayments = "payments"
	folderMisc     = "misc"
)

var (
	unsafeFilename = regexp.MustCompile(`[^\w\-.]`)

	uploadFolders = map[string]bool{
		"products":     true,
		"banners":      true,
		"offers":       true,
		"categories":   true,
		folderPayments: true,
		folderMisc:     true,
	}

	imageTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/gif":  ".gif",
		"image/webp": ".webp",
	}
)

// UploadHandler stores images on local disk and returns their public URLs.
type UploadHandler struct {
	dir      string
	baseURL  string
	maxBytes int64
	now      func() time.Time
}

// NewUploadHandler constructs UploadHandler. Files are written below dir and
// served from baseURL + "/uploads".
func NewUploadHandler(dir, baseURL string, maxBytes int64) *UploadHandler {
	return &UploadHandler{
		dir:      dir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

// Upload accepts an admin image upload into the requested folder.
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	folder := strings.ToLower(strings.TrimSpace(c.FormValue("folder", folderMisc)))
	if !uploadFolders[folder] {
		return fiber.NewError(fiber.StatusBadRequest, "unknown upload folder")
	}
	return h.save(c, folder)
}

// UploadScreenshot accepts a shopper's payment screenshot.
func (h *UploadHandler) UploadScreenshot(c *fiber.Ctx) error {
	return h.save(c, folderPayments)
}

func (h *UploadHandler) save(c *fiber.Ctx, folder string) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "file is required")
	}
	if fileHeader.Size > h.maxBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds %d MB limit", h.maxBytes>>20))
	}

	ext, err := detectImage(fileHeader)
	if err != nil {
		return err
	}

	dir := filepath.Join(h.dir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	name := h.filename(fileHeader.Filename, ext)
	if err := c.SaveFile(fileHeader, filepath.Join(dir, name)); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/uploads/%s/%s", h.baseURL, folder, name)
	log.Info().Str("folder", folder).Str("file", name).Int64("bytes", fileHeader.Size).Msg("file uploaded")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"url":      url,
			"filename": name,
			"size":     fileHeader.Size,
		},
	})
}

// filename builds a unique, filesystem-safe name that keeps a readable part
// of the original.
func (h *UploadHandler) filename(original, ext string) string {
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	base = unsafeFilename.ReplaceAllString(strings.ReplaceAll(base, " ", "_"), "")
	if len(base) > 40 {
		base = base[:40]
	}
	if base == "" {
		base = "file"
	}
	return fmt.Sprintf("%d_%s_%s%s", h.now().Unix(), uuid.NewString()[:8], base, ext)
}

// detectImage sniffs the upload and returns the extension for its type.
func detectImage(fileHeader *multipart.FileHeader) (string, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}

	ext, ok := imageTypes[http.DetectContentType(head[:n])]
	if !ok {
		return "", fiber.NewError(fiber.StatusUnsupportedMediaType, "only jpeg, png, gif and webp images are allowed")
	}
	return ext, nil
}
