package handlers

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxUploadSize = 5 << 20 // 5MB per file

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// UploadHandler stores image files under a base directory on local disk.
type UploadHandler struct {
	baseDir string
}

func NewUploadHandler(baseDir string) *UploadHandler {
	return &UploadHandler{baseDir: baseDir}
}

func (h *UploadHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/upload/image", h.HandleUploadImage)
	router.Post("/upload/images", h.HandleUploadImages)
	router.Delete("/upload/image", h.HandleDeleteImage)
}

func (h *UploadHandler) HandleUploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  fiber.Map{"image": "an image file is required"},
		})
	}

	folder := sanitizeFolder(c.FormValue("folder", "images"))

	stored, err := h.saveImage(c, file, folder)
	if err != nil {
		if vErr, ok := err.(*uploadValidationError); ok {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message": "Validation error",
				"errors":  fiber.Map{"image": vErr.reason},
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Error uploading image",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Image uploaded successfully",
		"url":     "/" + stored,
		"path":    stored,
	})
}

func (h *UploadHandler) HandleUploadImages(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  fiber.Map{"images": "at least one image file is required"},
		})
	}

	files := form.File["images"]
	if len(files) == 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  fiber.Map{"images": "at least one image file is required"},
		})
	}
	if len(files) > 10 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  fiber.Map{"images": "a maximum of 10 images may be uploaded at once"},
		})
	}

	folder := sanitizeFolder(c.FormValue("folder", "images"))

	uploaded := make([]fiber.Map, 0, len(files))
	for _, file := range files {
		stored, err := h.saveImage(c, file, folder)
		if err != nil {
			if vErr, ok := err.(*uploadValidationError); ok {
				return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
					"message": "Validation error",
					"errors":  fiber.Map{"images": fmt.Sprintf("%s: %s", file.Filename, vErr.reason)},
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Error uploading images",
				"error":   err.Error(),
			})
		}
		uploaded = append(uploaded, fiber.Map{
			"url":  "/" + stored,
			"path": stored,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Images uploaded successfully",
		"images":  uploaded,
	})
}

type deleteImageRequest struct {
	Path string `json:"path"`
}

func (h *UploadHandler) HandleDeleteImage(c *fiber.Ctx) error {
	var req deleteImageRequest
	if err := c.BodyParser(&req); err != nil || req.Path == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  fiber.Map{"path": "the path field is required"},
		})
	}

	// Only the folder/filename portion is honored, so a crafted path
	// cannot escape the upload directory.
	rel := filepath.Join(sanitizeFolder(filepath.Dir(req.Path)), filepath.Base(req.Path))
	target := filepath.Join(h.baseDir, rel)

	if _, err := os.Stat(target); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Image not found",
		})
	}

	if err := os.Remove(target); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Error deleting image",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{"message": "Image deleted successfully"})
}

type uploadValidationError struct {
	reason string
}

func (e *uploadValidationError) Error() string { return e.reason }

func (h *UploadHandler) saveImage(c *fiber.Ctx, file *multipart.FileHeader, folder string) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExtensions[ext] {
		return "", &uploadValidationError{reason: "file must be a jpeg, png, jpg, gif or webp image"}
	}
	if file.Size > maxUploadSize {
		return "", &uploadValidationError{reason: "file may not be larger than 5MB"}
	}

	dir := filepath.Join(h.baseDir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	filename := uuid.New().String() + ext
	if err := c.SaveFile(file, filepath.Join(dir, filename)); err != nil {
		return "", err
	}

	return filepath.ToSlash(filepath.Join(folder, filename)), nil
}

// sanitizeFolder reduces a client supplied folder name to a single safe
// path segment.
func sanitizeFolder(folder string) string {
	folder = filepath.Base(filepath.Clean(folder))
	if folder == "." || folder == ".." || folder == string(filepath.Separator) || folder == "" {
		return "images"
	}
	return folder
}
