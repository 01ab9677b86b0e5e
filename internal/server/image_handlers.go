package server

import (
	"io"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

const imageCacheControl = "public, max-age=31536000, immutable"

// UploadImage handles POST /api/images with the image in the "file" form field.
func (s *Server) UploadImage(c *fiber.Ctx) error {
	in := service.UploadImageInput{}

	// A missing part reaches the service as an empty upload (NO_FILE).
	if file, err := c.FormFile("file"); err == nil {
		src, err := file.Open()
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Unable to read uploaded file"))
		}
		defer func() { _ = src.Close() }()

		content, err := io.ReadAll(src)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Unable to read uploaded file"))
		}
		in.Filename = file.Filename
		in.ContentType = file.Header.Get("Content-Type")
		in.Content = content
	}

	img, err := s.imageService.Upload(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"id":      img.ID,
		"url":     s.imageService.URL(img.ID),
	})
}

// GetImage handles GET /api/images/:id
func (s *Server) GetImage(c *fiber.Ctx) error {
	img, err := s.imageService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, img.ContentType)
	c.Set(fiber.HeaderCacheControl, imageCacheControl)
	return c.Status(fiber.StatusOK).Send(img.Data)
}
