package server

import (
	"net/url"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPopularTags handles GET /api/tags/popular?limit=N
func (s *Server) GetPopularTags(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", service.DefaultPopularTags)
	return c.JSON(s.tagService.PopularTags(c.UserContext(), limit))
}

// GetPostsByTag handles GET /api/tags/:tag?page=N&pageSize=M. Pages past the
// last one are 404, except the first page of an unused tag.
func (s *Server) GetPostsByTag(c *fiber.Ctx) error {
	raw, err := url.PathUnescape(c.Params("tag"))
	if err != nil {
		raw = c.Params("tag")
	}
	tag := strings.ToLower(strings.TrimSpace(raw))
	if tag == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Tag is required"))
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := c.QueryInt("pageSize", service.DefaultTagPageSize)

	result := s.tagService.PostsByTag(c.UserContext(), tag, page, pageSize)
	if page > 1 && len(result.Posts) == 0 {
		return models.RespondWithError(c, fiber.StatusNotFound,
			&models.AppError{Code: models.CodeNotFound, Message: "Page not found"})
	}
	return c.JSON(result)
}
