package server

import (
	"log/slog"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListPosts handles GET /api/posts
func (s *Server) ListPosts(c *fiber.Ctx) error {
	page := parsePagination(c, service.DefaultListLimit)
	posts := s.postService.ListPublished(c.UserContext(), page.Limit, page.Offset, middleware.UserID(c))
	return c.JSON(posts)
}

// SearchPosts handles GET /api/posts/search?q=...
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	return c.JSON(s.postService.Search(c.UserContext(), c.Query("q")))
}

// GetPostBySlug handles GET /api/posts/slug/:slug and counts the view.
// Authors reading their own post are not counted.
func (s *Server) GetPostBySlug(c *fiber.Ctx) error {
	ctx := c.UserContext()
	viewer := middleware.UserID(c)

	post, err := s.postService.GetBySlug(ctx, c.Params("slug"), viewer)
	if err != nil {
		return respondServiceError(c, err)
	}

	if post.Published && post.AuthorID != viewer {
		if err := s.postService.IncrementViews(ctx, post.ID); err != nil {
			middleware.Logger.WarnContext(ctx, "view count not recorded",
				slog.Uint64("post_id", uint64(post.ID)), slog.String("error", err.Error()))
		}
	}

	return c.JSON(post)
}

// ListMyPosts handles GET /api/posts/mine
func (s *Server) ListMyPosts(c *fiber.Ctx) error {
	posts, err := s.postService.ListMine(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// GetDashboardStats handles GET /api/posts/stats
func (s *Server) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := s.postService.DashboardStats(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(stats)
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	author, err := requireIdentity(c)
	if err != nil {
		return nil
	}

	var req service.PostInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.UserContext(), author, req)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"postId":  post.ID,
		"slug":    post.Slug,
	})
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	author, err := requireIdentity(c)
	if err != nil {
		return nil
	}
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req service.PostInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.UpdatePost(c.UserContext(), author, postID, req)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"postId":  post.ID,
		"slug":    post.Slug,
	})
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), middleware.UserID(c), postID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// PublishPost handles POST /api/posts/:id/publish and redirects the author
// back to their dashboard.
func (s *Server) PublishPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.postService.PublishPost(c.UserContext(), middleware.UserID(c), postID); err != nil {
		return respondServiceError(c, err)
	}
	return c.Redirect(s.config.DashboardPath, fiber.StatusSeeOther)
}

// LikePost handles POST /api/posts/:id/like, toggling the caller's like.
func (s *Server) LikePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.postService.ToggleLike(c.UserContext(), middleware.UserID(c), postID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"liked":   result.Liked,
		"likes":   result.Likes,
	})
}
