package service

import (
	"context"
	"log/slog"
	"strings"

	"inkwell/internal/cache"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"
)

// AuthorService keeps the author directory in sync with token claims and
// resolves display info for posts.
type AuthorService struct {
	repo repository.AuthorRepository
}

func NewAuthorService(repo repository.AuthorRepository) *AuthorService {
	return &AuthorService{repo: repo}
}

// Remember records the caller's current display identity. Failures are logged
// and otherwise ignored.
func (s *AuthorService) Remember(ctx context.Context, id models.Identity) {
	if s == nil || s.repo == nil || id.UserID == "" {
		return
	}
	author := &models.Author{
		ID:          id.UserID,
		DisplayName: id.DisplayName(),
		ImageURL:    strings.TrimSpace(id.ImageURL),
	}
	if err := s.repo.Upsert(ctx, author); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to refresh author",
			slog.String("author_id", id.UserID), slog.String("error", err.Error()))
		return
	}
	cache.InvalidateAuthor(ctx, id.UserID)
}

// Resolve returns display info for every id. Unknown ids and lookup failures
// resolve to the placeholder author.
func (s *AuthorService) Resolve(ctx context.Context, ids []string) map[string]*models.AuthorInfo {
	out := make(map[string]*models.AuthorInfo, len(ids))
	var missing []string
	for _, id := range ids {
		if _, seen := out[id]; seen || id == "" {
			continue
		}
		var info models.AuthorInfo
		if found, err := cache.GetJSON(ctx, cache.AuthorKey(id), &info); err == nil && found {
			out[id] = &info
			continue
		}
		out[id] = models.UnknownAuthor(id)
		missing = append(missing, id)
	}
	if len(missing) == 0 || s == nil || s.repo == nil {
		return out
	}

	authors, err := s.repo.GetByIDs(ctx, missing)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "author lookup failed",
			slog.Int("count", len(missing)), slog.String("error", err.Error()))
		return out
	}
	for id, author := range authors {
		info := author.Info()
		out[id] = info
		if err := cache.SetJSON(ctx, cache.AuthorKey(id), info, cache.AuthorTTL); err != nil {
			middleware.Logger.WarnContext(ctx, "cache write failed",
				slog.String("key", cache.AuthorKey(id)), slog.String("error", err.Error()))
		}
	}
	return out
}

// Attach sets Author on each post.
func (s *AuthorService) Attach(ctx context.Context, posts ...*models.Post) {
	if len(posts) == 0 {
		return
	}
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.AuthorID)
	}
	infos := s.Resolve(ctx, ids)
	for _, p := range posts {
		if info, ok := infos[p.AuthorID]; ok {
			p.Author = info
		} else {
			p.Author = models.UnknownAuthor(p.AuthorID)
		}
	}
}
