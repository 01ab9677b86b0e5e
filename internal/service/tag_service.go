package service

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

const (
	DefaultPopularTags = 10
	DefaultTagPageSize = 9
)

// TagService serves tag aggregates. Results are computed per request.
type TagService struct {
	tags    repository.TagRepository
	authors *AuthorService
}

func NewTagService(tags repository.TagRepository, authors *AuthorService) *TagService {
	return &TagService{tags: tags, authors: authors}
}

// PopularTags returns up to limit tags of published posts, most used first.
func (s *TagService) PopularTags(ctx context.Context, limit int) []models.TagCount {
	if limit <= 0 {
		limit = DefaultPopularTags
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	tags, err := s.tags.Popular(ctx, limit)
	if err != nil {
		degraded(ctx, "popular_tags", err)
		return []models.TagCount{}
	}
	if tags == nil {
		return []models.TagCount{}
	}
	return tags
}

// PostsByTag returns one 1-based page of published posts bearing tag plus the
// total number of such posts.
func (s *TagService) PostsByTag(ctx context.Context, tag string, page, pageSize int) *models.TaggedPosts {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultTagPageSize
	}
	if pageSize > MaxListLimit {
		pageSize = MaxListLimit
	}

	posts, total, err := s.tags.PostsByTag(ctx, tag, pageSize, (page-1)*pageSize)
	if err != nil {
		degraded(ctx, "posts_by_tag", err, "tag", tag)
		return &models.TaggedPosts{Posts: []*models.Post{}}
	}
	s.authors.Attach(ctx, posts...)
	return &models.TaggedPosts{Posts: nonNilPosts(posts), TotalPosts: total}
}
