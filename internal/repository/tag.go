package repository

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
)

// TagRepository aggregates tags over published posts.
type TagRepository interface {
	Popular(ctx context.Context, limit int) ([]models.TagCount, error)
	PostsByTag(ctx context.Context, tag string, limit, offset int) ([]*models.Post, int64, error)
}

type tagRepository struct {
	db    *gorm.DB
	posts *postRepository
}

// NewTagRepository creates a new TagRepository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db, posts: &postRepository{db: db, log: observability.NewRepoLogger("posts")}}
}

// Popular counts published posts per tag, most used first. Equal counts are
// ordered by tag so results are reproducible.
func (r *tagRepository) Popular(ctx context.Context, limit int) ([]models.TagCount, error) {
	defer observability.TrackQuery("popular", "post_tags")()

	out := []models.TagCount{}
	err := r.db.WithContext(ctx).
		Table("post_tags").
		Select("post_tags.tag AS tag, COUNT(*) AS count").
		Joins("JOIN posts ON posts.id = post_tags.post_id").
		Where("posts.published = ?", true).
		Group("post_tags.tag").
		Order("count DESC, tag ASC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

const hasTagClause = "EXISTS (SELECT 1 FROM post_tags WHERE post_tags.post_id = posts.id AND post_tags.tag = ?)"

// PostsByTag returns one page of published posts carrying tag, newest first,
// and the total number of such posts.
func (r *tagRepository) PostsByTag(ctx context.Context, tag string, limit, offset int) ([]*models.Post, int64, error) {
	defer observability.TrackQuery("posts_by_tag", "posts")()

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("posts.published = ?", true).
		Where(hasTagClause, tag).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*models.Post{}, 0, nil
	}

	q := withPostDetails(r.db.WithContext(ctx), "").
		Where("posts.published = ?", true).
		Where(hasTagClause, tag)
	posts, err := r.posts.list(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, total, nil
}
