package repository

import (
	"context"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const searchClause = `(LOWER(posts.title) LIKE ? ESCAPE '\'` +
	` OR LOWER(posts.content) LIKE ? ESCAPE '\'` +
	` OR LOWER(posts.excerpt) LIKE ? ESCAPE '\'` +
	` OR EXISTS (SELECT 1 FROM post_tags WHERE post_tags.post_id = posts.id AND post_tags.tag LIKE ? ESCAPE '\'))`

// Search returns published posts whose title, content, excerpt or any tag
// contains query case-insensitively, newest first. The query is matched
// literally; LIKE wildcards in it are escaped.
func (r *postRepository) Search(ctx context.Context, query string, limit int) ([]*models.Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*models.Post{}, nil
	}

	span, ctx := observability.StartRepositorySpan(ctx, "Search", "posts")
	defer span.End()
	span.AddAttributes(attribute.Int("search.limit", limit))
	defer observability.TrackQuery("search", "posts")()

	pattern := containsPattern(query)
	q := withPostDetails(r.db.WithContext(ctx), "").
		Where("posts.published = ?", true).
		Where(searchClause, pattern, pattern, pattern, pattern)

	posts, err := r.list(ctx, q, limit, 0)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return posts, nil
}
