package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	PostSlugKeyPrefix = "post:slug:%s"
	AuthorKeyPrefix   = "author:%s"
)

const (
	PostTTL   = 2 * time.Minute
	AuthorTTL = 10 * time.Minute
)

func PostSlugKey(slug string) string {
	return fmt.Sprintf(PostSlugKeyPrefix, slug)
}

func AuthorKey(authorID string) string {
	return fmt.Sprintf(AuthorKeyPrefix, authorID)
}

// Invalidate deletes keys, ignoring a missing client.
func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidatePost(ctx context.Context, slugs ...string) {
	keys := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		if slug != "" {
			keys = append(keys, PostSlugKey(slug))
		}
	}
	Invalidate(ctx, keys...)
}

func InvalidateAuthor(ctx context.Context, authorID string) {
	Invalidate(ctx, AuthorKey(authorID))
}
