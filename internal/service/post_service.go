package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"inkwell/internal/cache"
	"inkwell/internal/content"
	"inkwell/internal/models"
	"inkwell/internal/repository"
)

const (
	minTitleLen   = 5
	maxTitleLen   = 100
	minContentLen = 50
	minExcerptLen = 10
	maxExcerptLen = 200

	DefaultListLimit = 10
	MaxListLimit     = 100
	SearchLimit      = 10

	maxSlugAttempts = 50
)

type PostService struct {
	posts   repository.PostRepository
	authors *AuthorService
}

// PostInput carries the editable fields of a post.
type PostInput struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Excerpt       string   `json:"excerpt"`
	FeaturedImage string   `json:"featuredImage"`
	Tags          []string `json:"tags"`
	Published     bool     `json:"published"`
}

func NewPostService(posts repository.PostRepository, authors *AuthorService) *PostService {
	return &PostService{posts: posts, authors: authors}
}

// normalize trims fields, derives a blank excerpt from the content and
// validates lengths.
func (in *PostInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Excerpt = strings.TrimSpace(in.Excerpt)
	in.FeaturedImage = strings.TrimSpace(in.FeaturedImage)
	in.Tags = content.NormalizeTags(in.Tags)

	if n := utf8.RuneCountInString(in.Title); n < minTitleLen || n > maxTitleLen {
		return models.NewValidationError(fmt.Sprintf("Title must be between %d and %d characters", minTitleLen, maxTitleLen))
	}
	if utf8.RuneCountInString(in.Content) < minContentLen {
		return models.NewValidationError(fmt.Sprintf("Content must be at least %d characters", minContentLen))
	}
	if in.Excerpt == "" {
		in.Excerpt = content.Excerpt(in.Content, maxExcerptLen)
	}
	if n := utf8.RuneCountInString(in.Excerpt); n < minExcerptLen || n > maxExcerptLen {
		return models.NewValidationError(fmt.Sprintf("Excerpt must be between %d and %d characters", minExcerptLen, maxExcerptLen))
	}
	return nil
}

// uniqueSlug returns base, or base-2, base-3... whichever is free.
func (s *PostService) uniqueSlug(ctx context.Context, base string, excludeID uint) (string, error) {
	candidate := base
	for i := 2; i <= maxSlugAttempts+1; i++ {
		taken, err := s.posts.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", models.NewInternalError(err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", models.NewConflictError("Could not allocate a unique slug", nil)
}

func (s *PostService) CreatePost(ctx context.Context, author models.Identity, in PostInput) (*models.Post, error) {
	if author.UserID == "" {
		return nil, models.NewUnauthorizedError("Unauthorized")
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	slug, err := s.uniqueSlug(ctx, content.SlugOrFallback(in.Title), 0)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:         in.Title,
		Slug:          slug,
		Content:       in.Content,
		Excerpt:       in.Excerpt,
		FeaturedImage: in.FeaturedImage,
		AuthorID:      author.UserID,
		Published:     in.Published,
		Tags:          in.Tags,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, models.NewConflictError("A post with this slug already exists", err)
		}
		return nil, models.NewInternalError(err)
	}
	s.authors.Remember(ctx, author)
	return post, nil
}

// ownedPost loads a post and checks that userID wrote it.
func (s *PostService) ownedPost(ctx context.Context, userID string, postID uint) (*models.Post, error) {
	if userID == "" {
		return nil, models.NewUnauthorizedError("Unauthorized")
	}
	post, err := s.posts.GetByID(ctx, postID, "")
	if err != nil {
		return nil, storeError(err, "Post", postID)
	}
	if post.AuthorID != userID {
		return nil, models.NewUnauthorizedError("Not authorized to modify this post")
	}
	return post, nil
}

func (s *PostService) UpdatePost(ctx context.Context, author models.Identity, postID uint, in PostInput) (*models.Post, error) {
	post, err := s.ownedPost(ctx, author.UserID, postID)
	if err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	oldSlug := post.Slug
	if in.Title != post.Title {
		slug, err := s.uniqueSlug(ctx, content.SlugOrFallback(in.Title), post.ID)
		if err != nil {
			return nil, err
		}
		post.Slug = slug
	}
	post.Title = in.Title
	post.Content = in.Content
	post.Excerpt = in.Excerpt
	post.FeaturedImage = in.FeaturedImage
	post.Tags = in.Tags
	post.Published = in.Published

	if err := s.posts.Update(ctx, post); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, models.NewConflictError("A post with this slug already exists", err)
		}
		return nil, storeError(err, "Post", postID)
	}
	cache.InvalidatePost(ctx, oldSlug, post.Slug)
	s.authors.Remember(ctx, author)
	return post, nil
}

// DeletePost removes the post and every comment on it.
func (s *PostService) DeletePost(ctx context.Context, userID string, postID uint) error {
	post, err := s.ownedPost(ctx, userID, postID)
	if err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, post.ID); err != nil {
		return storeError(err, "Post", postID)
	}
	cache.InvalidatePost(ctx, post.Slug)
	return nil
}

// PublishPost moves a draft to published. Publishing twice is a no-op.
func (s *PostService) PublishPost(ctx context.Context, userID string, postID uint) (*models.Post, error) {
	post, err := s.ownedPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if !post.Published {
		if err := s.posts.SetPublished(ctx, post.ID, true); err != nil {
			return nil, storeError(err, "Post", postID)
		}
		post.Published = true
	}
	cache.InvalidatePost(ctx, post.Slug)
	return post, nil
}

// GetBySlug returns a post for display. Drafts are only visible to their
// author. Anonymous reads are served through the page cache.
func (s *PostService) GetBySlug(ctx context.Context, slug, viewerID string) (*models.Post, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, models.NewValidationError("Slug is required")
	}

	load := func() (*models.Post, error) {
		post, err := s.posts.GetBySlug(ctx, slug, viewerID)
		if err != nil {
			return nil, storeError(err, "Post", slug)
		}
		if !post.Published && post.AuthorID != viewerID {
			return nil, models.NewNotFoundError("Post", slug)
		}
		s.authors.Attach(ctx, post)
		post.ReadingTime = content.ReadingTime(post.Content)
		return post, nil
	}

	if viewerID != "" {
		return load()
	}

	var post models.Post
	err := cache.CacheAside(ctx, "post", cache.PostSlugKey(slug), &post, cache.PostTTL, func() error {
		loaded, err := load()
		if err != nil {
			return err
		}
		post = *loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *PostService) IncrementViews(ctx context.Context, postID uint) error {
	if err := s.posts.IncrementViews(ctx, postID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListPublished returns the newest published posts. Store errors yield an
// empty list.
func (s *PostService) ListPublished(ctx context.Context, limit, offset int, viewerID string) []*models.Post {
	limit = clampLimit(limit)
	if offset < 0 {
		offset = 0
	}
	posts, err := s.posts.ListPublished(ctx, limit, offset, viewerID)
	if err != nil {
		degraded(ctx, "list_published", err)
		return []*models.Post{}
	}
	s.authors.Attach(ctx, posts...)
	return nonNilPosts(posts)
}

// ListMine returns every post of the caller, drafts included.
func (s *PostService) ListMine(ctx context.Context, userID string) ([]*models.Post, error) {
	if userID == "" {
		return nil, models.NewUnauthorizedError("Unauthorized")
	}
	posts, err := s.posts.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return nonNilPosts(posts), nil
}

func (s *PostService) DashboardStats(ctx context.Context, userID string) (*models.DashboardStats, error) {
	if userID == "" {
		return nil, models.NewUnauthorizedError("Unauthorized")
	}
	stats, err := s.posts.Stats(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return stats, nil
}

func (s *PostService) ToggleLike(ctx context.Context, userID string, postID uint) (*models.LikeResult, error) {
	if userID == "" {
		return nil, models.NewUnauthorizedError("Unauthorized")
	}
	post, err := s.posts.GetByID(ctx, postID, "")
	if err != nil {
		return nil, storeError(err, "Post", postID)
	}
	result, err := s.posts.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, post.Slug)
	return result, nil
}

// Search finds published posts matching query in title, content, excerpt or
// tags. Blank queries and store errors yield an empty list.
func (s *PostService) Search(ctx context.Context, query string) []*models.Post {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*models.Post{}
	}
	posts, err := s.posts.Search(ctx, query, SearchLimit)
	if err != nil {
		degraded(ctx, "search", err)
		return []*models.Post{}
	}
	s.authors.Attach(ctx, posts...)
	return nonNilPosts(posts)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func nonNilPosts(posts []*models.Post) []*models.Post {
	if posts == nil {
		return []*models.Post{}
	}
	return posts
}
