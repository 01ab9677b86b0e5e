package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"inkwell/internal/cache"
	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPostInputValidation(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 60)
	tests := []struct {
		name string
		in   PostInput
		ok   bool
	}{
		{"valid", PostInput{Title: "Hello", Content: long, Excerpt: "A fine excerpt"}, true},
		{"short title", PostInput{Title: "Hey", Content: long}, false},
		{"long title", PostInput{Title: strings.Repeat("t", 101), Content: long}, false},
		{"padded title counts trimmed", PostInput{Title: "  Hey  ", Content: long}, false},
		{"short content", PostInput{Title: "Hello", Content: "too short"}, false},
		{"short excerpt", PostInput{Title: "Hello", Content: long, Excerpt: "tiny"}, false},
		{"long excerpt", PostInput{Title: "Hello", Content: long, Excerpt: strings.Repeat("e", 201)}, false},
		{"blank excerpt derived", PostInput{Title: "Hello", Content: long, Excerpt: "   "}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			err := in.normalize()
			if tt.ok {
				assert.NoError(t, err)
				assert.NotEmpty(t, in.Excerpt)
				return
			}
			requireCode(t, err, models.CodeValidation)
		})
	}
}

func TestCreatePost_RequiresIdentity(t *testing.T) {
	svc := NewPostService(&postRepoStub{}, nil)
	_, err := svc.CreatePost(context.Background(), models.Identity{}, validPost("Hello World"))
	requireCode(t, err, models.CodeUnauthorized)
}

func TestCreatePost_SlugSuffixes(t *testing.T) {
	taken := map[string]bool{"hello-world": true, "hello-world-2": true}
	var created *models.Post
	repo := &postRepoStub{
		slugExistsFn: func(_ context.Context, slug string, _ uint) (bool, error) { return taken[slug], nil },
		createFn: func(_ context.Context, p *models.Post) error {
			p.ID = 1
			created = p
			return nil
		},
	}
	svc := NewPostService(repo, nil)

	post, err := svc.CreatePost(context.Background(), identity("user_a", "Ada"), validPost("Hello, World!", " Go ", "go"))
	require.NoError(t, err)
	assert.Equal(t, "hello-world-3", post.Slug)
	assert.Equal(t, []string{"go"}, created.Tags)
	assert.False(t, created.Published)
	assert.Equal(t, "user_a", created.AuthorID)
	assert.NotEmpty(t, created.Excerpt)
}

func TestCreatePost_ConcurrentDuplicateIsConflict(t *testing.T) {
	repo := &postRepoStub{
		createFn: func(context.Context, *models.Post) error { return gorm.ErrDuplicatedKey },
	}
	svc := NewPostService(repo, nil)
	_, err := svc.CreatePost(context.Background(), identity("user_a", "Ada"), validPost("Hello World"))
	requireCode(t, err, models.CodeConflict)
}

func TestCreatePost_StoreErrorIsInternal(t *testing.T) {
	repo := &postRepoStub{
		slugExistsFn: func(context.Context, string, uint) (bool, error) { return false, errors.New("db down") },
	}
	svc := NewPostService(repo, nil)
	_, err := svc.CreatePost(context.Background(), identity("user_a", "Ada"), validPost("Hello World"))
	requireCode(t, err, models.CodeInternal)
}

func TestPostOwnershipEnforced(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	alice := identity("user_a", "Alice")
	bob := identity("user_b", "Bob")

	post, err := s.posts.CreatePost(ctx, alice, validPost("Alice writes"))
	require.NoError(t, err)

	_, err = s.posts.UpdatePost(ctx, bob, post.ID, validPost("Bob was here"))
	requireCode(t, err, models.CodeUnauthorized)
	requireCode(t, s.posts.DeletePost(ctx, bob.UserID, post.ID), models.CodeUnauthorized)
	_, err = s.posts.PublishPost(ctx, bob.UserID, post.ID)
	requireCode(t, err, models.CodeUnauthorized)

	got, err := s.posts.GetBySlug(ctx, post.Slug, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Alice writes", got.Title)
	assert.False(t, got.Published)

	_, err = s.posts.UpdatePost(ctx, alice, 999, validPost("Nothing here"))
	requireCode(t, err, models.CodeNotFound)
}

func TestPublishFlowAndVisibility(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	alice := identity("user_a", "Alice")

	post, err := s.posts.CreatePost(ctx, alice, validPost("Hello World", "intro"))
	require.NoError(t, err)
	assert.Empty(t, s.posts.ListPublished(ctx, 0, 0, ""))

	_, err = s.posts.GetBySlug(ctx, post.Slug, "user_b")
	requireCode(t, err, models.CodeNotFound)
	_, err = s.posts.GetBySlug(ctx, post.Slug, "")
	requireCode(t, err, models.CodeNotFound)

	published, err := s.posts.PublishPost(ctx, alice.UserID, post.ID)
	require.NoError(t, err)
	assert.True(t, published.Published)

	listed := s.posts.ListPublished(ctx, 0, 0, "")
	require.Len(t, listed, 1)
	assert.Equal(t, post.ID, listed[0].ID)
	require.NotNil(t, listed[0].Author)
	assert.Equal(t, "Alice Tester", listed[0].Author.Name)

	got, err := s.posts.GetBySlug(ctx, post.Slug, "")
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReadingTime)
	assert.Equal(t, []string{"intro"}, got.Tags)
}

func TestUpdatePost_ReslugsOnTitleChange(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	alice := identity("user_a", "Alice")

	first, err := s.posts.CreatePost(ctx, alice, validPost("Same Title"))
	require.NoError(t, err)
	second, err := s.posts.CreatePost(ctx, alice, validPost("Other Title"))
	require.NoError(t, err)

	updated, err := s.posts.UpdatePost(ctx, alice, second.ID, validPost("Same Title"))
	require.NoError(t, err)
	assert.Equal(t, "same-title-2", updated.Slug)

	kept, err := s.posts.UpdatePost(ctx, alice, first.ID, validPost("Same Title", "kept"))
	require.NoError(t, err)
	assert.Equal(t, "same-title", kept.Slug)
	assert.Equal(t, []string{"kept"}, kept.Tags)
}

func TestLikesViewsAndStats(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	alice := identity("user_a", "Alice")

	post, err := s.posts.CreatePost(ctx, alice, validPost("Counting things"))
	require.NoError(t, err)
	_, err = s.posts.CreatePost(ctx, alice, validPost("Another draft"))
	require.NoError(t, err)
	_, err = s.posts.PublishPost(ctx, alice.UserID, post.ID)
	require.NoError(t, err)

	require.NoError(t, s.posts.IncrementViews(ctx, post.ID))
	require.NoError(t, s.posts.IncrementViews(ctx, post.ID))

	liked, err := s.posts.ToggleLike(ctx, "user_b", post.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.LikeResult{Liked: true, Likes: 1}, liked)
	unliked, err := s.posts.ToggleLike(ctx, "user_b", post.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.LikeResult{Liked: false, Likes: 0}, unliked)
	_, err = s.posts.ToggleLike(ctx, "user_c", post.ID)
	require.NoError(t, err)

	_, err = s.posts.ToggleLike(ctx, "user_b", 404)
	requireCode(t, err, models.CodeNotFound)
	_, err = s.posts.ToggleLike(ctx, "", post.ID)
	requireCode(t, err, models.CodeUnauthorized)

	stats, err := s.posts.DashboardStats(ctx, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, &models.DashboardStats{TotalPosts: 2, Published: 1, Drafts: 1, TotalViews: 2, TotalLikes: 1}, stats)

	mine, err := s.posts.ListMine(ctx, alice.UserID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestGetBySlug_AnonymousReadsAreCached(t *testing.T) {
	mr := setupCache(t)
	s := newTestServices(t)
	ctx := context.Background()
	alice := identity("user_a", "Alice")

	in := validPost("Cached Post")
	in.Published = true
	post, err := s.posts.CreatePost(ctx, alice, in)
	require.NoError(t, err)

	_, err = s.posts.GetBySlug(ctx, post.Slug, "")
	require.NoError(t, err)
	assert.True(t, mr.Exists(cache.PostSlugKey(post.Slug)))

	_, err = s.posts.ToggleLike(ctx, "user_b", post.ID)
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.PostSlugKey(post.Slug)))

	got, err := s.posts.GetBySlug(ctx, post.Slug, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.LikesCount)
	assert.False(t, got.Liked)

	viewer, err := s.posts.GetBySlug(ctx, post.Slug, "user_b")
	require.NoError(t, err)
	assert.True(t, viewer.Liked)
}

func TestReadPathsDegradeToEmpty(t *testing.T) {
	boom := errors.New("db down")
	repo := &postRepoStub{
		listPublishedFn: func(context.Context, int, int, string) ([]*models.Post, error) { return nil, boom },
		searchFn:        func(context.Context, string, int) ([]*models.Post, error) { return nil, boom },
	}
	svc := NewPostService(repo, nil)
	ctx := context.Background()

	listed := svc.ListPublished(ctx, 5, 0, "")
	assert.NotNil(t, listed)
	assert.Empty(t, listed)

	found := svc.Search(ctx, "golang")
	assert.NotNil(t, found)
	assert.Empty(t, found)
}

func TestSearch_BlankQuerySkipsStore(t *testing.T) {
	repo := &postRepoStub{
		searchFn: func(context.Context, string, int) ([]*models.Post, error) {
			t.Fatal("store should not be queried")
			return nil, nil
		},
	}
	assert.Empty(t, NewPostService(repo, nil).Search(context.Background(), "  \t "))
}

func TestSearch_LimitAndUnknownAuthor(t *testing.T) {
	var gotLimit int
	repo := &postRepoStub{
		searchFn: func(_ context.Context, q string, limit int) ([]*models.Post, error) {
			gotLimit = limit
			assert.Equal(t, "go", q)
			return []*models.Post{{ID: 1, AuthorID: "ghost"}}, nil
		},
	}
	posts := NewPostService(repo, nil).Search(context.Background(), " go ")
	assert.Equal(t, SearchLimit, gotLimit)
	require.Len(t, posts, 1)
	assert.Equal(t, models.UnknownAuthorName, posts[0].Author.Name)
}

func TestClampLimit(t *testing.T) {
	t.Parallel()
	assert.Equal(t, DefaultListLimit, clampLimit(0))
	assert.Equal(t, 7, clampLimit(7))
	assert.Equal(t, MaxListLimit, clampLimit(1000))
}
