package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository. Unset funcs return
// zero values.
type postRepoStub struct {
	createFn         func(context.Context, *models.Post) error
	getByIDFn        func(context.Context, uint, string) (*models.Post, error)
	getBySlugFn      func(context.Context, string, string) (*models.Post, error)
	slugExistsFn     func(context.Context, string, uint) (bool, error)
	updateFn         func(context.Context, *models.Post) error
	setPublishedFn   func(context.Context, uint, bool) error
	deleteFn         func(context.Context, uint) error
	listPublishedFn  func(context.Context, int, int, string) ([]*models.Post, error)
	listByAuthorFn   func(context.Context, string) ([]*models.Post, error)
	searchFn         func(context.Context, string, int) ([]*models.Post, error)
	incrementViewsFn func(context.Context, uint) error
	toggleLikeFn     func(context.Context, uint, string) (*models.LikeResult, error)
	statsFn          func(context.Context, string) (*models.DashboardStats, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint, viewerID string) (*models.Post, error) {
	if s.getByIDFn == nil {
		return &models.Post{ID: id}, nil
	}
	return s.getByIDFn(ctx, id, viewerID)
}
func (s *postRepoStub) GetBySlug(ctx context.Context, slug, viewerID string) (*models.Post, error) {
	return s.getBySlugFn(ctx, slug, viewerID)
}
func (s *postRepoStub) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	if s.slugExistsFn == nil {
		return false, nil
	}
	return s.slugExistsFn(ctx, slug, excludeID)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) SetPublished(ctx context.Context, id uint, published bool) error {
	if s.setPublishedFn == nil {
		return nil
	}
	return s.setPublishedFn(ctx, id, published)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) ListPublished(ctx context.Context, limit, offset int, viewerID string) ([]*models.Post, error) {
	return s.listPublishedFn(ctx, limit, offset, viewerID)
}
func (s *postRepoStub) ListByAuthor(ctx context.Context, authorID string) ([]*models.Post, error) {
	return s.listByAuthorFn(ctx, authorID)
}
func (s *postRepoStub) Search(ctx context.Context, query string, limit int) ([]*models.Post, error) {
	return s.searchFn(ctx, query, limit)
}
func (s *postRepoStub) IncrementViews(ctx context.Context, id uint) error {
	return s.incrementViewsFn(ctx, id)
}
func (s *postRepoStub) ToggleLike(ctx context.Context, postID uint, userID string) (*models.LikeResult, error) {
	return s.toggleLikeFn(ctx, postID, userID)
}
func (s *postRepoStub) Stats(ctx context.Context, authorID string) (*models.DashboardStats, error) {
	return s.statsFn(ctx, authorID)
}

var _ repository.PostRepository = (*postRepoStub)(nil)

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn       func(context.Context, *models.Comment) error
	getByIDFn      func(context.Context, uint) (*models.Comment, error)
	listTopLevelFn func(context.Context, uint) ([]*models.Comment, error)
	listRepliesFn  func(context.Context, uint) ([]*models.Comment, error)
	deleteFn       func(context.Context, uint) (int64, error)
	toggleLikeFn   func(context.Context, uint, string) (*models.LikeResult, error)
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListTopLevel(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listTopLevelFn(ctx, postID)
}
func (s *commentRepoStub) ListReplies(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listRepliesFn(ctx, postID)
}
func (s *commentRepoStub) DeleteWithReplies(ctx context.Context, id uint) (int64, error) {
	return s.deleteFn(ctx, id)
}
func (s *commentRepoStub) ToggleLike(ctx context.Context, commentID uint, userID string) (*models.LikeResult, error) {
	return s.toggleLikeFn(ctx, commentID, userID)
}

var _ repository.CommentRepository = (*commentRepoStub)(nil)

// tagRepoStub is a stub for repository.TagRepository.
type tagRepoStub struct {
	popularFn    func(context.Context, int) ([]models.TagCount, error)
	postsByTagFn func(context.Context, string, int, int) ([]*models.Post, int64, error)
}

func (s *tagRepoStub) Popular(ctx context.Context, limit int) ([]models.TagCount, error) {
	return s.popularFn(ctx, limit)
}
func (s *tagRepoStub) PostsByTag(ctx context.Context, tag string, limit, offset int) ([]*models.Post, int64, error) {
	return s.postsByTagFn(ctx, tag, limit, offset)
}

type commentEvent struct {
	kind      string
	postID    uint
	commentID uint
}

type eventRecorder struct {
	mu     sync.Mutex
	events []commentEvent
}

func (r *eventRecorder) CommentCreated(_ context.Context, c *models.Comment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, commentEvent{kind: "created", postID: c.PostID, commentID: c.ID})
}

func (r *eventRecorder) CommentDeleted(_ context.Context, postID, commentID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, commentEvent{kind: "deleted", postID: postID, commentID: commentID})
}

func (r *eventRecorder) all() []commentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]commentEvent(nil), r.events...)
}

type testServices struct {
	posts    *PostService
	comments *CommentService
	tags     *TagService
	authors  *AuthorService
	events   *eventRecorder
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	db := testutil.NewTestDB(t)
	postRepo := repository.NewPostRepository(db)
	authors := NewAuthorService(repository.NewAuthorRepository(db))
	events := &eventRecorder{}
	return &testServices{
		posts:    NewPostService(postRepo, authors),
		comments: NewCommentService(repository.NewCommentRepository(db), postRepo, authors, events),
		tags:     NewTagService(repository.NewTagRepository(db), authors),
		authors:  authors,
		events:   events,
	}
}

func setupCache(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })
	return mr
}

func identity(id, first string) models.Identity {
	return models.Identity{UserID: id, FirstName: first, LastName: "Tester"}
}

func validPost(title string, tags ...string) PostInput {
	return PostInput{
		Title:   title,
		Content: "<p>" + strings.Repeat("Some meaningful words about "+title+". ", 3) + "</p>",
		Tags:    tags,
	}
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.True(t, models.HasCode(err, code), "expected %s, got %v", code, err)
}
