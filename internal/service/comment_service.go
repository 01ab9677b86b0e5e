package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/repository"
)

const maxCommentLen = 1000

// CommentEvents receives comment lifecycle events for live delivery.
type CommentEvents interface {
	CommentCreated(ctx context.Context, comment *models.Comment)
	CommentDeleted(ctx context.Context, postID, commentID uint)
}

type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	authors  *AuthorService
	events   CommentEvents
}

func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	authors *AuthorService,
	events CommentEvents,
) *CommentService {
	return &CommentService{
		comments: comments,
		posts:    posts,
		authors:  authors,
		events:   events,
	}
}

// Threads returns the post's top-level comments, newest first, each with its
// replies oldest first. Store errors yield an empty list.
func (s *CommentService) Threads(ctx context.Context, postID uint) []*models.CommentThread {
	top, err := s.comments.ListTopLevel(ctx, postID)
	if err != nil {
		degraded(ctx, "comment_threads", err, "post_id", postID)
		return []*models.CommentThread{}
	}
	replies, err := s.comments.ListReplies(ctx, postID)
	if err != nil {
		degraded(ctx, "comment_replies", err, "post_id", postID)
		return []*models.CommentThread{}
	}
	return BuildThreads(top, replies)
}

// BuildThreads groups replies under their parents. Order of both inputs is
// kept; every thread has a non-nil Replies slice. Replies whose parent is not
// in top are dropped.
func BuildThreads(top, replies []*models.Comment) []*models.CommentThread {
	byParent := make(map[uint][]*models.Comment, len(top))
	for _, r := range replies {
		if r.ParentID == nil {
			continue
		}
		byParent[*r.ParentID] = append(byParent[*r.ParentID], r)
	}

	threads := make([]*models.CommentThread, 0, len(top))
	for _, c := range top {
		children := byParent[c.ID]
		if children == nil {
			children = []*models.Comment{}
		}
		threads = append(threads, &models.CommentThread{Comment: c, Replies: children})
	}
	return threads
}

// AddComment stores a comment by the caller at the given placement.
func (s *CommentService) AddComment(ctx context.Context, author models.Identity, postID uint, body string, at models.Placement) (*models.Comment, error) {
	if author.UserID == "" {
		return nil, models.NewUnauthorizedError("Unauthorized")
	}
	body = strings.TrimSpace(body)
	if n := utf8.RuneCountInString(body); n < 1 || n > maxCommentLen {
		return nil, models.NewValidationError(fmt.Sprintf("Comment must be between 1 and %d characters", maxCommentLen))
	}

	post, err := s.posts.GetByID(ctx, postID, "")
	if err != nil {
		return nil, storeError(err, "Post", postID)
	}

	if at.IsReply() {
		parent, err := s.comments.GetByID(ctx, at.ParentID())
		if err != nil {
			return nil, storeError(err, "Comment", at.ParentID())
		}
		if parent.PostID != postID {
			return nil, models.NewNotFoundError("Comment", at.ParentID())
		}
		if parent.IsReply {
			return nil, models.NewValidationError("Replies can only be added to top-level comments")
		}
	}

	comment := &models.Comment{
		PostID:         postID,
		Content:        body,
		AuthorID:       author.UserID,
		AuthorName:     author.DisplayName(),
		AuthorImageURL: strings.TrimSpace(author.ImageURL),
	}
	at.Apply(comment)

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}

	cache.InvalidatePost(ctx, post.Slug)
	s.authors.Remember(ctx, author)
	if s.events != nil {
		s.events.CommentCreated(ctx, comment)
	}
	return comment, nil
}

// DeleteComment removes the caller's comment and its replies.
func (s *CommentService) DeleteComment(ctx context.Context, userID string, commentID uint) error {
	if userID == "" {
		return models.NewUnauthorizedError("Unauthorized")
	}
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return storeError(err, "Comment", commentID)
	}
	if comment.AuthorID != userID {
		return models.NewUnauthorizedError("Not authorized to delete this comment")
	}

	if _, err := s.comments.DeleteWithReplies(ctx, commentID); err != nil {
		return storeError(err, "Comment", commentID)
	}

	if post, err := s.posts.GetByID(ctx, comment.PostID, ""); err == nil {
		cache.InvalidatePost(ctx, post.Slug)
	}
	if s.events != nil {
		s.events.CommentDeleted(ctx, comment.PostID, commentID)
	}
	return nil
}

func (s *CommentService) ToggleLike(ctx context.Context, userID string, commentID uint) (*models.LikeResult, error) {
	if userID == "" {
		return nil, models.NewUnauthorizedError("Unauthorized")
	}
	if _, err := s.comments.GetByID(ctx, commentID); err != nil {
		return nil, storeError(err, "Comment", commentID)
	}
	result, err := s.comments.ToggleLike(ctx, commentID, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return result, nil
}
