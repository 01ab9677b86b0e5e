package repository

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListTopLevel(ctx context.Context, postID uint) ([]*models.Comment, error)
	ListReplies(ctx context.Context, postID uint) ([]*models.Comment, error)
	DeleteWithReplies(ctx context.Context, id uint) (int64, error)
	ToggleLike(ctx context.Context, commentID uint, userID string) (*models.LikeResult, error)
}

type commentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, log: observability.NewRepoLogger("comments")}
}

func withCommentLikes(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Comment{}).Select(
		"comments.*, (SELECT COUNT(*) FROM comment_likes WHERE comment_likes.comment_id = comments.id) AS likes_count",
	)
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return err
	}
	r.log.LogCreate(ctx, map[string]interface{}{
		"comment_id": comment.ID,
		"post_id":    comment.PostID,
		"is_reply":   comment.IsReply,
	})
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := withCommentLikes(r.db.WithContext(ctx)).Where("comments.id = ?", id).Take(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListTopLevel returns the post's top-level comments, newest first.
func (r *commentRepository) ListTopLevel(ctx context.Context, postID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := withCommentLikes(r.db.WithContext(ctx)).
		Where("comments.post_id = ? AND comments.is_reply = ?", postID, false).
		Order("comments.created_at DESC, comments.id DESC").
		Find(&comments).Error
	return comments, err
}

// ListReplies returns every reply on the post, oldest first.
func (r *commentRepository) ListReplies(ctx context.Context, postID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := withCommentLikes(r.db.WithContext(ctx)).
		Where("comments.post_id = ? AND comments.is_reply = ?", postID, true).
		Order("comments.created_at ASC, comments.id ASC").
		Find(&comments).Error
	return comments, err
}

// DeleteWithReplies removes the comment and its direct replies, with their
// likes, and returns the number of comments removed.
func (r *commentRepository) DeleteWithReplies(ctx context.Context, id uint) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		replyIDs := tx.Model(&models.Comment{}).Select("id").Where("parent_id = ?", id)
		if err := tx.Where("comment_id = ? OR comment_id IN (?)", id, replyIDs).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? OR parent_id = ?", id, id).Delete(&models.Comment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		removed = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	r.log.LogDelete(ctx, map[string]interface{}{"comment_id": id, "removed": removed})
	return removed, nil
}

func (r *commentRepository) ToggleLike(ctx context.Context, commentID uint, userID string) (*models.LikeResult, error) {
	result := &models.LikeResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).Delete(&models.CommentLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			like := models.CommentLike{CommentID: commentID, UserID: userID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
				return err
			}
			result.Liked = true
		}
		return tx.Model(&models.CommentLike{}).Where("comment_id = ?", commentID).Count(&result.Likes).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
