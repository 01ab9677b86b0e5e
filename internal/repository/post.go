package repository

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, viewerID string) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string, viewerID string) (*models.Post, error)
	SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error)
	Update(ctx context.Context, post *models.Post) error
	SetPublished(ctx context.Context, id uint, published bool) error
	Delete(ctx context.Context, id uint) error
	ListPublished(ctx context.Context, limit, offset int, viewerID string) ([]*models.Post, error)
	ListByAuthor(ctx context.Context, authorID string) ([]*models.Post, error)
	Search(ctx context.Context, query string, limit int) ([]*models.Post, error)
	IncrementViews(ctx context.Context, id uint) error
	ToggleLike(ctx context.Context, postID uint, userID string) (*models.LikeResult, error)
	Stats(ctx context.Context, authorID string) (*models.DashboardStats, error)
}

type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts")}
}

// withPostDetails selects the computed comment count, like count and the
// viewer's liked flag alongside the post columns.
func withPostDetails(db *gorm.DB, viewerID string) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count, " +
		"(SELECT COUNT(*) FROM post_likes WHERE post_likes.post_id = posts.id) AS likes_count"

	if viewerID != "" {
		return db.Model(&models.Post{}).Select(
			selectQuery+", EXISTS(SELECT 1 FROM post_likes WHERE post_likes.post_id = posts.id AND post_likes.user_id = ?) AS liked",
			viewerID,
		)
	}
	return db.Model(&models.Post{}).Select(selectQuery + ", false AS liked")
}

// loadTags fills Tags on each post, always leaving a non-nil slice.
func loadTags(ctx context.Context, db *gorm.DB, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(posts))
	byID := make(map[uint]*models.Post, len(posts))
	for _, p := range posts {
		p.Tags = []string{}
		ids = append(ids, p.ID)
		byID[p.ID] = p
	}

	var rows []models.PostTag
	if err := db.WithContext(ctx).
		Where("post_id IN ?", ids).
		Order("post_id ASC, tag ASC").
		Find(&rows).Error; err != nil {
		return err
	}
	for _, row := range rows {
		if p := byID[row.PostID]; p != nil {
			p.Tags = append(p.Tags, row.Tag)
		}
	}
	return nil
}

func tagRows(postID uint, tags []string) []models.PostTag {
	rows := make([]models.PostTag, 0, len(tags))
	for _, tag := range tags {
		rows = append(rows, models.PostTag{PostID: postID, Tag: tag})
	}
	return rows
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		if len(post.Tags) == 0 {
			return nil
		}
		return tx.Create(tagRows(post.ID, post.Tags)).Error
	})
	if err != nil {
		return err
	}
	r.log.LogCreate(ctx, map[string]interface{}{"post_id": post.ID, "slug": post.Slug})
	return nil
}

func (r *postRepository) findOne(ctx context.Context, viewerID string, query interface{}, args ...interface{}) (*models.Post, error) {
	var post models.Post
	if err := withPostDetails(r.db.WithContext(ctx), viewerID).
		Where(query, args...).
		Take(&post).Error; err != nil {
		return nil, err
	}
	if err := loadTags(ctx, r.db, []*models.Post{&post}); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint, viewerID string) (*models.Post, error) {
	return r.findOne(ctx, viewerID, "posts.id = ?", id)
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string, viewerID string) (*models.Post, error) {
	return r.findOne(ctx, viewerID, "posts.slug = ?", slug)
}

func (r *postRepository) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Post{}).Where("slug = ?", slug)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update writes the editable columns and replaces the tag set.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(post).
			Select("title", "slug", "content", "excerpt", "featured_image", "published", "updated_at").
			Updates(post)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		if len(post.Tags) == 0 {
			return nil
		}
		return tx.Create(tagRows(post.ID, post.Tags)).Error
	})
	if err != nil {
		return err
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"post_id": post.ID})
	return nil
}

func (r *postRepository) SetPublished(ctx context.Context, id uint, published bool) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Update("published", published)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the post with its comments, likes and tags in one transaction.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commentIDs := tx.Model(&models.Comment{}).Select("id").Where("post_id = ?", id)
		if err := tx.Where("comment_id IN (?)", commentIDs).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.log.LogDelete(ctx, map[string]interface{}{"post_id": id})
	return nil
}

func (r *postRepository) list(ctx context.Context, q *gorm.DB, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Order("posts.created_at DESC, posts.id DESC").Find(&posts).Error; err != nil {
		return nil, err
	}
	if err := loadTags(ctx, r.db, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) ListPublished(ctx context.Context, limit, offset int, viewerID string) ([]*models.Post, error) {
	defer observability.TrackQuery("list_published", "posts")()
	q := withPostDetails(r.db.WithContext(ctx), viewerID).Where("posts.published = ?", true)
	return r.list(ctx, q, limit, offset)
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID string) ([]*models.Post, error) {
	defer observability.TrackQuery("list_by_author", "posts")()
	q := withPostDetails(r.db.WithContext(ctx), authorID).Where("posts.author_id = ?", authorID)
	return r.list(ctx, q, 0, 0)
}

func (r *postRepository) IncrementViews(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
}

// ToggleLike removes the user's like if present and adds it otherwise. Each
// step is a single statement, so concurrent toggles never lose updates.
func (r *postRepository) ToggleLike(ctx context.Context, postID uint, userID string) (*models.LikeResult, error) {
	result := &models.LikeResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			like := models.PostLike{PostID: postID, UserID: userID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
				return err
			}
			result.Liked = true
		}
		return tx.Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&result.Likes).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postRepository) Stats(ctx context.Context, authorID string) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("COUNT(*) AS total_posts, "+
			"COALESCE(SUM(CASE WHEN published THEN 1 ELSE 0 END), 0) AS published, "+
			"COALESCE(SUM(views), 0) AS total_views").
		Where("author_id = ?", authorID).
		Scan(&stats).Error; err != nil {
		return nil, err
	}
	stats.Drafts = stats.TotalPosts - stats.Published

	if err := r.db.WithContext(ctx).
		Model(&models.PostLike{}).
		Joins("JOIN posts ON posts.id = post_likes.post_id").
		Where("posts.author_id = ?", authorID).
		Count(&stats.TotalLikes).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}
