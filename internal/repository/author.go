package repository

import (
	"context"

	"inkwell/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AuthorRepository caches author display identities.
type AuthorRepository interface {
	Upsert(ctx context.Context, author *models.Author) error
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.Author, error)
}

type authorRepository struct {
	db *gorm.DB
}

// NewAuthorRepository creates a new AuthorRepository
func NewAuthorRepository(db *gorm.DB) AuthorRepository {
	return &authorRepository{db: db}
}

func (r *authorRepository) Upsert(ctx context.Context, author *models.Author) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "image_url", "updated_at"}),
	}).Create(author).Error
}

func (r *authorRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*models.Author, error) {
	out := make(map[string]*models.Author, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var authors []*models.Author
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&authors).Error; err != nil {
		return nil, err
	}
	for _, a := range authors {
		out[a.ID] = a
	}
	return out, nil
}
