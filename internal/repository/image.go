package repository

import (
	"context"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// ImageRepository stores uploaded images. Images are immutable once created.
type ImageRepository interface {
	Create(ctx context.Context, image *models.Image) error
	GetByID(ctx context.Context, id string) (*models.Image, error)
}

type imageRepository struct {
	db *gorm.DB
}

// NewImageRepository returns the SQL-backed image repository.
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) Create(ctx context.Context, image *models.Image) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *imageRepository) GetByID(ctx context.Context, id string) (*models.Image, error) {
	var image models.Image
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&image).Error; err != nil {
		return nil, err
	}
	return &image, nil
}
