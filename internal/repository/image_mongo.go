package repository

import (
	"context"
	"time"

	"inkwell/internal/docstore"
	"inkwell/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoImageRepository struct {
	col *mongo.Collection
}

// NewMongoImageRepository returns an image repository over the images collection of db.
func NewMongoImageRepository(db *mongo.Database) ImageRepository {
	return &mongoImageRepository{col: db.Collection(docstore.ImagesCollection)}
}

func (r *mongoImageRepository) Create(ctx context.Context, image *models.Image) error {
	now := time.Now()
	if image.CreatedAt.IsZero() {
		image.CreatedAt = now
	}
	image.UpdatedAt = now
	_, err := r.col.InsertOne(ctx, image)
	return err
}

func (r *mongoImageRepository) GetByID(ctx context.Context, id string) (*models.Image, error) {
	var image models.Image
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&image); err != nil {
		return nil, err
	}
	return &image, nil
}
