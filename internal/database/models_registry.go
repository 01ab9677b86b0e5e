package database

import "inkwell/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Author{},
		&models.Post{},
		&models.PostTag{},
		&models.PostLike{},
		&models.Comment{},
		&models.CommentLike{},
		&models.Image{},
	}
}
