package repository

import (
	"context"
	"errors"
	"testing"

	"inkwell/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAuthorRepository_Upsert(t *testing.T) {
	repo := NewAuthorRepository(newSQLiteDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.Author{ID: "user_1", DisplayName: "Ada"}))
	require.NoError(t, repo.Upsert(ctx, &models.Author{ID: "user_1", DisplayName: "Ada Lovelace", ImageURL: "https://img/ada.png"}))
	require.NoError(t, repo.Upsert(ctx, &models.Author{ID: "user_2", DisplayName: "Grace"}))

	got, err := repo.GetByIDs(ctx, []string{"user_1", "user_2", "user_missing"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Ada Lovelace", got["user_1"].DisplayName)
	assert.Equal(t, "https://img/ada.png", got["user_1"].ImageURL)
	assert.Equal(t, "Grace", got["user_2"].DisplayName)

	empty, err := repo.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	assert.True(t, IsNotFound(gorm.ErrRecordNotFound))
	assert.True(t, IsNotFound(errors.Join(errors.New("wrapped"), gorm.ErrRecordNotFound)))
	assert.False(t, IsNotFound(errors.New("boom")))

	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: posts.slug")))
	assert.False(t, IsUniqueViolation(nil))
}
