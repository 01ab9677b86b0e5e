package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

type postFixture struct {
	author    string
	title     string
	published bool
	tags      []string
	createdAt time.Time
	content   string
}

func seedPost(t *testing.T, repo PostRepository, f postFixture) *models.Post {
	t.Helper()
	if f.author == "" {
		f.author = "user_author"
	}
	if f.content == "" {
		f.content = "<p>" + f.title + " body text that is long enough to be a real post.</p>"
	}
	p := &models.Post{
		Title:     f.title,
		Slug:      fmt.Sprintf("%s-%d", testSlug(f.title), time.Now().UnixNano()),
		Content:   f.content,
		Excerpt:   "An excerpt for " + f.title,
		AuthorID:  f.author,
		Published: f.published,
		Tags:      f.tags,
		CreatedAt: f.createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func testSlug(title string) string {
	out := make([]rune, 0, len(title))
	for _, r := range title {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			out = append(out, r)
		} else if r >= 'A' && r <= 'Z' {
			out = append(out, r+'a'-'A')
		} else {
			out = append(out, '-')
		}
	}
	return string(out)
}

func seedComment(t *testing.T, repo CommentRepository, postID uint, placement models.Placement, content string, at time.Time) *models.Comment {
	t.Helper()
	c := &models.Comment{
		PostID:     postID,
		Content:    content,
		AuthorID:   "user_commenter",
		AuthorName: "Commenter",
		CreatedAt:  at,
	}
	placement.Apply(c)
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.NewTestDB(t)
}

func newSQLiteRepos(t *testing.T) (*gorm.DB, PostRepository, CommentRepository) {
	t.Helper()
	db := newSQLiteDB(t)
	return db, NewPostRepository(db), NewCommentRepository(db)
}
