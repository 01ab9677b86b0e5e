package seed

import (
	"strings"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPost_DerivedFields(t *testing.T) {
	opts := Options{DryRun: true, MaxDays: 30, Seed: 42}
	f := NewFactory(nil, opts)
	author := f.BuildAuthor()

	p := f.BuildPost(author)
	assert.Equal(t, author.ID, p.AuthorID)
	assert.NotEmpty(t, p.Title)
	assert.LessOrEqual(t, len([]rune(p.Title)), maxSeedTitleLen)
	assert.Regexp(t, `^[a-z0-9]+(-[a-z0-9]+)*$`, p.Slug)
	assert.True(t, strings.HasPrefix(p.Content, "<p>"))
	assert.NotContains(t, p.Excerpt, "<")
	assert.NotEmpty(t, p.Tags)
	assert.Less(t, time.Since(p.CreatedAt), (time.Duration(opts.MaxDays)+1)*24*time.Hour)
}

func TestBuildPost_Overrides(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true, Seed: 7})
	author := f.BuildAuthor()

	p := f.BuildPost(author, func(p *models.Post) {
		p.Published = false
		p.Tags = []string{"go"}
	})
	assert.False(t, p.Published)
	assert.Equal(t, []string{"go"}, p.Tags)
}

func TestFactory_SameSeedSameAuthor(t *testing.T) {
	a := NewFactory(nil, Options{Seed: 99}).BuildAuthor()
	b := NewFactory(nil, Options{Seed: 99}).BuildAuthor()
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, a.DisplayName, b.DisplayName)
}

func TestDryRun_AssignsSyntheticIDs(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true, Seed: 1})
	author, err := f.CreateAuthor()
	require.NoError(t, err)

	post, err := f.CreatePost(author)
	require.NoError(t, err)
	assert.Equal(t, uint(1001), post.ID)

	top, err := f.CreateComment(author, post, models.TopLevel())
	require.NoError(t, err)
	reply, err := f.CreateComment(author, post, models.ReplyTo(top.ID))
	require.NoError(t, err)
	assert.False(t, top.IsReply)
	assert.True(t, reply.IsReply)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, top.ID, *reply.ParentID)
	assert.False(t, reply.CreatedAt.Before(post.CreatedAt))
	assert.NoError(t, f.CreatePostLike(post, author.ID))
}
