package repository

import (
	"context"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_Ordering(t *testing.T) {
	_, posts, comments := newSQLiteRepos(t)
	ctx := context.Background()
	p := seedPost(t, posts, postFixture{title: "Threads", published: true})
	base := time.Now().Add(-time.Hour)

	c1 := seedComment(t, comments, p.ID, models.TopLevel(), "c1", base)
	c2 := seedComment(t, comments, p.ID, models.TopLevel(), "c2", base.Add(time.Minute))
	c3 := seedComment(t, comments, p.ID, models.TopLevel(), "c3", base.Add(2*time.Minute))
	r2 := seedComment(t, comments, p.ID, models.ReplyTo(c1.ID), "r2", base.Add(4*time.Minute))
	r1 := seedComment(t, comments, p.ID, models.ReplyTo(c1.ID), "r1", base.Add(3*time.Minute))

	top, err := comments.ListTopLevel(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []uint{c3.ID, c2.ID, c1.ID}, []uint{top[0].ID, top[1].ID, top[2].ID})

	replies, err := comments.ListReplies(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, r1.ID, replies[0].ID)
	assert.Equal(t, r2.ID, replies[1].ID)
	require.NotNil(t, replies[0].ParentID)
	assert.Equal(t, c1.ID, *replies[0].ParentID)
	assert.True(t, replies[0].IsReply)
}

func TestCommentRepository_DeleteWithReplies(t *testing.T) {
	db, posts, comments := newSQLiteRepos(t)
	ctx := context.Background()
	p := seedPost(t, posts, postFixture{title: "Cleanup", published: true})

	parent := seedComment(t, comments, p.ID, models.TopLevel(), "parent", time.Now())
	reply := seedComment(t, comments, p.ID, models.ReplyTo(parent.ID), "reply", time.Now())
	seedComment(t, comments, p.ID, models.ReplyTo(parent.ID), "reply 2", time.Now())
	other := seedComment(t, comments, p.ID, models.TopLevel(), "other", time.Now())
	_, err := comments.ToggleLike(ctx, reply.ID, "user_x")
	require.NoError(t, err)
	_, err = comments.ToggleLike(ctx, other.ID, "user_x")
	require.NoError(t, err)

	removed, err := comments.DeleteWithReplies(ctx, parent.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)

	var likes int64
	require.NoError(t, db.Model(&models.CommentLike{}).Count(&likes).Error)
	assert.EqualValues(t, 1, likes)

	remaining, err := comments.ListTopLevel(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, other.ID, remaining[0].ID)
	assert.EqualValues(t, 1, remaining[0].LikesCount)

	_, err = comments.DeleteWithReplies(ctx, parent.ID)
	assert.True(t, IsNotFound(err))
}

func TestCommentRepository_ToggleLike(t *testing.T) {
	_, posts, comments := newSQLiteRepos(t)
	ctx := context.Background()
	p := seedPost(t, posts, postFixture{title: "Likes", published: true})
	c := seedComment(t, comments, p.ID, models.TopLevel(), "nice", time.Now())

	res, err := comments.ToggleLike(ctx, c.ID, "user_a")
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.EqualValues(t, 1, res.Likes)

	got, err := comments.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.LikesCount)

	res, err = comments.ToggleLike(ctx, c.ID, "user_a")
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.EqualValues(t, 0, res.Likes)

	_, err = comments.GetByID(ctx, 9999)
	assert.True(t, IsNotFound(err))
}
