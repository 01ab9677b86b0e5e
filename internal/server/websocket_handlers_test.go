package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/models"
	"inkwell/internal/notifications"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveComments_FlagOff(t *testing.T) {
	h := newTestHarness(t, func(c *config.Config) { c.FeatureFlags = "live_comments=off" })

	resp := h.do(t, http.MethodGet, "/api/ws/posts/1/comments", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLiveComments_RequiresUpgrade(t *testing.T) {
	h := newTestHarness(t)

	resp := h.do(t, http.MethodGet, "/api/ws/posts/1/comments", "", nil)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)

	resp = h.do(t, http.MethodGet, "/api/ws/posts/zero/comments", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLiveComments_StreamsCommentEvents(t *testing.T) {
	h := newTestHarness(t)
	post := h.seedPost(t, "author_1", "Live Post", true)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, h.srv.hub.StartWiring(ctx, h.srv.notifier))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = h.app.Listener(ln) }()
	t.Cleanup(func() { _ = h.app.Shutdown() })

	url := fmt.Sprintf("ws://%s/api/ws/posts/%d/comments", ln.Addr().String(), post.ID)
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return h.srv.hub.Count(post.ID) == 1 }, 2*time.Second, 10*time.Millisecond)

	comment, err := h.srv.commentService.AddComment(ctx,
		models.Identity{UserID: "alice", Name: "Alice"}, post.ID, "Hello live", models.TopLevel())
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var created notifications.Event
	require.NoError(t, conn.ReadJSON(&created))
	assert.Equal(t, notifications.EventCommentCreated, created.Type)
	assert.Equal(t, post.ID, created.Payload.PostID)
	require.NotNil(t, created.Payload.Comment)
	assert.Equal(t, "Hello live", created.Payload.Comment.Content)
	assert.Equal(t, "Alice", created.Payload.Comment.AuthorName)

	require.NoError(t, h.srv.commentService.DeleteComment(ctx, "alice", comment.ID))

	var deleted notifications.Event
	require.NoError(t, conn.ReadJSON(&deleted))
	assert.Equal(t, notifications.EventCommentDeleted, deleted.Type)
	assert.Equal(t, comment.ID, deleted.Payload.CommentID)

	_ = conn.Close()
	require.Eventually(t, func() bool { return h.srv.hub.Count(post.ID) == 0 }, 2*time.Second, 10*time.Millisecond)
}
