// Package notifications delivers live comment events to websocket readers.
package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/redis/go-redis/v9"
)

// Notifier publishes comment events to Redis so every API replica can deliver
// them. Without Redis, events are handed to the in-process subscriber.
type Notifier struct {
	rdb *redis.Client

	mu    sync.RWMutex
	local func(channel, payload string)
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishPost sends payload to the post's comment channel.
func (n *Notifier) PublishPost(ctx context.Context, postID uint, payload string) error {
	channel := PostChannel(postID)
	if n.rdb == nil {
		n.mu.RLock()
		local := n.local
		n.mu.RUnlock()
		if local != nil {
			local(channel, payload)
		}
		return nil
	}
	return n.rdb.Publish(ctx, channel, payload).Err()
}

// CommentCreated publishes a comment_created event. Failures are logged.
func (n *Notifier) CommentCreated(ctx context.Context, comment *models.Comment) {
	n.publish(ctx, comment.PostID, Event{
		Type: EventCommentCreated,
		Payload: EventPayload{
			PostID:    comment.PostID,
			CommentID: comment.ID,
			Comment:   comment,
		},
	})
}

// CommentDeleted publishes a comment_deleted event. Failures are logged.
func (n *Notifier) CommentDeleted(ctx context.Context, postID, commentID uint) {
	n.publish(ctx, postID, Event{
		Type:    EventCommentDeleted,
		Payload: EventPayload{PostID: postID, CommentID: commentID},
	})
}

func (n *Notifier) publish(ctx context.Context, postID uint, ev Event) {
	payload, err := encodeEvent(ev)
	if err == nil {
		err = n.PublishPost(ctx, postID, payload)
	}
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish comment event",
			slog.String("type", ev.Type),
			slog.Uint64("post_id", uint64(postID)),
			slog.String("error", err.Error()),
		)
	}
}

// StartCommentSubscriber subscribes to comments:post:* and calls onMessage
// for each incoming message until ctx is done.
func (n *Notifier) StartCommentSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		n.mu.Lock()
		n.local = onMessage
		n.mu.Unlock()
		return nil
	}

	sub := n.rdb.PSubscribe(ctx, postChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe comment events: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in comment subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
