package notifications

import (
	"encoding/json"
	"strconv"
	"strings"

	"inkwell/internal/models"
)

// Event types delivered on a post's comment stream.
const (
	EventCommentCreated = "comment_created"
	EventCommentDeleted = "comment_deleted"
)

const postChannelPrefix = "comments:post:"

var droppedNotice = []byte(`{"type":"messages_dropped","payload":{"reason":"buffer_full"}}`)

// Event is the envelope written to websocket clients.
type Event struct {
	Type    string       `json:"type"`
	Payload EventPayload `json:"payload"`
}

// EventPayload carries the comment for created events and the ids for
// deleted events.
type EventPayload struct {
	PostID    uint            `json:"postId"`
	CommentID uint            `json:"commentId"`
	Comment   *models.Comment `json:"comment,omitempty"`
}

// PostChannel derives the Redis channel name for a post's comment stream.
func PostChannel(postID uint) string {
	return postChannelPrefix + strconv.FormatUint(uint64(postID), 10)
}

// parsePostChannel extracts the post id from a comments:post:<id> channel.
func parsePostChannel(channel string) (uint, bool) {
	raw, ok := strings.CutPrefix(channel, postChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func encodeEvent(ev Event) (string, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
