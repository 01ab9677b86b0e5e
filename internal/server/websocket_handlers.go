package server

import (
	"log/slog"

	"inkwell/internal/featureflags"
	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const localsPostID = "postID"

// LiveCommentsGate admits websocket upgrades for the live comment stream of
// one post when the live_comments flag is on for the caller.
func (s *Server) LiveCommentsGate(c *fiber.Ctx) error {
	if !s.featureFlags.Enabled(featureflags.LiveComments, middleware.UserID(c)) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			&models.AppError{Code: models.CodeNotFound, Message: "Live comments are disabled"})
	}
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	c.Locals(localsPostID, postID)
	return c.Next()
}

// LiveCommentsHandler streams comment_created and comment_deleted events of
// the post to the connected reader.
func (s *Server) LiveCommentsHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		postID, _ := conn.Locals(localsPostID).(uint)
		userID, _ := conn.Locals("userID").(string)

		client, err := s.hub.Register(postID, userID, conn)
		if err != nil {
			middleware.Logger.Warn("live comments registration refused",
				slog.Uint64("post_id", uint64(postID)), slog.String("error", err.Error()))
			_ = conn.WriteJSON(models.ErrorResponse{Error: err.Error()})
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
