package server

import (
	"mutualaid/internal/middleware"
	"mutualaid/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebSocketUpgrade admits authenticated websocket upgrades. Browsers pass the
// session token as ?token= since they cannot set headers on the handshake.
func (s *Server) WebSocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if !middleware.CallerFrom(c).IsAuthenticated() {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authentication required"))
		}
		if s.hub == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
				Error: "Realtime notifications are unavailable",
			})
		}
		return c.Next()
	}
}

// WebSocketHandler streams the caller's notification events.
// @Summary Realtime notifications
// @Description Upgrades to a websocket that receives message and follower events for the caller.
// @Tags realtime
// @Param token query string true "Session token"
// @Success 101
// @Failure 401 {object} models.ErrorResponse
// @Router /api/ws [get]
func (s *Server) WebSocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		uid, ok := conn.Locals("userID").(uint)
		if !ok || uid == 0 {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(uid, conn)
		if err != nil {
			_ = conn.WriteJSON(fiber.Map{"type": "error", "error": err.Error()})
			_ = conn.Close()
			return
		}
		defer s.hub.UnregisterClient(client)

		client.Serve()
	})
}
