package server

import (
	"mutualaid/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// SendMessageRequest is a direct message to another member.
type SendMessageRequest struct {
	ReceiverID uint   `json:"receiverId"`
	Content    string `json:"content"`
}

// ListMessages lists messages the caller sent or received
// @Summary List my messages
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} models.Message
// @Failure 401 {object} models.ErrorResponse
// @Router /api/messages [get]
func (s *Server) ListMessages(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	msgs, err := s.messageService.ListMine(c.UserContext(), middleware.CallerFrom(c), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(msgs)
}

// SendMessage sends a direct message
// @Summary Send message
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SendMessageRequest true "Message"
// @Success 201 {object} models.Message
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/messages [post]
func (s *Server) SendMessage(c *fiber.Ctx) error {
	var req SendMessageRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	msg, err := s.messageService.Send(c.UserContext(), middleware.CallerFrom(c), req.ReceiverID, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// GetMessage returns one message to its sender or receiver
// @Summary Get message
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 200 {object} models.Message
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/messages/{id} [get]
func (s *Server) GetMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	msg, err := s.messageService.Get(c.UserContext(), middleware.CallerFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(msg)
}

// DeleteMessage removes a message
// @Summary Delete message
// @Tags messages
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /api/messages/{id} [delete]
func (s *Server) DeleteMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.messageService.Delete(c.UserContext(), middleware.CallerFrom(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
