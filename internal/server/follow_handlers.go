package server

import (
	"mutualaid/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// ListFollowing lists members the caller follows
// @Summary List following
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /api/following [get]
func (s *Server) ListFollowing(c *fiber.Ctx) error {
	users, err := s.followService.Following(c.UserContext(), middleware.CallerFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// ListFollowers lists members following the caller
// @Summary List followers
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /api/followers [get]
func (s *Server) ListFollowers(c *fiber.Ctx) error {
	users, err := s.followService.Followers(c.UserContext(), middleware.CallerFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// Follow follows a member
// @Summary Follow user
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 201 {object} models.Follow
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/follow/{id} [post]
func (s *Server) Follow(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	follow, err := s.followService.Follow(c.UserContext(), middleware.CallerFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(follow)
}

// Unfollow stops following a member
// @Summary Unfollow user
// @Tags follows
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /api/follow/{id} [delete]
func (s *Server) Unfollow(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.followService.Unfollow(c.UserContext(), middleware.CallerFrom(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
