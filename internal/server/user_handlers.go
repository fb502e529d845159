package server

import (
	"mutualaid/internal/middleware"
	"mutualaid/internal/models"
	"mutualaid/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UpdateUserRequest is a partial profile update. Omitted fields are unchanged.
type UpdateUserRequest struct {
	Username               *string            `json:"username"`
	Name                   *string            `json:"name"`
	Email                  *string            `json:"email"`
	Password               *string            `json:"password"`
	Bio                    *string            `json:"bio"`
	WebsiteURL             *string            `json:"websiteUrl"`
	ProfilePicURL          *string            `json:"profilePicUrl"`
	SocialLinks            models.SocialLinks `json:"socialLinks"`
	City                   *string            `json:"city"`
	Country                *string            `json:"country"`
	ShippingOption         *string            `json:"shippingOption"`
	ShippingResponsibility *string            `json:"shippingResponsibility"`
}

// ListUsers lists members
// @Summary List users
// @Tags users
// @Produce json
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} models.User
// @Router /api/users [get]
func (s *Server) ListUsers(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPaginationLimit)
	users, err := s.userService.ListUsers(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetUser returns one member
// @Summary Get user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /api/users/{id} [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.userService.GetUser(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// GetUserPosts lists a member's posts
// @Summary List a user's posts
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /api/users/{id}/posts [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultPaginationLimit)
	posts, err := s.userService.GetUserPosts(c.UserContext(), id, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// UpdateUser edits the caller's own profile
// @Summary Update profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body UpdateUserRequest true "Fields to change"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/users/{id} [put]
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req UpdateUserRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), middleware.CallerFrom(c), id, service.UpdateProfileInput{
		Username:               req.Username,
		Name:                   req.Name,
		Email:                  req.Email,
		Password:               req.Password,
		Bio:                    req.Bio,
		WebsiteURL:             req.WebsiteURL,
		ProfilePicURL:          req.ProfilePicURL,
		SocialLinks:            req.SocialLinks,
		City:                   req.City,
		Country:                req.Country,
		ShippingOption:         req.ShippingOption,
		ShippingResponsibility: req.ShippingResponsibility,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// DeleteUser removes the caller's own account
// @Summary Delete account
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/users/{id} [delete]
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.userService.DeleteUser(c.UserContext(), middleware.CallerFrom(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PromoteAdmin grants admin rights
// @Summary Promote user to admin
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 403 {object} models.ErrorResponse
// @Router /api/users/{id}/promote-admin [post]
func (s *Server) PromoteAdmin(c *fiber.Ctx) error {
	return s.setAdmin(c, true)
}

// DemoteAdmin revokes admin rights
// @Summary Demote admin
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 403 {object} models.ErrorResponse
// @Router /api/users/{id}/demote-admin [post]
func (s *Server) DemoteAdmin(c *fiber.Ctx) error {
	return s.setAdmin(c, false)
}

func (s *Server) setAdmin(c *fiber.Ctx, isAdmin bool) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.userService.SetAdmin(c.UserContext(), middleware.CallerFrom(c), id, isAdmin)
	if err != nil {
		return respondError(c, err)
	}
	middleware.Logger.InfoContext(c.UserContext(), "admin role changed",
		"target_user_id", id, "is_admin", isAdmin)
	return c.JSON(user)
}
