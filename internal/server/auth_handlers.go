package server

import (
	"mutualaid/internal/middleware"
	"mutualaid/internal/models"
	"mutualaid/internal/service"

	"github.com/gofiber/fiber/v2"
)

// RegisterRequest is the phase-one signup body.
type RegisterRequest struct {
	Username string `json:"username" form:"username"`
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// CompleteRegistrationRequest is the phase-two profile body.
type CompleteRegistrationRequest struct {
	UserID                 uint   `json:"userId" form:"userId"`
	City                   string `json:"city" form:"city"`
	Country                string `json:"country" form:"country"`
	ShippingResponsibility string `json:"shippingResponsibility" form:"shippingResponsibility"`
	ShippingOption         string `json:"shippingOption" form:"shippingOption"`
	ProfilePicURL          string `json:"profilePicUrl" form:"profilePicUrl"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// RegisterStep1 creates a provisional account
// @Summary Start registration
// @Description Creates a provisional account. No token is issued until the profile is completed.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Account details"
// @Success 200 {object} service.RegisterResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /api/register-step1 [post]
func (s *Server) RegisterStep1(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	res, err := s.registrationService.RegisterProvisional(c.UserContext(), service.RegisterInput{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

// RegisterStep2 completes a provisional account and issues a token
// @Summary Complete registration
// @Tags auth
// @Accept json
// @Produce json
// @Param request body CompleteRegistrationRequest true "Profile details"
// @Success 200 {object} service.AuthResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/register-step2 [post]
func (s *Server) RegisterStep2(c *fiber.Ctx) error {
	var req CompleteRegistrationRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.UserID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewRegistrationError(models.ReasonMissingField, "userId is required"))
	}

	res, err := s.registrationService.CompleteRegistration(c.UserContext(), service.CompleteInput{
		UserID:                 req.UserID,
		City:                   req.City,
		Country:                req.Country,
		ShippingResponsibility: req.ShippingResponsibility,
		ShippingOption:         req.ShippingOption,
		ProfilePicURL:          req.ProfilePicURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// Login handles user login
// @Summary Login user
// @Description Authenticate a completed account and issue a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} service.AuthResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	res, err := s.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if models.IsCode(err, models.CodeUnauthorized) {
			middleware.Logger.WarnContext(c.UserContext(), "login failed", "ip", c.IP())
		}
		return respondError(c, err)
	}
	return c.JSON(res)
}

// ValidateToken reports whether the bearer token is valid
// @Summary Validate session token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.TokenInfo
// @Failure 401 {object} models.ErrorResponse
// @Router /api/validate-token [get]
func (s *Server) ValidateToken(c *fiber.Ctx) error {
	info, err := s.authService.ValidateToken(c.UserContext(), middleware.BearerToken(c, false))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(info)
}
