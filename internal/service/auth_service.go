package service

import (
	"context"
	"errors"
	"time"

	"mutualaid/internal/auth"
	"mutualaid/internal/authz"
	"mutualaid/internal/cache"
	"mutualaid/internal/config"
	"mutualaid/internal/models"
	"mutualaid/internal/repository"
	"mutualaid/internal/validation"
)

const DefaultLoginTokenTTL = time.Hour

// TokenInfo describes a verified token.
type TokenInfo struct {
	Valid     bool         `json:"valid"`
	UserID    uint         `json:"userId"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// identity is the cached subset of a user needed to build a caller.
type identity struct {
	ID      uint `json:"id"`
	IsAdmin bool `json:"isAdmin"`
}

// AuthService handles login and token verification.
type AuthService struct {
	users    repository.UserRepository
	hasher   auth.PasswordHasher
	tokens   auth.TokenIssuer
	cache    *cache.Cache
	loginTTL time.Duration
}

func NewAuthService(
	users repository.UserRepository,
	hasher auth.PasswordHasher,
	tokens auth.TokenIssuer,
	c *cache.Cache,
	cfg *config.Config,
) *AuthService {
	s := &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		cache:    c,
		loginTTL: DefaultLoginTokenTTL,
	}
	if s.cache == nil {
		s.cache = cache.New(nil)
	}
	if cfg != nil {
		if ttl := cfg.LoginTTL(); ttl > 0 {
			s.loginTTL = ttl
		}
	}
	return s
}

func invalidCredentials() error {
	return models.NewUnauthorizedError("Invalid credentials")
}

// Login verifies the password and issues a short-lived token. Unknown email
// and wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = validation.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, models.NewValidationError("Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, invalidCredentials()
	}
	if err := s.hasher.Verify(user.Password, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, invalidCredentials()
		}
		return nil, models.NewInternalError(err)
	}

	if user.IsProvisional() {
		return nil, &models.AppError{
			Code:    models.CodeRegistration,
			Message: "Registration is not complete",
			Reason:  models.ReasonRegistrationIncomplete,
			UserID:  user.ID,
		}
	}

	token, exp, err := s.tokens.Issue(user.ID, s.loginTTL)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{Token: token, ExpiresAt: exp, User: user}, nil
}

// ValidateToken verifies raw and loads the user it names.
func (s *AuthService) ValidateToken(ctx context.Context, raw string) (*TokenInfo, error) {
	if raw == "" {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError("Invalid or expired token")
		}
		return nil, err
	}
	info := &TokenInfo{Valid: true, UserID: user.ID, User: user}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// Identify implements middleware.CallerResolver. It never fails: problems
// with the token or the user produce an invalid caller.
func (s *AuthService) Identify(ctx context.Context, raw string) authz.Caller {
	if raw == "" {
		return authz.Anonymous()
	}
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return authz.InvalidCredential()
	}

	var id identity
	err = s.cache.Aside(ctx, cache.UserKey(claims.UserID), &id, cache.UserTTL, func() error {
		user, err := s.users.GetByID(ctx, claims.UserID)
		if err != nil {
			return err
		}
		id = identity{ID: user.ID, IsAdmin: user.IsAdmin}
		return nil
	})
	if err != nil || id.ID == 0 {
		return authz.InvalidCredential()
	}
	return authz.Authenticated(id.ID, id.IsAdmin)
}
