package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"mutualaid/internal/auth"
	"mutualaid/internal/config"
	"mutualaid/internal/models"
	"mutualaid/internal/observability"
	"mutualaid/internal/repository"
	"mutualaid/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultProfilePicURL        = "/uploads/default-profile.png"
	DefaultRegistrationTokenTTL = 7 * 24 * time.Hour
)

// RegisterInput is the phase-one signup payload.
type RegisterInput struct {
	Username string
	Name     string
	Email    string
	Password string
}

// RegisterResult identifies the provisional account. No token is issued yet.
type RegisterResult struct {
	UserID uint `json:"userId"`
}

// CompleteInput is the phase-two profile payload. Enum fields are free text
// and are coerced to their defaults when unrecognised.
type CompleteInput struct {
	UserID                 uint
	City                   string
	Country                string
	ShippingResponsibility string
	ShippingOption         string
	ProfilePicURL          string
}

// AuthResult is returned whenever a session token is issued.
type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// RegistrationService implements the two-phase signup.
type RegistrationService struct {
	users      repository.UserRepository
	hasher     auth.PasswordHasher
	tokens     auth.TokenIssuer
	policy     validation.CredentialPolicy
	defaultPic string
	tokenTTL   time.Duration
}

func NewRegistrationService(
	users repository.UserRepository,
	hasher auth.PasswordHasher,
	tokens auth.TokenIssuer,
	cfg *config.Config,
) *RegistrationService {
	s := &RegistrationService{
		users:      users,
		hasher:     hasher,
		tokens:     tokens,
		defaultPic: DefaultProfilePicURL,
		tokenTTL:   DefaultRegistrationTokenTTL,
	}
	if cfg != nil {
		s.policy = validation.CredentialPolicy{Strict: cfg.StrictPasswords}
		if cfg.DefaultProfilePicURL != "" {
			s.defaultPic = cfg.DefaultProfilePicURL
		}
		if ttl := cfg.RegistrationTTL(); ttl > 0 {
			s.tokenTTL = ttl
		}
	}
	return s
}

// RegisterProvisional creates a PROVISIONAL account.
func (s *RegistrationService) RegisterProvisional(ctx context.Context, in RegisterInput) (_ *RegisterResult, err error) {
	ctx, span := observability.StartSpan(ctx, "registration", "provisional")
	defer func() {
		recordRegistration("provisional", err)
		observability.EndSpan(span, err)
	}()

	username := strings.TrimSpace(in.Username)
	name := strings.TrimSpace(in.Name)
	email := validation.NormalizeEmail(in.Email)
	if username == "" || name == "" || email == "" || in.Password == "" {
		return nil, models.NewRegistrationError(models.ReasonMissingField, "Username, name, email and password are required")
	}
	if verr := validation.ValidateEmail(email); verr != nil {
		return nil, models.NewRegistrationError(models.ReasonInvalidEmail, "Invalid email format")
	}
	if verr := s.policy.CheckUsername(username); verr != nil {
		return nil, models.NewValidationError(verr.Error())
	}
	if verr := s.policy.CheckPassword(in.Password); verr != nil {
		return nil, models.NewRegistrationError(models.ReasonWeakPassword, verr.Error())
	}

	// Friendly pre-checks; the unique indexes decide races below.
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, duplicateEmail()
	}
	existing, err = s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, duplicateUsername()
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, models.NewRegistrationError(models.ReasonWeakPassword, err.Error())
		}
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:               username,
		Name:                   name,
		Email:                  email,
		Password:               hash,
		IsAdmin:                false,
		RegistrationStatus:     models.RegistrationProvisional,
		ProfilePicURL:          s.defaultPic,
		ShippingOption:         models.ShippingOptionPickup,
		ShippingResponsibility: models.ShippingResponsibilityReceiver,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if dup, ok := repository.AsDuplicate(err); ok {
			if dup.Field == "username" {
				return nil, duplicateUsername()
			}
			return nil, duplicateEmail()
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int64("user.id", int64(user.ID)))
	return &RegisterResult{UserID: user.ID}, nil
}

// CompleteRegistration stores the profile, marks the account COMPLETE and
// issues the first session token.
func (s *RegistrationService) CompleteRegistration(ctx context.Context, in CompleteInput) (_ *AuthResult, err error) {
	ctx, span := observability.StartSpan(ctx, "registration", "complete",
		attribute.Int64("user.id", int64(in.UserID)))
	defer func() {
		recordRegistration("complete", err)
		observability.EndSpan(span, err)
	}()

	if in.UserID == 0 {
		return nil, models.NewRegistrationError(models.ReasonMissingField, "userId is required")
	}

	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsProvisional() {
		return nil, alreadyComplete()
	}

	completed, err := s.users.CompleteRegistration(ctx, in.UserID, repository.ProfileCompletion{
		City:                   strings.TrimSpace(in.City),
		Country:                strings.TrimSpace(in.Country),
		ShippingOption:         models.ParseShippingOption(in.ShippingOption),
		ShippingResponsibility: models.ParseShippingResponsibility(in.ShippingResponsibility),
		ProfilePicURL:          strings.TrimSpace(in.ProfilePicURL),
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotProvisional) {
			return nil, alreadyComplete()
		}
		return nil, err
	}

	token, exp, err := s.tokens.Issue(completed.ID, s.tokenTTL)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{Token: token, ExpiresAt: exp, User: completed}, nil
}

func duplicateEmail() error {
	return models.NewRegistrationError(models.ReasonDuplicateEmail, "Email already registered")
}

func duplicateUsername() error {
	return models.NewRegistrationError(models.ReasonDuplicateUsername, "Username already taken")
}

func alreadyComplete() error {
	return models.NewRegistrationError(models.ReasonAlreadyComplete, "Registration already completed")
}

func recordRegistration(phase string, err error) {
	outcome := "success"
	var appErr *models.AppError
	switch {
	case err == nil:
	case errors.As(err, &appErr) && appErr.Code != models.CodeInternal:
		outcome = "denied"
		if appErr.Reason != "" {
			outcome = appErr.Reason
		}
	default:
		outcome = "error"
	}
	observability.RegistrationEvents.WithLabelValues(phase, outcome).Inc()
}
