package service

import (
	"context"
	"errors"
	"strings"

	"mutualaid/internal/auth"
	"mutualaid/internal/authz"
	"mutualaid/internal/cache"
	"mutualaid/internal/models"
	"mutualaid/internal/repository"
	"mutualaid/internal/storage"
	"mutualaid/internal/validation"
)

const (
	maxBioLen  = 500
	maxNameLen = 100
)

// UpdateProfileInput carries a partial profile update; nil fields are left alone.
type UpdateProfileInput struct {
	Username               *string
	Name                   *string
	Email                  *string
	Password               *string
	Bio                    *string
	WebsiteURL             *string
	ProfilePicURL          *string
	SocialLinks            models.SocialLinks
	City                   *string
	Country                *string
	ShippingOption         *string
	ShippingResponsibility *string
}

type UserService struct {
	users     repository.UserRepository
	posts     repository.PostRepository
	locations repository.LocationRepository
	hasher    auth.PasswordHasher
	policy    validation.CredentialPolicy
	cache     *cache.Cache
	files     imageFiles
	authz     authorizer
}

func NewUserService(
	users repository.UserRepository,
	posts repository.PostRepository,
	locations repository.LocationRepository,
	media repository.MediaRepository,
	store storage.Storage,
	hasher auth.PasswordHasher,
	policy validation.CredentialPolicy,
	c *cache.Cache,
	engine *authz.Engine,
) *UserService {
	if c == nil {
		c = cache.New(nil)
	}
	return &UserService{
		users:     users,
		posts:     posts,
		locations: locations,
		hasher:    hasher,
		policy:    policy,
		cache:     c,
		files:     imageFiles{media: media, storage: store},
		authz:     newAuthorizer(engine),
	}
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.users.List(ctx, limit, offset)
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// GetUserPosts lists a user's posts, newest first.
func (s *UserService) GetUserPosts(ctx context.Context, id uint, limit, offset int) ([]models.Post, error) {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.posts.List(ctx, repository.PostFilter{UserID: id}, limit, offset)
}

// UpdateProfile applies a self-service edit. isAdmin cannot be changed here.
func (s *UserService) UpdateProfile(ctx context.Context, caller authz.Caller, id uint, in UpdateProfileInput) (*models.User, error) {
	if err := s.authz.precheck(caller, authz.ActionUpdate, authz.KindUser); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.authorize(caller, authz.ActionUpdate, authz.Resource{Kind: authz.KindUser, OwnerID: user.ID}); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := s.policy.CheckUsername(username); err != nil {
			return nil, models.NewValidationError("Invalid username: " + err.Error())
		}
		if username != user.Username {
			other, err := s.users.GetByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != user.ID {
				return nil, models.NewConflictError("Username already taken")
			}
			fields["username"] = username
		}
	}
	if in.Email != nil {
		email := validation.NormalizeEmail(*in.Email)
		if err := validation.ValidateEmail(email); err != nil {
			return nil, models.NewValidationError("Invalid email format")
		}
		if email != user.Email {
			other, err := s.users.GetByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != user.ID {
				return nil, models.NewConflictError("Email already registered")
			}
			fields["email"] = email
		}
	}
	if in.Password != nil {
		if err := s.policy.CheckPassword(*in.Password); err != nil {
			return nil, models.NewValidationError("Invalid password: " + err.Error())
		}
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			if errors.Is(err, auth.ErrPasswordTooLong) {
				return nil, models.NewValidationError("Invalid password: " + err.Error())
			}
			return nil, models.NewInternalError(err)
		}
		fields["password"] = hash
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, models.NewValidationError("Name cannot be empty")
		}
		if len(name) > maxNameLen {
			return nil, models.NewValidationError("Name too long (max 100 characters)")
		}
		fields["name"] = name
	}
	if in.Bio != nil {
		if len(*in.Bio) > maxBioLen {
			return nil, models.NewValidationError("Bio too long (max 500 characters)")
		}
		fields["bio"] = *in.Bio
	}
	if in.WebsiteURL != nil {
		fields["website_url"] = strings.TrimSpace(*in.WebsiteURL)
	}
	if in.ProfilePicURL != nil {
		fields["profile_pic_url"] = strings.TrimSpace(*in.ProfilePicURL)
	}
	if in.SocialLinks != nil {
		fields["social_links"] = in.SocialLinks
	}
	if in.ShippingOption != nil {
		fields["shipping_option"] = models.ParseShippingOption(*in.ShippingOption)
	}
	if in.ShippingResponsibility != nil {
		fields["shipping_responsibility"] = models.ParseShippingResponsibility(*in.ShippingResponsibility)
	}
	if in.City != nil && in.Country != nil {
		city, country := strings.TrimSpace(*in.City), strings.TrimSpace(*in.Country)
		if city == "" || country == "" {
			fields["location_id"] = nil
		} else {
			loc, err := s.locations.FindOrCreate(ctx, city, country)
			if err != nil {
				return nil, err
			}
			fields["location_id"] = loc.ID
		}
	}

	if err := s.users.Update(ctx, user.ID, fields); err != nil {
		if dup, ok := repository.AsDuplicate(err); ok {
			return nil, conflictForField(dup.Field)
		}
		return nil, err
	}
	return s.users.GetByID(ctx, user.ID)
}

// DeleteUser removes the caller's own account and everything attached to it,
// including stored images no remaining row references.
func (s *UserService) DeleteUser(ctx context.Context, caller authz.Caller, id uint) error {
	if err := s.authz.precheck(caller, authz.ActionDelete, authz.KindUser); err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.authorize(caller, authz.ActionDelete, authz.Resource{Kind: authz.KindUser, OwnerID: user.ID}); err != nil {
		return err
	}
	var uploads []string
	if s.files.media != nil {
		if uploads, err = s.files.media.ImageURLsByOwner(ctx, user.ID); err != nil {
			return err
		}
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return err
	}
	s.cache.InvalidateUser(ctx, user.ID)
	s.files.release(ctx, uploads)
	return nil
}

// SetAdmin grants or revokes the admin flag. Only admins may call it.
func (s *UserService) SetAdmin(ctx context.Context, caller authz.Caller, targetID uint, isAdmin bool) (*models.User, error) {
	if err := s.authz.precheck(caller, authz.ActionUpdate, authz.KindUserRole); err != nil {
		return nil, err
	}
	if err := s.authz.authorize(caller, authz.ActionUpdate, authz.Resource{Kind: authz.KindUserRole, OwnerID: targetID}); err != nil {
		return nil, err
	}
	if err := s.users.SetAdmin(ctx, targetID, isAdmin); err != nil {
		return nil, err
	}
	s.cache.InvalidateUser(ctx, targetID)
	return s.users.GetByID(ctx, targetID)
}

func conflictForField(field string) error {
	switch field {
	case "username":
		return models.NewConflictError("Username already taken")
	case "email":
		return models.NewConflictError("Email already registered")
	default:
		return models.NewConflictError("User already exists")
	}
}
