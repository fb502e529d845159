// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"mutualaid/internal/models"

	"gorm.io/gorm"
)

// ErrNotProvisional is returned when completing a registration that is already complete.
var ErrNotProvisional = errors.New("registration is not provisional")

// ProfileCompletion is the phase-two payload stored atomically with the status change.
type ProfileCompletion struct {
	City                   string
	Country                string
	ShippingOption         models.ShippingOption
	ShippingResponsibility models.ShippingResponsibility
	ProfilePicURL          string
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	CompleteRegistration(ctx context.Context, id uint, in ProfileCompletion) (*models.User, error)
	SetAdmin(ctx context.Context, id uint, isAdmin bool) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Location").
		Preload("Location.Country").
		First(&user, id).Error
	if err != nil {
		return nil, wrapReadError(err, "User", id)
	}
	return &user, nil
}

// GetByEmail returns nil, nil when no user has the address.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByUsername returns nil, nil when the username is free.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return wrapWriteError(r.db.WithContext(ctx).Create(user).Error, "User")
}

// Update writes only the given columns, so zero values are stored as-is.
// social_links goes through the struct path so its JSON serializer runs.
func (r *userRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	cols := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		cols[k] = v
	}
	links, hasLinks := cols["social_links"].(models.SocialLinks)
	delete(cols, "social_links")

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").First(&user, id).Error; err != nil {
			return err
		}
		if len(cols) > 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", id).Updates(cols).Error; err != nil {
				return err
			}
		}
		if hasLinks {
			return tx.Model(&models.User{ID: id}).Select("social_links").Updates(&models.User{SocialLinks: links}).Error
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("User", id)
		}
		return wrapWriteError(err, "User")
	}
	return nil
}

// CompleteRegistration resolves the location and flips the status in one
// transaction. The conditional update makes concurrent completions race-free:
// only one caller sees the PROVISIONAL row.
func (r *userRepository) CompleteRegistration(ctx context.Context, id uint, in ProfileCompletion) (*models.User, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields := map[string]interface{}{
			"registration_status":     models.RegistrationComplete,
			"shipping_option":         in.ShippingOption,
			"shipping_responsibility": in.ShippingResponsibility,
		}
		if in.ProfilePicURL != "" {
			fields["profile_pic_url"] = in.ProfilePicURL
		}
		if in.City != "" && in.Country != "" {
			loc, err := findOrCreateLocation(tx, in.City, in.Country)
			if err != nil {
				return err
			}
			fields["location_id"] = loc.ID
		}

		res := tx.Model(&models.User{}).
			Where("id = ? AND registration_status = ?", id, models.RegistrationProvisional).
			Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotProvisional
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotProvisional) {
			return nil, err
		}
		return nil, models.NewInternalError(err)
	}
	return r.GetByID(ctx, id)
}

func (r *userRepository) SetAdmin(ctx context.Context, id uint, isAdmin bool) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_admin", isAdmin)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

// Delete removes the user together with everything the user owns or is party to.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").First(&user, id).Error; err != nil {
			return err
		}

		postIDs := tx.Model(&models.Post{}).Select("id").Where("user_id = ?", id)
		collectionIDs := tx.Model(&models.Collection{}).Select("id").Where("user_id = ?", id)

		steps := []func() error{
			func() error {
				return tx.Exec("DELETE FROM collection_posts WHERE collection_id IN (?) OR post_id IN (?)", collectionIDs, postIDs).Error
			},
			func() error { return tx.Where("user_id = ?", id).Delete(&models.Collection{}).Error },
			func() error {
				return tx.Where("user_id = ? OR post_id IN (?)", id, postIDs).Delete(&models.Like{}).Error
			},
			func() error {
				return tx.Where("user_id = ? OR post_id IN (?)", id, postIDs).Delete(&models.Favorite{}).Error
			},
			func() error {
				return tx.Where("user_id = ? OR post_id IN (?)", id, postIDs).Delete(&models.Comment{}).Error
			},
			func() error { return tx.Where("post_id IN (?)", postIDs).Delete(&models.Image{}).Error },
			func() error { return tx.Where("post_id IN (?)", postIDs).Delete(&models.Media{}).Error },
			func() error { return tx.Where("user_id = ?", id).Delete(&models.Post{}).Error },
			func() error {
				return tx.Where("follower_id = ? OR following_id = ?", id, id).Delete(&models.Follow{}).Error
			},
			func() error {
				return tx.Where("sender_id = ? OR receiver_id = ?", id, id).Delete(&models.Message{}).Error
			},
			func() error { return tx.Delete(&models.User{}, id).Error },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return wrapReadError(err, "User", id)
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Preload("Location").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
