package repository

import (
	"context"

	"mutualaid/internal/models"

	"gorm.io/gorm"
)

// MediaRepository stores post images and other media attachments.
type MediaRepository interface {
	ListImages(ctx context.Context, postID uint) ([]models.Image, error)
	GetImage(ctx context.Context, id uint) (*models.Image, error)
	CreateImage(ctx context.Context, img *models.Image) error
	DeleteImage(ctx context.Context, id uint) error

	ListMedia(ctx context.Context, postID uint) ([]models.Media, error)
	GetMedia(ctx context.Context, id uint) (*models.Media, error)
	CreateMedia(ctx context.Context, m *models.Media) error
	DeleteMedia(ctx context.Context, id uint) error

	// CountURLRefs counts image and media rows whose URL matches a LIKE pattern.
	CountURLRefs(ctx context.Context, pattern string) (int64, error)
	// ImageURLsByOwner lists the image URLs attached to a user's posts.
	ImageURLsByOwner(ctx context.Context, userID uint) ([]string, error)
}

type mediaRepository struct {
	db *gorm.DB
}

// NewMediaRepository returns a new MediaRepository implementation.
func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &mediaRepository{db: db}
}

func (r *mediaRepository) byPost(ctx context.Context, postID uint) *gorm.DB {
	q := r.db.WithContext(ctx)
	if postID != 0 {
		q = q.Where("post_id = ?", postID)
	}
	return q.Order("id ASC")
}

// ListImages returns every image when postID is zero.
func (r *mediaRepository) ListImages(ctx context.Context, postID uint) ([]models.Image, error) {
	var images []models.Image
	if err := r.byPost(ctx, postID).Find(&images).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return images, nil
}

func (r *mediaRepository) GetImage(ctx context.Context, id uint) (*models.Image, error) {
	var img models.Image
	if err := r.db.WithContext(ctx).Preload("Post").First(&img, id).Error; err != nil {
		return nil, wrapReadError(err, "Image", id)
	}
	return &img, nil
}

func (r *mediaRepository) CreateImage(ctx context.Context, img *models.Image) error {
	if err := r.db.WithContext(ctx).Omit("Post").Create(img).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *mediaRepository) DeleteImage(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Image{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Image", id)
	}
	return nil
}

// ListMedia returns every media row when postID is zero.
func (r *mediaRepository) ListMedia(ctx context.Context, postID uint) ([]models.Media, error) {
	var media []models.Media
	if err := r.byPost(ctx, postID).Find(&media).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return media, nil
}

func (r *mediaRepository) GetMedia(ctx context.Context, id uint) (*models.Media, error) {
	var m models.Media
	if err := r.db.WithContext(ctx).Preload("Post").First(&m, id).Error; err != nil {
		return nil, wrapReadError(err, "Media", id)
	}
	return &m, nil
}

func (r *mediaRepository) CreateMedia(ctx context.Context, m *models.Media) error {
	if err := r.db.WithContext(ctx).Omit("Post").Create(m).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *mediaRepository) DeleteMedia(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Media{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Media", id)
	}
	return nil
}

func (r *mediaRepository) CountURLRefs(ctx context.Context, pattern string) (int64, error) {
	var images, media int64
	if err := r.db.WithContext(ctx).Model(&models.Image{}).Where("url LIKE ?", pattern).Count(&images).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).Model(&models.Media{}).Where("url LIKE ?", pattern).Count(&media).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return images + media, nil
}

func (r *mediaRepository) ImageURLsByOwner(ctx context.Context, userID uint) ([]string, error) {
	var urls []string
	err := r.db.WithContext(ctx).Model(&models.Image{}).
		Joins("JOIN posts ON posts.id = images.post_id").
		Where("posts.user_id = ?", userID).
		Pluck("images.url", &urls).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return urls, nil
}
