package repository

import (
	"context"
	"strings"

	"mutualaid/internal/models"

	"gorm.io/gorm"
)

// PostFilter narrows post listings. Zero fields are ignored.
type PostFilter struct {
	// Category matches the category name case-insensitively.
	Category string
	UserID   uint
	Type     models.PostType
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, filter PostFilter, limit, offset int) ([]models.Post, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) (*models.Post, error)
	Delete(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("Category").
		Preload("Location").
		Preload("Location.Country").
		Preload("Images").
		Preload("Media")
}

// Create inserts the post and any images attached to it.
func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return wrapWriteError(err, "Post")
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.withDetails(r.db.WithContext(ctx)).First(&post, id).Error; err != nil {
		return nil, wrapReadError(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter, limit, offset int) ([]models.Post, error) {
	q := r.withDetails(r.db.WithContext(ctx)).Model(&models.Post{})

	if name := strings.TrimSpace(filter.Category); name != "" {
		q = q.Joins("JOIN categories ON categories.id = posts.category_id").
			Where("LOWER(categories.name) = ?", strings.ToLower(name))
	}
	if filter.UserID != 0 {
		q = q.Where("posts.user_id = ?", filter.UserID)
	}
	if filter.Type != "" {
		q = q.Where("posts.type = ?", filter.Type)
	}

	var posts []models.Post
	if err := q.Order("posts.created_at DESC").Order("posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) (*models.Post, error) {
	if len(fields) > 0 {
		res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, wrapWriteError(res.Error, "Post")
		}
		if res.RowsAffected == 0 {
			return nil, models.NewNotFoundError("Post", id)
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes the post and its dependent rows.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, id).Error; err != nil {
			return err
		}
		for _, m := range []interface{}{&models.Image{}, &models.Media{}, &models.Like{}, &models.Favorite{}, &models.Comment{}} {
			if err := tx.Where("post_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		if err := tx.Exec("DELETE FROM collection_posts WHERE post_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, id).Error
	})
	return wrapReadError(err, "Post", id)
}
