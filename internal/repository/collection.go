package repository

import (
	"context"

	"mutualaid/internal/models"

	"gorm.io/gorm"
)

// CollectionRepository defines persistence operations for user collections.
type CollectionRepository interface {
	Create(ctx context.Context, c *models.Collection) error
	GetByID(ctx context.Context, id uint) (*models.Collection, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Collection, error)
	Rename(ctx context.Context, id uint, name string) (*models.Collection, error)
	AddPost(ctx context.Context, collectionID, postID uint) (*models.Collection, error)
	RemovePost(ctx context.Context, collectionID, postID uint) (*models.Collection, error)
	Delete(ctx context.Context, id uint) error
}

type collectionRepository struct {
	db *gorm.DB
}

// NewCollectionRepository returns a new CollectionRepository implementation.
func NewCollectionRepository(db *gorm.DB) CollectionRepository {
	return &collectionRepository{db: db}
}

func (r *collectionRepository) Create(ctx context.Context, c *models.Collection) error {
	if err := r.db.WithContext(ctx).Omit("Posts.*").Create(c).Error; err != nil {
		return models.NewInternalError(err)
	}
	if c.Posts == nil {
		c.Posts = []models.Post{}
	}
	return nil
}

func (r *collectionRepository) GetByID(ctx context.Context, id uint) (*models.Collection, error) {
	var c models.Collection
	if err := r.db.WithContext(ctx).Preload("Posts").First(&c, id).Error; err != nil {
		return nil, wrapReadError(err, "Collection", id)
	}
	return &c, nil
}

func (r *collectionRepository) ListByUser(ctx context.Context, userID uint) ([]models.Collection, error) {
	var cs []models.Collection
	if err := r.db.WithContext(ctx).
		Preload("Posts").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&cs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return cs, nil
}

func (r *collectionRepository) Rename(ctx context.Context, id uint, name string) (*models.Collection, error) {
	res := r.db.WithContext(ctx).Model(&models.Collection{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("Collection", id)
	}
	return r.GetByID(ctx, id)
}

// AddPost is idempotent: adding a post that is already present is a no-op.
func (r *collectionRepository) AddPost(ctx context.Context, collectionID, postID uint) (*models.Collection, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c := models.Collection{ID: collectionID}
		post := models.Post{ID: postID}
		if err := tx.First(&post, postID).Error; err != nil {
			return err
		}
		var present int64
		if err := tx.Table("collection_posts").
			Where("collection_id = ? AND post_id = ?", collectionID, postID).
			Count(&present).Error; err != nil {
			return err
		}
		if present > 0 {
			return nil
		}
		return tx.Model(&c).Omit("Posts.*").Association("Posts").Append(&post)
	})
	if err != nil {
		return nil, wrapReadError(err, "Post", postID)
	}
	return r.GetByID(ctx, collectionID)
}

func (r *collectionRepository) RemovePost(ctx context.Context, collectionID, postID uint) (*models.Collection, error) {
	c := models.Collection{ID: collectionID}
	if err := r.db.WithContext(ctx).Model(&c).Association("Posts").Delete(&models.Post{ID: postID}); err != nil {
		return nil, models.NewInternalError(err)
	}
	return r.GetByID(ctx, collectionID)
}

func (r *collectionRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec("DELETE FROM collection_posts WHERE collection_id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		res = tx.Delete(&models.Collection{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return wrapReadError(err, "Collection", id)
}
