package repository

import (
	"context"

	"mutualaid/internal/models"

	"gorm.io/gorm"
)

// EngagementRepository covers likes, favorites and comments on posts.
type EngagementRepository interface {
	Like(ctx context.Context, userID, postID uint) (*models.Like, error)
	Unlike(ctx context.Context, userID, postID uint) error
	CountLikes(ctx context.Context, postID uint) (int64, error)

	Favorite(ctx context.Context, userID, postID uint) (*models.Favorite, error)
	Unfavorite(ctx context.Context, userID, postID uint) error
	ListFavorites(ctx context.Context, userID uint) ([]models.Favorite, error)

	ListComments(ctx context.Context, postID uint) ([]models.Comment, error)
	GetComment(ctx context.Context, id uint) (*models.Comment, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
	UpdateComment(ctx context.Context, id uint, content string) (*models.Comment, error)
	DeleteComment(ctx context.Context, id uint) error
}

type engagementRepository struct {
	db *gorm.DB
}

// NewEngagementRepository returns a new EngagementRepository implementation.
func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

func (r *engagementRepository) postExists(ctx context.Context, postID uint) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		return models.NewInternalError(err)
	}
	if count == 0 {
		return models.NewNotFoundError("Post", postID)
	}
	return nil
}

// Like fails with a conflict when the user already likes the post.
func (r *engagementRepository) Like(ctx context.Context, userID, postID uint) (*models.Like, error) {
	if err := r.postExists(ctx, postID); err != nil {
		return nil, err
	}
	like := &models.Like{UserID: userID, PostID: postID}
	if err := r.db.WithContext(ctx).Create(like).Error; err != nil {
		if _, dup := uniqueViolation(err); dup {
			return nil, models.NewConflictError("Post already liked")
		}
		return nil, models.NewInternalError(err)
	}
	return like, nil
}

func (r *engagementRepository) Unlike(ctx context.Context, userID, postID uint) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Like{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Like", postID)
	}
	return nil
}

func (r *engagementRepository) CountLikes(ctx context.Context, postID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *engagementRepository) Favorite(ctx context.Context, userID, postID uint) (*models.Favorite, error) {
	if err := r.postExists(ctx, postID); err != nil {
		return nil, err
	}
	fav := &models.Favorite{UserID: userID, PostID: postID}
	if err := r.db.WithContext(ctx).Omit("Post").Create(fav).Error; err != nil {
		if _, dup := uniqueViolation(err); dup {
			return nil, models.NewConflictError("Post already in favorites")
		}
		return nil, models.NewInternalError(err)
	}
	return fav, nil
}

func (r *engagementRepository) Unfavorite(ctx context.Context, userID, postID uint) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Favorite{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Favorite", postID)
	}
	return nil
}

func (r *engagementRepository) ListFavorites(ctx context.Context, userID uint) ([]models.Favorite, error) {
	var favs []models.Favorite
	if err := r.db.WithContext(ctx).
		Preload("Post").
		Preload("Post.Images").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&favs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return favs, nil
}

// ListComments returns a post's comments oldest first.
func (r *engagementRepository) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *engagementRepository) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, wrapReadError(err, "Comment", id)
	}
	return &comment, nil
}

func (r *engagementRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	if err := r.postExists(ctx, comment.PostID); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Omit("User").Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *engagementRepository) UpdateComment(ctx context.Context, id uint, content string) (*models.Comment, error) {
	res := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Update("content", content)
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("Comment", id)
	}
	return r.GetComment(ctx, id)
}

func (r *engagementRepository) DeleteComment(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	return nil
}
