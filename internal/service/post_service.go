package service

import (
	"context"
	"strings"

	"mutualaid/internal/authz"
	"mutualaid/internal/models"
	"mutualaid/internal/repository"
	"mutualaid/internal/storage"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 10000
)

// CreatePostInput is the payload for a new post or callout.
type CreatePostInput struct {
	Title                  string
	Description            string
	Type                   string
	CategoryID             uint
	LocationID             *uint
	ShippingOption         string
	ShippingResponsibility string
	ShippingCost           *float64
	IsFeatured             bool
	ImageURLs              []string
	// Upload, when set, is stored and attached as the first image.
	Upload *storage.Upload
}

// UpdatePostInput is a partial post update; nil fields are left alone.
type UpdatePostInput struct {
	Title                  *string
	Description            *string
	Type                   *string
	CategoryID             *uint
	LocationID             *uint
	IsAvailable            *bool
	IsFeatured             *bool
	ShippingOption         *string
	ShippingResponsibility *string
	ShippingCost           *float64
}

type PostService struct {
	posts      repository.PostRepository
	categories repository.CategoryRepository
	locations  repository.LocationRepository
	storage    storage.Storage
	files      imageFiles
	authz      authorizer
}

func NewPostService(
	posts repository.PostRepository,
	categories repository.CategoryRepository,
	locations repository.LocationRepository,
	media repository.MediaRepository,
	store storage.Storage,
	engine *authz.Engine,
) *PostService {
	return &PostService{
		posts:      posts,
		categories: categories,
		locations:  locations,
		storage:    store,
		files:      imageFiles{media: media, storage: store},
		authz:      newAuthorizer(engine),
	}
}

// ListPosts filters by category name when one is given.
func (s *PostService) ListPosts(ctx context.Context, filter repository.PostFilter, limit, offset int) ([]models.Post, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, models.NewValidationError("Invalid post type")
	}
	return s.posts.List(ctx, filter, limit, offset)
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.posts.GetByID(ctx, id)
}

func parsePostType(raw string) (models.PostType, error) {
	t := models.PostType(strings.ToLower(strings.TrimSpace(raw)))
	if t == "" {
		return models.PostTypePost, nil
	}
	if !t.Valid() {
		return "", models.NewValidationError("Type must be 'post' or 'callout'")
	}
	return t, nil
}

func validateTitle(title string) error {
	if title == "" {
		return models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLen {
		return models.NewValidationError("Title too long (max 200 characters)")
	}
	return nil
}

func (s *PostService) requireCategory(ctx context.Context, id uint) error {
	if id == 0 {
		return models.NewValidationError("Category is required")
	}
	if _, err := s.categories.GetByID(ctx, id); err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return models.NewValidationError("Category does not exist")
		}
		return err
	}
	return nil
}

func (s *PostService) requireLocation(ctx context.Context, id *uint) error {
	if id == nil {
		return nil
	}
	if _, err := s.locations.GetByID(ctx, *id); err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return models.NewValidationError("Location does not exist")
		}
		return err
	}
	return nil
}

// CreatePost publishes a post owned by the caller.
func (s *PostService) CreatePost(ctx context.Context, caller authz.Caller, in CreatePostInput) (*models.Post, error) {
	if err := s.authz.authorize(caller, authz.ActionCreate, authz.Resource{Kind: authz.KindPost, OwnerID: caller.UserID}); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if len(in.Description) > maxDescriptionLen {
		return nil, models.NewValidationError("Description too long (max 10000 characters)")
	}
	postType, err := parsePostType(in.Type)
	if err != nil {
		return nil, err
	}
	if in.ShippingCost != nil && *in.ShippingCost < 0 {
		return nil, models.NewValidationError("Shipping cost cannot be negative")
	}
	if err := s.requireCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	if err := s.requireLocation(ctx, in.LocationID); err != nil {
		return nil, err
	}
	if err := rejectStoredURLs(in.ImageURLs...); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:                  title,
		Description:            in.Description,
		Type:                   postType,
		IsAvailable:            true,
		IsFeatured:             in.IsFeatured,
		ShippingCost:           in.ShippingCost,
		ShippingOption:         models.ParseShippingOption(in.ShippingOption),
		ShippingResponsibility: models.ParseShippingResponsibility(in.ShippingResponsibility),
		UserID:                 caller.UserID,
		CategoryID:             in.CategoryID,
		LocationID:             in.LocationID,
	}

	var stored *storage.StoredFile
	if in.Upload != nil && s.storage != nil {
		upload := *in.Upload
		upload.OwnerID = caller.UserID
		stored, err = s.storage.Save(ctx, upload)
		if err != nil {
			return nil, err
		}
		post.Images = append(post.Images, models.Image{URL: stored.URL})
	}
	for _, u := range in.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			post.Images = append(post.Images, models.Image{URL: u})
		}
	}

	if err := s.posts.Create(ctx, post); err != nil {
		s.files.discard(ctx, stored)
		return nil, err
	}
	return s.posts.GetByID(ctx, post.ID)
}

// UpdatePost lets the author or an admin edit a post.
func (s *PostService) UpdatePost(ctx context.Context, caller authz.Caller, id uint, in UpdatePostInput) (*models.Post, error) {
	if err := s.authz.precheck(caller, authz.ActionUpdate, authz.KindPost); err != nil {
		return nil, err
	}
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.authorize(caller, authz.ActionUpdate, authz.Resource{Kind: authz.KindPost, OwnerID: post.UserID}); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		fields["title"] = title
	}
	if in.Description != nil {
		if len(*in.Description) > maxDescriptionLen {
			return nil, models.NewValidationError("Description too long (max 10000 characters)")
		}
		fields["description"] = *in.Description
	}
	if in.Type != nil {
		t, err := parsePostType(*in.Type)
		if err != nil {
			return nil, err
		}
		fields["type"] = t
	}
	if in.CategoryID != nil {
		if err := s.requireCategory(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
		fields["category_id"] = *in.CategoryID
	}
	if in.LocationID != nil {
		if err := s.requireLocation(ctx, in.LocationID); err != nil {
			return nil, err
		}
		fields["location_id"] = *in.LocationID
	}
	if in.IsAvailable != nil {
		fields["is_available"] = *in.IsAvailable
	}
	if in.IsFeatured != nil {
		fields["is_featured"] = *in.IsFeatured
	}
	if in.ShippingOption != nil {
		fields["shipping_option"] = models.ParseShippingOption(*in.ShippingOption)
	}
	if in.ShippingResponsibility != nil {
		fields["shipping_responsibility"] = models.ParseShippingResponsibility(*in.ShippingResponsibility)
	}
	if in.ShippingCost != nil {
		if *in.ShippingCost < 0 {
			return nil, models.NewValidationError("Shipping cost cannot be negative")
		}
		fields["shipping_cost"] = *in.ShippingCost
	}

	return s.posts.Update(ctx, post.ID, fields)
}

// DeletePost lets the author or an admin remove a post. Stored images no
// other row references are removed from disk on a best-effort basis.
func (s *PostService) DeletePost(ctx context.Context, caller authz.Caller, id uint) error {
	if err := s.authz.precheck(caller, authz.ActionDelete, authz.KindPost); err != nil {
		return err
	}
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.authorize(caller, authz.ActionDelete, authz.Resource{Kind: authz.KindPost, OwnerID: post.UserID}); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, post.ID); err != nil {
		return err
	}
	s.files.release(ctx, imageURLs(post.Images))
	return nil
}
