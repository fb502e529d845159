package service

import (
	"context"
	"strings"

	"mutualaid/internal/authz"
	"mutualaid/internal/models"
	"mutualaid/internal/repository"
)

// CollectionService manages private, user-owned sets of posts.
type CollectionService struct {
	collections repository.CollectionRepository
	authz       authorizer
}

func NewCollectionService(collections repository.CollectionRepository, engine *authz.Engine) *CollectionService {
	return &CollectionService{collections: collections, authz: newAuthorizer(engine)}
}

func collectionName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", models.NewValidationError("Collection name is required")
	}
	if len(name) > 100 {
		return "", models.NewValidationError("Collection name too long (max 100 characters)")
	}
	return name, nil
}

func (s *CollectionService) ListMine(ctx context.Context, caller authz.Caller) ([]models.Collection, error) {
	if err := s.authz.precheck(caller, authz.ActionRead, authz.KindCollection); err != nil {
		return nil, err
	}
	return s.collections.ListByUser(ctx, caller.UserID)
}

// load fetches a collection and checks the caller may perform action on it.
func (s *CollectionService) load(ctx context.Context, caller authz.Caller, action authz.Action, id uint) (*models.Collection, error) {
	if err := s.authz.precheck(caller, action, authz.KindCollection); err != nil {
		return nil, err
	}
	c, err := s.collections.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.authorize(caller, action, authz.Resource{Kind: authz.KindCollection, OwnerID: c.UserID}); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CollectionService) Get(ctx context.Context, caller authz.Caller, id uint) (*models.Collection, error) {
	return s.load(ctx, caller, authz.ActionRead, id)
}

func (s *CollectionService) Create(ctx context.Context, caller authz.Caller, name string) (*models.Collection, error) {
	if err := s.authz.authorize(caller, authz.ActionCreate, authz.Resource{Kind: authz.KindCollection, OwnerID: caller.UserID}); err != nil {
		return nil, err
	}
	name, err := collectionName(name)
	if err != nil {
		return nil, err
	}
	c := &models.Collection{Name: name, UserID: caller.UserID}
	if err := s.collections.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CollectionService) Rename(ctx context.Context, caller authz.Caller, id uint, name string) (*models.Collection, error) {
	c, err := s.load(ctx, caller, authz.ActionUpdate, id)
	if err != nil {
		return nil, err
	}
	name, err = collectionName(name)
	if err != nil {
		return nil, err
	}
	return s.collections.Rename(ctx, c.ID, name)
}

// AddPost is idempotent: adding a post twice leaves one membership.
func (s *CollectionService) AddPost(ctx context.Context, caller authz.Caller, id, postID uint) (*models.Collection, error) {
	if postID == 0 {
		return nil, models.NewValidationError("postId is required")
	}
	c, err := s.load(ctx, caller, authz.ActionRelate, id)
	if err != nil {
		return nil, err
	}
	return s.collections.AddPost(ctx, c.ID, postID)
}

func (s *CollectionService) RemovePost(ctx context.Context, caller authz.Caller, id, postID uint) (*models.Collection, error) {
	if postID == 0 {
		return nil, models.NewValidationError("postId is required")
	}
	c, err := s.load(ctx, caller, authz.ActionRelate, id)
	if err != nil {
		return nil, err
	}
	return s.collections.RemovePost(ctx, c.ID, postID)
}

func (s *CollectionService) Delete(ctx context.Context, caller authz.Caller, id uint) error {
	c, err := s.load(ctx, caller, authz.ActionDelete, id)
	if err != nil {
		return err
	}
	return s.collections.Delete(ctx, c.ID)
}
