package service

import (
	"context"

	"mutualaid/internal/authz"
	"mutualaid/internal/middleware"
	"mutualaid/internal/models"
	"mutualaid/internal/notifications"
	"mutualaid/internal/repository"
)

type FollowService struct {
	follows  repository.FollowRepository
	users    repository.UserRepository
	notifier notifications.Publisher
	authz    authorizer
}

func NewFollowService(
	follows repository.FollowRepository,
	users repository.UserRepository,
	notifier notifications.Publisher,
	engine *authz.Engine,
) *FollowService {
	return &FollowService{
		follows:  follows,
		users:    users,
		notifier: notifier,
		authz:    newAuthorizer(engine),
	}
}

// Following lists the users the caller follows.
func (s *FollowService) Following(ctx context.Context, caller authz.Caller) ([]models.User, error) {
	if err := s.authz.precheck(caller, authz.ActionRead, authz.KindFollow); err != nil {
		return nil, err
	}
	return s.follows.Following(ctx, caller.UserID)
}

// Followers lists the users following the caller.
func (s *FollowService) Followers(ctx context.Context, caller authz.Caller) ([]models.User, error) {
	if err := s.authz.precheck(caller, authz.ActionRead, authz.KindFollow); err != nil {
		return nil, err
	}
	return s.follows.Followers(ctx, caller.UserID)
}

// Follow creates the edge caller -> targetID.
func (s *FollowService) Follow(ctx context.Context, caller authz.Caller, targetID uint) (*models.Follow, error) {
	res := authz.Resource{Kind: authz.KindFollow, OwnerID: caller.UserID, TargetID: targetID}
	if err := s.authz.authorize(caller, authz.ActionCreate, res); err != nil {
		return nil, err
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	follow := &models.Follow{FollowerID: caller.UserID, FollowingID: target.ID}
	if err := s.follows.Create(ctx, follow); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		payload := map[string]interface{}{"followerId": caller.UserID, "followId": follow.ID}
		if err := s.notifier.PublishEvent(ctx, target.ID, notifications.EventNewFollower, payload); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish follow notification",
				"follower_id", caller.UserID, "following_id", target.ID, "error", err)
		}
	}
	return follow, nil
}

// Unfollow removes the edge caller -> targetID. A missing edge is a 404.
func (s *FollowService) Unfollow(ctx context.Context, caller authz.Caller, targetID uint) error {
	if err := s.authz.precheck(caller, authz.ActionDelete, authz.KindFollow); err != nil {
		return err
	}
	edge, err := s.follows.Get(ctx, caller.UserID, targetID)
	if err != nil {
		return err
	}
	if edge == nil {
		return models.NewNotFoundError("Follow", targetID)
	}
	if err := s.authz.authorize(caller, authz.ActionDelete, authz.Resource{Kind: authz.KindFollow, OwnerID: edge.FollowerID, TargetID: targetID}); err != nil {
		return err
	}
	return s.follows.Delete(ctx, caller.UserID, targetID)
}
