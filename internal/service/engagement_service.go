package service

import (
	"context"
	"strings"

	"mutualaid/internal/authz"
	"mutualaid/internal/models"
	"mutualaid/internal/repository"
)

const maxCommentLen = 2000

// LikeSummary is returned after a like toggles.
type LikeSummary struct {
	PostID uint  `json:"postId"`
	Liked  bool  `json:"liked"`
	Likes  int64 `json:"likes"`
}

// EngagementService covers likes, favorites and comments.
type EngagementService struct {
	engagement repository.EngagementRepository
	authz      authorizer
}

func NewEngagementService(engagement repository.EngagementRepository, engine *authz.Engine) *EngagementService {
	return &EngagementService{engagement: engagement, authz: newAuthorizer(engine)}
}

func (s *EngagementService) ownResource(caller authz.Caller, kind authz.Kind) authz.Resource {
	return authz.Resource{Kind: kind, OwnerID: caller.UserID}
}

func (s *EngagementService) Like(ctx context.Context, caller authz.Caller, postID uint) (*LikeSummary, error) {
	if err := s.authz.authorize(caller, authz.ActionCreate, s.ownResource(caller, authz.KindLike)); err != nil {
		return nil, err
	}
	if _, err := s.engagement.Like(ctx, caller.UserID, postID); err != nil {
		return nil, err
	}
	return s.summary(ctx, postID, true)
}

func (s *EngagementService) Unlike(ctx context.Context, caller authz.Caller, postID uint) (*LikeSummary, error) {
	if err := s.authz.authorize(caller, authz.ActionDelete, s.ownResource(caller, authz.KindLike)); err != nil {
		return nil, err
	}
	if err := s.engagement.Unlike(ctx, caller.UserID, postID); err != nil {
		return nil, err
	}
	return s.summary(ctx, postID, false)
}

func (s *EngagementService) summary(ctx context.Context, postID uint, liked bool) (*LikeSummary, error) {
	n, err := s.engagement.CountLikes(ctx, postID)
	if err != nil {
		return nil, err
	}
	return &LikeSummary{PostID: postID, Liked: liked, Likes: n}, nil
}

func (s *EngagementService) Favorite(ctx context.Context, caller authz.Caller, postID uint) (*models.Favorite, error) {
	if err := s.authz.authorize(caller, authz.ActionCreate, s.ownResource(caller, authz.KindFavorite)); err != nil {
		return nil, err
	}
	return s.engagement.Favorite(ctx, caller.UserID, postID)
}

func (s *EngagementService) Unfavorite(ctx context.Context, caller authz.Caller, postID uint) error {
	if err := s.authz.authorize(caller, authz.ActionDelete, s.ownResource(caller, authz.KindFavorite)); err != nil {
		return err
	}
	return s.engagement.Unfavorite(ctx, caller.UserID, postID)
}

// ListFavorites returns the caller's favorites with their posts.
func (s *EngagementService) ListFavorites(ctx context.Context, caller authz.Caller) ([]models.Favorite, error) {
	if err := s.authz.authorize(caller, authz.ActionRead, s.ownResource(caller, authz.KindFavorite)); err != nil {
		return nil, err
	}
	return s.engagement.ListFavorites(ctx, caller.UserID)
}

func (s *EngagementService) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	return s.engagement.ListComments(ctx, postID)
}

func commentContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", models.NewValidationError("Comment content cannot be empty")
	}
	if len(content) > maxCommentLen {
		return "", models.NewValidationError("Comment too long (max 2000 characters)")
	}
	return content, nil
}

func (s *EngagementService) AddComment(ctx context.Context, caller authz.Caller, postID uint, content string) (*models.Comment, error) {
	if err := s.authz.authorize(caller, authz.ActionCreate, s.ownResource(caller, authz.KindComment)); err != nil {
		return nil, err
	}
	content, err := commentContent(content)
	if err != nil {
		return nil, err
	}
	comment := &models.Comment{Content: content, UserID: caller.UserID, PostID: postID}
	if err := s.engagement.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return s.engagement.GetComment(ctx, comment.ID)
}

func (s *EngagementService) loadComment(ctx context.Context, caller authz.Caller, action authz.Action, id uint) (*models.Comment, error) {
	if err := s.authz.precheck(caller, action, authz.KindComment); err != nil {
		return nil, err
	}
	comment, err := s.engagement.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.authorize(caller, action, authz.Resource{Kind: authz.KindComment, OwnerID: comment.UserID}); err != nil {
		return nil, err
	}
	return comment, nil
}

// EditComment lets the author or an admin change a comment's text.
func (s *EngagementService) EditComment(ctx context.Context, caller authz.Caller, id uint, content string) (*models.Comment, error) {
	comment, err := s.loadComment(ctx, caller, authz.ActionUpdate, id)
	if err != nil {
		return nil, err
	}
	content, err = commentContent(content)
	if err != nil {
		return nil, err
	}
	return s.engagement.UpdateComment(ctx, comment.ID, content)
}

func (s *EngagementService) DeleteComment(ctx context.Context, caller authz.Caller, id uint) error {
	comment, err := s.loadComment(ctx, caller, authz.ActionDelete, id)
	if err != nil {
		return err
	}
	return s.engagement.DeleteComment(ctx, comment.ID)
}
