package service

import (
	"context"
	"strings"

	"mutualaid/internal/authz"
	"mutualaid/internal/models"
	"mutualaid/internal/repository"
	"mutualaid/internal/storage"
)

// AddImageInput attaches an image by URL or by upload. Upload wins when both are set.
type AddImageInput struct {
	URL    string
	Upload *storage.Upload
}

// MediaService manages images and other attachments. Mutations are allowed
// to the author of the parent post and to admins.
type MediaService struct {
	media   repository.MediaRepository
	posts   repository.PostRepository
	storage storage.Storage
	files   imageFiles
	authz   authorizer
}

func NewMediaService(
	media repository.MediaRepository,
	posts repository.PostRepository,
	store storage.Storage,
	engine *authz.Engine,
) *MediaService {
	return &MediaService{
		media:   media,
		posts:   posts,
		storage: store,
		files:   imageFiles{media: media, storage: store},
		authz:   newAuthorizer(engine),
	}
}

func (s *MediaService) ListImages(ctx context.Context) ([]models.Image, error) {
	return s.media.ListImages(ctx, 0)
}

func (s *MediaService) ListPostImages(ctx context.Context, postID uint) ([]models.Image, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.media.ListImages(ctx, postID)
}

// parentPost loads the post and authorizes the caller against its author.
func (s *MediaService) parentPost(ctx context.Context, caller authz.Caller, action authz.Action, kind authz.Kind, postID uint) (*models.Post, error) {
	if err := s.authz.precheck(caller, action, kind); err != nil {
		return nil, err
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.authorize(caller, action, authz.Resource{Kind: kind, OwnerID: post.UserID}); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *MediaService) AddImage(ctx context.Context, caller authz.Caller, postID uint, in AddImageInput) (*models.Image, error) {
	post, err := s.parentPost(ctx, caller, authz.ActionCreate, authz.KindImage, postID)
	if err != nil {
		return nil, err
	}

	img := &models.Image{PostID: post.ID}
	var stored *storage.StoredFile
	switch {
	case in.Upload != nil:
		if s.storage == nil {
			return nil, models.NewValidationError("Image uploads are not enabled")
		}
		upload := *in.Upload
		upload.OwnerID = post.UserID
		if stored, err = s.storage.Save(ctx, upload); err != nil {
			return nil, err
		}
		img.URL = stored.URL
	case strings.TrimSpace(in.URL) != "":
		img.URL = strings.TrimSpace(in.URL)
		if err := rejectStoredURLs(img.URL); err != nil {
			return nil, err
		}
	default:
		return nil, models.NewValidationError("Image URL or file is required")
	}

	if err := s.media.CreateImage(ctx, img); err != nil {
		s.files.discard(ctx, stored)
		return nil, err
	}
	return img, nil
}

func (s *MediaService) DeleteImage(ctx context.Context, caller authz.Caller, id uint) error {
	if err := s.authz.precheck(caller, authz.ActionDelete, authz.KindImage); err != nil {
		return err
	}
	img, err := s.media.GetImage(ctx, id)
	if err != nil {
		return err
	}
	var owner uint
	if img.Post != nil {
		owner = img.Post.UserID
	}
	if err := s.authz.authorize(caller, authz.ActionDelete, authz.Resource{Kind: authz.KindImage, OwnerID: owner}); err != nil {
		return err
	}
	if err := s.media.DeleteImage(ctx, img.ID); err != nil {
		return err
	}
	s.files.release(ctx, []string{img.URL})
	return nil
}

func (s *MediaService) ListMedia(ctx context.Context) ([]models.Media, error) {
	return s.media.ListMedia(ctx, 0)
}

func (s *MediaService) ListPostMedia(ctx context.Context, postID uint) ([]models.Media, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.media.ListMedia(ctx, postID)
}

func (s *MediaService) AddMedia(ctx context.Context, caller authz.Caller, postID uint, mediaType, url string) (*models.Media, error) {
	post, err := s.parentPost(ctx, caller, authz.ActionCreate, authz.KindMedia, postID)
	if err != nil {
		return nil, err
	}
	t := models.MediaType(strings.ToLower(strings.TrimSpace(mediaType)))
	if !t.Valid() {
		return nil, models.NewValidationError("Media type must be one of image, video, audio")
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, models.NewValidationError("Media URL is required")
	}
	if err := rejectStoredURLs(url); err != nil {
		return nil, err
	}
	m := &models.Media{Type: t, URL: url, PostID: post.ID}
	if err := s.media.CreateMedia(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MediaService) DeleteMedia(ctx context.Context, caller authz.Caller, id uint) error {
	if err := s.authz.precheck(caller, authz.ActionDelete, authz.KindMedia); err != nil {
		return err
	}
	m, err := s.media.GetMedia(ctx, id)
	if err != nil {
		return err
	}
	var owner uint
	if m.Post != nil {
		owner = m.Post.UserID
	}
	if err := s.authz.authorize(caller, authz.ActionDelete, authz.Resource{Kind: authz.KindMedia, OwnerID: owner}); err != nil {
		return err
	}
	if err := s.media.DeleteMedia(ctx, m.ID); err != nil {
		return err
	}
	s.files.release(ctx, []string{m.URL})
	return nil
}
