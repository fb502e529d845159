package server

import (
	"mutualaid/internal/middleware"
	"mutualaid/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AddImageRequest attaches an image by URL. Multipart requests may send an
// "image" file part instead.
type AddImageRequest struct {
	URL string `json:"url" form:"url"`
}

// AddMediaRequest attaches a non-image (or image) media link.
type AddMediaRequest struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// ListImages lists all images
// @Summary List images
// @Tags media
// @Produce json
// @Success 200 {array} models.Image
// @Router /api/images [get]
func (s *Server) ListImages(c *fiber.Ctx) error {
	images, err := s.mediaService.ListImages(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(images)
}

// ListPostImages lists a post's images
// @Summary List post images
// @Tags media
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {array} models.Image
// @Failure 404 {object} models.ErrorResponse
// @Router /api/posts/{id}/images [get]
func (s *Server) ListPostImages(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	images, err := s.mediaService.ListPostImages(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(images)
}

// AddImage attaches an image to a post
// @Summary Add post image
// @Tags media
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body AddImageRequest false "Image URL"
// @Param image formData file false "Image"
// @Success 201 {object} models.Image
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/posts/{id}/images [post]
func (s *Server) AddImage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req AddImageRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	upload, err := s.formUpload(c, "image")
	if err != nil {
		return respondError(c, err)
	}

	img, err := s.mediaService.AddImage(c.UserContext(), middleware.CallerFrom(c), id, service.AddImageInput{
		URL:    req.URL,
		Upload: upload,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(img)
}

// DeleteImage removes an image
// @Summary Delete image
// @Tags media
// @Security BearerAuth
// @Param id path int true "Image ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /api/images/{id} [delete]
func (s *Server) DeleteImage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.mediaService.DeleteImage(c.UserContext(), middleware.CallerFrom(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListMedia lists all media
// @Summary List media
// @Tags media
// @Produce json
// @Success 200 {array} models.Media
// @Router /api/media [get]
func (s *Server) ListMedia(c *fiber.Ctx) error {
	media, err := s.mediaService.ListMedia(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(media)
}

// ListPostMedia lists a post's media
// @Summary List post media
// @Tags media
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {array} models.Media
// @Router /api/posts/{id}/media [get]
func (s *Server) ListPostMedia(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	media, err := s.mediaService.ListPostMedia(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(media)
}

// AddMedia attaches a media link to a post
// @Summary Add post media
// @Tags media
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body AddMediaRequest true "Media"
// @Success 201 {object} models.Media
// @Failure 400 {object} models.ErrorResponse
// @Router /api/posts/{id}/media [post]
func (s *Server) AddMedia(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req AddMediaRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	m, err := s.mediaService.AddMedia(c.UserContext(), middleware.CallerFrom(c), id, req.Type, req.URL)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

// DeleteMedia removes a media link
// @Summary Delete media
// @Tags media
// @Security BearerAuth
// @Param id path int true "Media ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /api/media/{id} [delete]
func (s *Server) DeleteMedia(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.mediaService.DeleteMedia(c.UserContext(), middleware.CallerFrom(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
