package server

import (
	"io"
	"strings"

	"mutualaid/internal/middleware"
	"mutualaid/internal/models"
	"mutualaid/internal/repository"
	"mutualaid/internal/service"
	"mutualaid/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// CreatePostRequest is accepted as JSON or as multipart form fields with an
// optional "image" file part.
type CreatePostRequest struct {
	Title                  string   `json:"title" form:"title"`
	Description            string   `json:"description" form:"description"`
	Type                   string   `json:"type" form:"type"`
	CategoryID             uint     `json:"categoryId" form:"categoryId"`
	LocationID             *uint    `json:"locationId" form:"locationId"`
	ShippingOption         string   `json:"shippingOption" form:"shippingOption"`
	ShippingResponsibility string   `json:"shippingResponsibility" form:"shippingResponsibility"`
	ShippingCost           *float64 `json:"shippingCost" form:"shippingCost"`
	IsFeatured             bool     `json:"isFeatured" form:"isFeatured"`
	ImageURLs              []string `json:"imageUrls" form:"imageUrls"`
}

// UpdatePostRequest is a partial post update.
type UpdatePostRequest struct {
	Title                  *string  `json:"title"`
	Description            *string  `json:"description"`
	Type                   *string  `json:"type"`
	CategoryID             *uint    `json:"categoryId"`
	LocationID             *uint    `json:"locationId"`
	IsAvailable            *bool    `json:"isAvailable"`
	IsFeatured             *bool    `json:"isFeatured"`
	ShippingOption         *string  `json:"shippingOption"`
	ShippingResponsibility *string  `json:"shippingResponsibility"`
	ShippingCost           *float64 `json:"shippingCost"`
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

// formUpload reads an optional file part. A missing part yields nil, nil.
func (s *Server) formUpload(c *fiber.Ctx, field string) (*storage.Upload, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, models.NewValidationError("Invalid multipart form")
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	fh := files[0]

	maxBytes := int64(s.config.ImageMaxUploadSizeMB) * 1024 * 1024
	if maxBytes <= 0 {
		maxBytes = storage.DefaultMaxUploadSizeMB * 1024 * 1024
	}
	if fh.Size > maxBytes {
		return nil, models.NewValidationError("Image is too large")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &storage.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Content:     content,
	}, nil
}

// ListPosts lists posts and callouts
// @Summary List posts
// @Tags posts
// @Produce json
// @Param category query string false "Category name (case-insensitive)"
// @Param type query string false "post or callout"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /api/posts [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPaginationLimit)
	filter := repository.PostFilter{
		Category: strings.TrimSpace(c.Query("category")),
		Type:     models.PostType(strings.ToLower(strings.TrimSpace(c.Query("type")))),
	}
	posts, err := s.postService.ListPosts(c.UserContext(), filter, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetPost returns one post
// @Summary Get post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /api/posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// CreatePost publishes a post or callout
// @Summary Create post
// @Tags posts
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body CreatePostRequest true "Post"
// @Param image formData file false "Image"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req CreatePostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	upload, err := s.formUpload(c, "image")
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.CreatePost(c.UserContext(), middleware.CallerFrom(c), service.CreatePostInput{
		Title:                  req.Title,
		Description:            req.Description,
		Type:                   req.Type,
		CategoryID:             req.CategoryID,
		LocationID:             req.LocationID,
		ShippingOption:         req.ShippingOption,
		ShippingResponsibility: req.ShippingResponsibility,
		ShippingCost:           req.ShippingCost,
		IsFeatured:             req.IsFeatured,
		ImageURLs:              req.ImageURLs,
		Upload:                 upload,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost edits a post
// @Summary Update post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body UpdatePostRequest true "Fields to change"
// @Success 200 {object} models.Post
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req UpdatePostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.UpdatePost(c.UserContext(), middleware.CallerFrom(c), id, service.UpdatePostInput{
		Title:                  req.Title,
		Description:            req.Description,
		Type:                   req.Type,
		CategoryID:             req.CategoryID,
		LocationID:             req.LocationID,
		IsAvailable:            req.IsAvailable,
		IsFeatured:             req.IsFeatured,
		ShippingOption:         req.ShippingOption,
		ShippingResponsibility: req.ShippingResponsibility,
		ShippingCost:           req.ShippingCost,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost removes a post
// @Summary Delete post
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), middleware.CallerFrom(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
