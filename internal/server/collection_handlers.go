package server

import (
	"mutualaid/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// CollectionRequest names a collection.
type CollectionRequest struct {
	Name string `json:"name"`
}

// CollectionPostRequest identifies the post to add or remove.
type CollectionPostRequest struct {
	PostID uint `json:"postId" query:"postId"`
}

// ListCollections lists the caller's collections
// @Summary List my collections
// @Tags collections
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Collection
// @Failure 401 {object} models.ErrorResponse
// @Router /api/collections [get]
func (s *Server) ListCollections(c *fiber.Ctx) error {
	cols, err := s.collectionService.ListMine(c.UserContext(), middleware.CallerFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cols)
}

// CreateCollection creates a collection
// @Summary Create collection
// @Tags collections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CollectionRequest true "Collection"
// @Success 201 {object} models.Collection
// @Failure 400 {object} models.ErrorResponse
// @Router /api/collections [post]
func (s *Server) CreateCollection(c *fiber.Ctx) error {
	var req CollectionRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	col, err := s.collectionService.Create(c.UserContext(), middleware.CallerFrom(c), req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(col)
}

// GetCollection returns one of the caller's collections
// @Summary Get collection
// @Tags collections
// @Produce json
// @Security BearerAuth
// @Param id path int true "Collection ID"
// @Success 200 {object} models.Collection
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/collections/{id} [get]
func (s *Server) GetCollection(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	col, err := s.collectionService.Get(c.UserContext(), middleware.CallerFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(col)
}

// UpdateCollection renames a collection
// @Summary Rename collection
// @Tags collections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Collection ID"
// @Param request body CollectionRequest true "Collection"
// @Success 200 {object} models.Collection
// @Failure 403 {object} models.ErrorResponse
// @Router /api/collections/{id} [put]
func (s *Server) UpdateCollection(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req CollectionRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	col, err := s.collectionService.Rename(c.UserContext(), middleware.CallerFrom(c), id, req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(col)
}

// DeleteCollection removes a collection
// @Summary Delete collection
// @Tags collections
// @Security BearerAuth
// @Param id path int true "Collection ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /api/collections/{id} [delete]
func (s *Server) DeleteCollection(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.collectionService.Delete(c.UserContext(), middleware.CallerFrom(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddToCollection adds a post to a collection
// @Summary Add post to collection
// @Tags collections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Collection ID"
// @Param request body CollectionPostRequest true "Post"
// @Success 200 {object} models.Collection
// @Failure 404 {object} models.ErrorResponse
// @Router /api/collections/{id}/add [post]
func (s *Server) AddToCollection(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req CollectionPostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	col, err := s.collectionService.AddPost(c.UserContext(), middleware.CallerFrom(c), id, req.PostID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(col)
}

// RemoveFromCollection removes a post from a collection. The post may be
// given in the body or as ?postId= since some clients drop DELETE bodies.
// @Summary Remove post from collection
// @Tags collections
// @Produce json
// @Security BearerAuth
// @Param id path int true "Collection ID"
// @Param postId query int false "Post ID"
// @Param request body CollectionPostRequest false "Post"
// @Success 200 {object} models.Collection
// @Router /api/collections/{id}/remove [delete]
func (s *Server) RemoveFromCollection(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req CollectionPostRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return nil
		}
	}
	if req.PostID == 0 {
		req.PostID = uint(c.QueryInt("postId", 0))
	}
	col, err := s.collectionService.RemovePost(c.UserContext(), middleware.CallerFrom(c), id, req.PostID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(col)
}
