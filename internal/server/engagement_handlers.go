package server

import (
	"mutualaid/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// CommentRequest carries comment text for create and edit.
type CommentRequest struct {
	Content string `json:"content"`
}

// LikePost likes a post
// @Summary Like post
// @Tags engagement
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} service.LikeSummary
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/posts/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	summary, err := s.engagementService.Like(c.UserContext(), middleware.CallerFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// UnlikePost removes the caller's like
// @Summary Unlike post
// @Tags engagement
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} service.LikeSummary
// @Failure 404 {object} models.ErrorResponse
// @Router /api/posts/{id}/like [delete]
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	summary, err := s.engagementService.Unlike(c.UserContext(), middleware.CallerFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// FavoritePost bookmarks a post
// @Summary Favorite post
// @Tags engagement
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 201 {object} models.Favorite
// @Failure 409 {object} models.ErrorResponse
// @Router /api/posts/{id}/favorite [post]
func (s *Server) FavoritePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	fav, err := s.engagementService.Favorite(c.UserContext(), middleware.CallerFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fav)
}

// UnfavoritePost removes a bookmark
// @Summary Unfavorite post
// @Tags engagement
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /api/posts/{id}/favorite [delete]
func (s *Server) UnfavoritePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.engagementService.Unfavorite(c.UserContext(), middleware.CallerFrom(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListFavorites lists the caller's bookmarks
// @Summary List my favorites
// @Tags engagement
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Favorite
// @Failure 401 {object} models.ErrorResponse
// @Router /api/favorites [get]
func (s *Server) ListFavorites(c *fiber.Ctx) error {
	favs, err := s.engagementService.ListFavorites(c.UserContext(), middleware.CallerFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(favs)
}

// ListComments lists a post's comments
// @Summary List comments
// @Tags comments
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {array} models.Comment
// @Router /api/posts/{id}/comments [get]
func (s *Server) ListComments(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	comments, err := s.engagementService.ListComments(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// AddComment comments on a post
// @Summary Add comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body CommentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/posts/{id}/comments [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req CommentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	comment, err := s.engagementService.AddComment(c.UserContext(), middleware.CallerFrom(c), id, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// EditComment changes a comment's text
// @Summary Edit comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Param request body CommentRequest true "Comment"
// @Success 200 {object} models.Comment
// @Failure 403 {object} models.ErrorResponse
// @Router /api/comments/{id} [put]
func (s *Server) EditComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req CommentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	comment, err := s.engagementService.EditComment(c.UserContext(), middleware.CallerFrom(c), id, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment removes a comment
// @Summary Delete comment
// @Tags comments
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /api/comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.engagementService.DeleteComment(c.UserContext(), middleware.CallerFrom(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
