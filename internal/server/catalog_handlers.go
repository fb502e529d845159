package server

import (
	"mutualaid/internal/middleware"
	"mutualaid/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CategoryRequest names a category.
type CategoryRequest struct {
	Name string `json:"name"`
}

// CreateLocationRequest creates a location. Either countryId or country
// (a name or ISO code) must be given.
type CreateLocationRequest struct {
	City      string   `json:"city"`
	CountryID uint     `json:"countryId"`
	Country   string   `json:"country"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// UpdateLocationRequest is a partial location update.
type UpdateLocationRequest struct {
	City      *string  `json:"city"`
	CountryID *uint    `json:"countryId"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// ListCategories lists categories
// @Summary List categories
// @Tags catalog
// @Produce json
// @Success 200 {array} models.Category
// @Router /api/categories [get]
func (s *Server) ListCategories(c *fiber.Ctx) error {
	categories, err := s.catalogService.ListCategories(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(categories)
}

// GetCategory returns one category
// @Summary Get category
// @Tags catalog
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} models.Category
// @Failure 404 {object} models.ErrorResponse
// @Router /api/categories/{id} [get]
func (s *Server) GetCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	category, err := s.catalogService.GetCategory(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(category)
}

// CreateCategory adds a category (admin)
// @Summary Create category
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CategoryRequest true "Category"
// @Success 201 {object} models.Category
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/categories [post]
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	category, err := s.catalogService.CreateCategory(c.UserContext(), middleware.CallerFrom(c), req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// UpdateCategory renames a category (admin)
// @Summary Rename category
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Param request body CategoryRequest true "Category"
// @Success 200 {object} models.Category
// @Failure 403 {object} models.ErrorResponse
// @Router /api/categories/{id} [put]
func (s *Server) UpdateCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req CategoryRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	category, err := s.catalogService.RenameCategory(c.UserContext(), middleware.CallerFrom(c), id, req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(category)
}

// DeleteCategory removes a category (admin)
// @Summary Delete category
// @Tags catalog
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /api/categories/{id} [delete]
func (s *Server) DeleteCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.catalogService.DeleteCategory(c.UserContext(), middleware.CallerFrom(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListLocations lists locations
// @Summary List locations
// @Tags catalog
// @Produce json
// @Success 200 {array} models.Location
// @Router /api/locations [get]
func (s *Server) ListLocations(c *fiber.Ctx) error {
	locations, err := s.catalogService.ListLocations(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(locations)
}

// GetLocation returns one location
// @Summary Get location
// @Tags catalog
// @Produce json
// @Param id path int true "Location ID"
// @Success 200 {object} models.Location
// @Failure 404 {object} models.ErrorResponse
// @Router /api/locations/{id} [get]
func (s *Server) GetLocation(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	location, err := s.catalogService.GetLocation(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(location)
}

// CreateLocation adds a location (admin)
// @Summary Create location
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateLocationRequest true "Location"
// @Success 201 {object} models.Location
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/locations [post]
func (s *Server) CreateLocation(c *fiber.Ctx) error {
	var req CreateLocationRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	location, err := s.catalogService.CreateLocation(c.UserContext(), middleware.CallerFrom(c), service.LocationInput{
		City:      req.City,
		CountryID: req.CountryID,
		Country:   req.Country,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(location)
}

// UpdateLocation edits a location (admin)
// @Summary Update location
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Location ID"
// @Param request body UpdateLocationRequest true "Fields to change"
// @Success 200 {object} models.Location
// @Failure 403 {object} models.ErrorResponse
// @Router /api/locations/{id} [put]
func (s *Server) UpdateLocation(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req UpdateLocationRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	location, err := s.catalogService.UpdateLocation(c.UserContext(), middleware.CallerFrom(c), id, service.LocationUpdate{
		City:      req.City,
		CountryID: req.CountryID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(location)
}

// DeleteLocation removes a location (admin)
// @Summary Delete location
// @Tags catalog
// @Security BearerAuth
// @Param id path int true "Location ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /api/locations/{id} [delete]
func (s *Server) DeleteLocation(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.catalogService.DeleteLocation(c.UserContext(), middleware.CallerFrom(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListCountries lists countries
// @Summary List countries
// @Tags catalog
// @Produce json
// @Success 200 {array} models.Country
// @Router /api/countries [get]
func (s *Server) ListCountries(c *fiber.Ctx) error {
	countries, err := s.catalogService.ListCountries(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(countries)
}
