package service

import (
	"context"
	"strings"

	"mutualaid/internal/authz"
	"mutualaid/internal/cache"
	"mutualaid/internal/models"
	"mutualaid/internal/repository"
)

// LocationInput creates a location. Either CountryID or Country (a name or
// code, created when unknown) identifies the country.
type LocationInput struct {
	City      string
	CountryID uint
	Country   string
	Latitude  *float64
	Longitude *float64
}

// LocationUpdate is a partial location update.
type LocationUpdate struct {
	City      *string
	CountryID *uint
	Latitude  *float64
	Longitude *float64
}

// CatalogService manages the admin-curated reference data: categories,
// locations and countries. Lists are served cache-aside.
type CatalogService struct {
	categories repository.CategoryRepository
	locations  repository.LocationRepository
	cache      *cache.Cache
	authz      authorizer
}

func NewCatalogService(
	categories repository.CategoryRepository,
	locations repository.LocationRepository,
	c *cache.Cache,
	engine *authz.Engine,
) *CatalogService {
	if c == nil {
		c = cache.New(nil)
	}
	return &CatalogService{
		categories: categories,
		locations:  locations,
		cache:      c,
		authz:      newAuthorizer(engine),
	}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	err := s.cache.Aside(ctx, cache.CategoriesKey, &out, cache.CatalogTTL, func() error {
		var err error
		out, err = s.categories.List(ctx)
		return err
	})
	return out, err
}

func (s *CatalogService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	return s.categories.GetByID(ctx, id)
}

func (s *CatalogService) adminCheck(caller authz.Caller, action authz.Action, kind authz.Kind) error {
	return s.authz.authorize(caller, action, authz.Resource{Kind: kind})
}

func categoryName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", models.NewValidationError("Name is required")
	}
	if len(name) > 100 {
		return "", models.NewValidationError("Name too long (max 100 characters)")
	}
	return name, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, caller authz.Caller, name string) (*models.Category, error) {
	if err := s.adminCheck(caller, authz.ActionCreate, authz.KindCategory); err != nil {
		return nil, err
	}
	name, err := categoryName(name)
	if err != nil {
		return nil, err
	}
	category := &models.Category{Name: name}
	if err := s.categories.Create(ctx, category); err != nil {
		if _, dup := repository.AsDuplicate(err); dup {
			return nil, models.NewConflictError("Category already exists")
		}
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.CategoriesKey)
	return category, nil
}

func (s *CatalogService) RenameCategory(ctx context.Context, caller authz.Caller, id uint, name string) (*models.Category, error) {
	if err := s.adminCheck(caller, authz.ActionUpdate, authz.KindCategory); err != nil {
		return nil, err
	}
	name, err := categoryName(name)
	if err != nil {
		return nil, err
	}
	category, err := s.categories.Rename(ctx, id, name)
	if err != nil {
		if _, dup := repository.AsDuplicate(err); dup {
			return nil, models.NewConflictError("Category already exists")
		}
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.CategoriesKey)
	return category, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, caller authz.Caller, id uint) error {
	if err := s.adminCheck(caller, authz.ActionDelete, authz.KindCategory); err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.CategoriesKey)
	return nil
}

func (s *CatalogService) ListLocations(ctx context.Context) ([]models.Location, error) {
	var out []models.Location
	err := s.cache.Aside(ctx, cache.LocationsKey, &out, cache.CatalogTTL, func() error {
		var err error
		out, err = s.locations.List(ctx)
		return err
	})
	return out, err
}

func (s *CatalogService) GetLocation(ctx context.Context, id uint) (*models.Location, error) {
	return s.locations.GetByID(ctx, id)
}

func (s *CatalogService) CreateLocation(ctx context.Context, caller authz.Caller, in LocationInput) (*models.Location, error) {
	if err := s.adminCheck(caller, authz.ActionCreate, authz.KindLocation); err != nil {
		return nil, err
	}
	city := strings.TrimSpace(in.City)
	if city == "" {
		return nil, models.NewValidationError("City is required")
	}

	var loc *models.Location
	switch {
	case in.CountryID != 0:
		if _, err := s.locations.GetCountry(ctx, in.CountryID); err != nil {
			if models.IsCode(err, models.CodeNotFound) {
				return nil, models.NewValidationError("Country does not exist")
			}
			return nil, err
		}
		loc = &models.Location{City: city, CountryID: in.CountryID, Latitude: in.Latitude, Longitude: in.Longitude}
		if err := s.locations.Create(ctx, loc); err != nil {
			if _, dup := repository.AsDuplicate(err); dup {
				return nil, models.NewConflictError("Location already exists")
			}
			return nil, err
		}
	case strings.TrimSpace(in.Country) != "":
		found, err := s.locations.FindOrCreate(ctx, city, in.Country)
		if err != nil {
			return nil, err
		}
		loc = found
		if in.Latitude != nil || in.Longitude != nil {
			fields := map[string]interface{}{}
			if in.Latitude != nil {
				fields["latitude"] = *in.Latitude
			}
			if in.Longitude != nil {
				fields["longitude"] = *in.Longitude
			}
			if loc, err = s.locations.Update(ctx, found.ID, fields); err != nil {
				return nil, err
			}
		}
	default:
		return nil, models.NewValidationError("Country is required")
	}

	s.cache.Invalidate(ctx, cache.LocationsKey, cache.CountriesKey)
	return s.locations.GetByID(ctx, loc.ID)
}

func (s *CatalogService) UpdateLocation(ctx context.Context, caller authz.Caller, id uint, in LocationUpdate) (*models.Location, error) {
	if err := s.adminCheck(caller, authz.ActionUpdate, authz.KindLocation); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if in.City != nil {
		city := strings.TrimSpace(*in.City)
		if city == "" {
			return nil, models.NewValidationError("City cannot be empty")
		}
		fields["city"] = city
	}
	if in.CountryID != nil {
		if _, err := s.locations.GetCountry(ctx, *in.CountryID); err != nil {
			if models.IsCode(err, models.CodeNotFound) {
				return nil, models.NewValidationError("Country does not exist")
			}
			return nil, err
		}
		fields["country_id"] = *in.CountryID
	}
	if in.Latitude != nil {
		fields["latitude"] = *in.Latitude
	}
	if in.Longitude != nil {
		fields["longitude"] = *in.Longitude
	}
	loc, err := s.locations.Update(ctx, id, fields)
	if err != nil {
		if _, dup := repository.AsDuplicate(err); dup {
			return nil, models.NewConflictError("Location already exists")
		}
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.LocationsKey)
	return loc, nil
}

func (s *CatalogService) DeleteLocation(ctx context.Context, caller authz.Caller, id uint) error {
	if err := s.adminCheck(caller, authz.ActionDelete, authz.KindLocation); err != nil {
		return err
	}
	if err := s.locations.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.LocationsKey)
	return nil
}

func (s *CatalogService) ListCountries(ctx context.Context) ([]models.Country, error) {
	var out []models.Country
	err := s.cache.Aside(ctx, cache.CountriesKey, &out, cache.CatalogTTL, func() error {
		var err error
		out, err = s.locations.ListCountries(ctx)
		return err
	})
	return out, err
}

func (s *CatalogService) GetCountry(ctx context.Context, id uint) (*models.Country, error) {
	return s.locations.GetCountry(ctx, id)
}
