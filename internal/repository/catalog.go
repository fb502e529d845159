package repository

import (
	"context"
	"errors"
	"strings"

	"mutualaid/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	GetByName(ctx context.Context, name string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Rename(ctx context.Context, id uint, name string) (*models.Category, error)
	Delete(ctx context.Context, id uint) error
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository returns a new CategoryRepository implementation.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return categories, nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, wrapReadError(err, "Category", id)
	}
	return &category, nil
}

// GetByName matches case-insensitively and returns nil, nil when absent.
func (r *categoryRepository) GetByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &category, nil
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	return wrapWriteError(r.db.WithContext(ctx).Create(category).Error, "Category")
}

func (r *categoryRepository) Rename(ctx context.Context, id uint, name string) (*models.Category, error) {
	res := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return nil, wrapWriteError(res.Error, "Category")
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("Category", id)
	}
	return r.GetByID(ctx, id)
}

// Delete refuses to remove a category that still has posts.
func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	var inUse int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("category_id = ?", id).Count(&inUse).Error; err != nil {
		return models.NewInternalError(err)
	}
	if inUse > 0 {
		return models.NewConflictError("Category still has posts")
	}
	res := r.db.WithContext(ctx).Delete(&models.Category{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Category", id)
	}
	return nil
}

// LocationRepository defines persistence operations for locations and countries.
type LocationRepository interface {
	List(ctx context.Context) ([]models.Location, error)
	GetByID(ctx context.Context, id uint) (*models.Location, error)
	Create(ctx context.Context, location *models.Location) error
	Update(ctx context.Context, id uint, fields map[string]interface{}) (*models.Location, error)
	Delete(ctx context.Context, id uint) error
	FindOrCreate(ctx context.Context, city, country string) (*models.Location, error)
	ListCountries(ctx context.Context) ([]models.Country, error)
	GetCountry(ctx context.Context, id uint) (*models.Country, error)
}

type locationRepository struct {
	db *gorm.DB
}

// NewLocationRepository returns a new LocationRepository implementation.
func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &locationRepository{db: db}
}

func (r *locationRepository) List(ctx context.Context) ([]models.Location, error) {
	var locations []models.Location
	if err := r.db.WithContext(ctx).Preload("Country").Order("city ASC").Find(&locations).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return locations, nil
}

func (r *locationRepository) GetByID(ctx context.Context, id uint) (*models.Location, error) {
	var location models.Location
	if err := r.db.WithContext(ctx).Preload("Country").First(&location, id).Error; err != nil {
		return nil, wrapReadError(err, "Location", id)
	}
	return &location, nil
}

func (r *locationRepository) Create(ctx context.Context, location *models.Location) error {
	return wrapWriteError(r.db.WithContext(ctx).Create(location).Error, "Location")
}

func (r *locationRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) (*models.Location, error) {
	if len(fields) > 0 {
		res := r.db.WithContext(ctx).Model(&models.Location{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, wrapWriteError(res.Error, "Location")
		}
		if res.RowsAffected == 0 {
			return nil, models.NewNotFoundError("Location", id)
		}
	}
	return r.GetByID(ctx, id)
}

// Delete detaches users and posts from the location before removing it.
func (r *locationRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loc models.Location
		if err := tx.Select("id").First(&loc, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("location_id = ?", id).Update("location_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).Where("location_id = ?", id).Update("location_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Location{}, id).Error
	})
	return wrapReadError(err, "Location", id)
}

func (r *locationRepository) FindOrCreate(ctx context.Context, city, country string) (*models.Location, error) {
	loc, err := findOrCreateLocation(r.db.WithContext(ctx), city, country)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return loc, nil
}

func (r *locationRepository) ListCountries(ctx context.Context) ([]models.Country, error) {
	var countries []models.Country
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&countries).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return countries, nil
}

func (r *locationRepository) GetCountry(ctx context.Context, id uint) (*models.Country, error) {
	var country models.Country
	if err := r.db.WithContext(ctx).First(&country, id).Error; err != nil {
		return nil, wrapReadError(err, "Country", id)
	}
	return &country, nil
}

// findOrCreateLocation resolves free-text city and country names. Countries
// match by name or code, case-insensitively; an unknown country is created
// with its upper-cased name as code. Inserts use ON CONFLICT DO NOTHING so a
// concurrent insert of the same row does not abort the surrounding transaction.
func findOrCreateLocation(tx *gorm.DB, city, country string) (*models.Location, error) {
	city = strings.TrimSpace(city)
	country = strings.TrimSpace(country)

	c, err := findOrCreateCountry(tx, country)
	if err != nil {
		return nil, err
	}

	var loc models.Location
	err = tx.Where("LOWER(city) = ? AND country_id = ?", strings.ToLower(city), c.ID).First(&loc).Error
	if err == nil {
		loc.Country = c
		return &loc, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	loc = models.Location{City: city, CountryID: c.ID}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&loc).Error; err != nil {
		return nil, err
	}
	if loc.ID == 0 {
		if err := tx.Where("city = ? AND country_id = ?", city, c.ID).First(&loc).Error; err != nil {
			return nil, err
		}
	}
	loc.Country = c
	return &loc, nil
}

func findOrCreateCountry(tx *gorm.DB, name string) (*models.Country, error) {
	var c models.Country
	err := tx.Where("LOWER(name) = ? OR UPPER(code) = ?", strings.ToLower(name), strings.ToUpper(name)).
		First(&c).Error
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	c = models.Country{Name: name, Code: strings.ToUpper(strings.ReplaceAll(name, " ", ""))}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&c).Error; err != nil {
		return nil, err
	}
	if c.ID == 0 {
		if err := tx.Where("name = ?", name).First(&c).Error; err != nil {
			return nil, err
		}
	}
	return &c, nil
}
