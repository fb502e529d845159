package models

import "time"

// Category groups posts, e.g. "Furniture" or "Books".
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex:idx_categories_name;not null" json:"name"`
	Posts     []Post    `gorm:"foreignKey:CategoryID" json:"posts,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Country is referenced by locations.
type Country struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex:idx_countries_name;not null" json:"name"`
	Code string `gorm:"uniqueIndex:idx_countries_code;not null" json:"code"`
}

// Location is a city within a country.
type Location struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	City      string   `gorm:"not null;uniqueIndex:idx_locations_city_country" json:"city"`
	CountryID uint     `gorm:"not null;uniqueIndex:idx_locations_city_country" json:"countryId"`
	Country   *Country `gorm:"foreignKey:CountryID" json:"country,omitempty"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}
