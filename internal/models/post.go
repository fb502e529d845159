// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// PostType discriminates giveaways from requests.
type PostType string

const (
	// PostTypePost offers an item to give away.
	PostTypePost PostType = "post"
	// PostTypeCallout asks the community for an item.
	PostTypeCallout PostType = "callout"
)

// Valid reports whether t is a known post type.
func (t PostType) Valid() bool {
	return t == PostTypePost || t == PostTypeCallout
}

// Post represents a giveaway or a callout.
type Post struct {
	ID                     uint                   `gorm:"primaryKey" json:"id"`
	Title                  string                 `gorm:"not null" json:"title"`
	Description            string                 `gorm:"type:text" json:"description"`
	Type                   PostType               `gorm:"type:varchar(20);not null;default:'post';index" json:"type"`
	IsAvailable            bool                   `gorm:"not null" json:"isAvailable"`
	IsFeatured             bool                   `gorm:"not null;default:false" json:"isFeatured"`
	ShippingCost           *float64               `json:"shippingCost"`
	ShippingOption         ShippingOption         `gorm:"type:varchar(20);not null;default:'PICKUP'" json:"shippingOption"`
	ShippingResponsibility ShippingResponsibility `gorm:"type:varchar(20);not null;default:'RECEIVER'" json:"shippingResponsibility"`
	UserID                 uint                   `gorm:"not null;index" json:"userId"`
	User                   *User                  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CategoryID             uint                   `gorm:"not null;index" json:"categoryId"`
	Category               *Category              `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	LocationID             *uint                  `gorm:"index" json:"locationId"`
	Location               *Location              `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Images                 []Image                `gorm:"foreignKey:PostID" json:"images,omitempty"`
	Media                  []Media                `gorm:"foreignKey:PostID" json:"media,omitempty"`
	Likes                  []Like                 `gorm:"foreignKey:PostID" json:"likes,omitempty"`
	Favorites              []Favorite             `gorm:"foreignKey:PostID" json:"favorites,omitempty"`
	Comments               []Comment              `gorm:"foreignKey:PostID" json:"comments,omitempty"`
	CreatedAt              time.Time              `json:"createdAt"`
	UpdatedAt              time.Time              `json:"updatedAt"`
}

// Image is a picture attached to exactly one post.
type Image struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	URL       string    `gorm:"not null" json:"url"`
	PostID    uint      `gorm:"not null;index" json:"postId"`
	Post      *Post     `gorm:"foreignKey:PostID" json:"post,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// MediaType enumerates the kinds of media a post can carry.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
	MediaTypeAudio MediaType = "audio"
)

// Valid reports whether t is a known media type.
func (t MediaType) Valid() bool {
	switch t {
	case MediaTypeImage, MediaTypeVideo, MediaTypeAudio:
		return true
	}
	return false
}

// Media is a non-image attachment (or an externally hosted image) of a post.
type Media struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Type      MediaType `gorm:"type:varchar(20);not null" json:"type"`
	URL       string    `gorm:"not null" json:"url"`
	PostID    uint      `gorm:"not null;index" json:"postId"`
	Post      *Post     `gorm:"foreignKey:PostID" json:"post,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for GORM
func (Media) TableName() string {
	return "media"
}
