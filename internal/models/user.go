// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// RegistrationStatus tracks where a user is in the two-phase signup.
type RegistrationStatus string

const (
	// RegistrationProvisional is set by phase one; the profile is not filled in yet.
	RegistrationProvisional RegistrationStatus = "PROVISIONAL"
	// RegistrationComplete is set once phase two stored the profile.
	RegistrationComplete RegistrationStatus = "COMPLETE"
)

// SocialLinks maps a network name (instagram, twitter, ...) to a profile URL.
type SocialLinks map[string]string

// User represents a member of the marketplace.
type User struct {
	ID                     uint                   `gorm:"primaryKey" json:"id"`
	Username               string                 `gorm:"uniqueIndex:idx_users_username;not null" json:"username"`
	Email                  string                 `gorm:"uniqueIndex:idx_users_email;not null" json:"email"`
	Password               string                 `gorm:"not null" json:"-"`
	Name                   string                 `gorm:"not null" json:"name"`
	IsAdmin                bool                   `gorm:"not null;default:false" json:"isAdmin"`
	RegistrationStatus     RegistrationStatus     `gorm:"type:varchar(20);not null;default:'PROVISIONAL'" json:"registrationStatus"`
	ProfilePicURL          string                 `json:"profilePicUrl"`
	Bio                    string                 `gorm:"type:text" json:"bio"`
	WebsiteURL             string                 `json:"websiteUrl"`
	SocialLinks            SocialLinks            `gorm:"serializer:json" json:"socialLinks,omitempty"`
	LocationID             *uint                  `gorm:"index" json:"locationId"`
	Location               *Location              `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	ShippingOption         ShippingOption         `gorm:"type:varchar(20);not null;default:'PICKUP'" json:"shippingOption"`
	ShippingResponsibility ShippingResponsibility `gorm:"type:varchar(20);not null;default:'RECEIVER'" json:"shippingResponsibility"`
	CreatedAt              time.Time              `json:"createdAt"`
	UpdatedAt              time.Time              `json:"updatedAt"`
}

// IsProvisional reports whether phase two of registration is still pending.
func (u *User) IsProvisional() bool {
	return u.RegistrationStatus == RegistrationProvisional
}
