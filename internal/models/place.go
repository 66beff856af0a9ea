package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SavedPlace is a user's bookmark of a place, denormalized from the Places
// API at save time.
type SavedPlace struct {
	ID               string    `gorm:"primaryKey;type:text" json:"id"`
	UserID           string    `gorm:"not null;index:saved_place_user_idx" json:"userId"`
	Name             string    `gorm:"not null" json:"name"`
	FormattedAddress string    `gorm:"not null" json:"formattedAddress"`
	Latitude         float64   `gorm:"not null" json:"latitude"`
	Longitude        float64   `gorm:"not null" json:"longitude"`
	PlaceID          *string   `gorm:"index:saved_place_place_idx" json:"placeId"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (SavedPlace) TableName() string {
	return "saved_places"
}

// BeforeCreate assigns a UUID when the caller did not.
func (p *SavedPlace) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Recommendation sources.
const (
	SourceGoogle    = "google"
	SourceCommunity = "community"
)

// PlaceSummary is the minimal place shape returned by the details lookup
// used to enrich reviews.
type PlaceSummary struct {
	PlaceID          string `json:"place_id"`
	Name             string `json:"name"`
	FormattedAddress string `json:"formatted_address,omitempty"`
}
