package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Rating bounds for a place review.
const (
	MinRating = 1
	MaxRating = 5
)

// PlaceReview is a user's rating and text for one external place. A user has
// at most one review per place.
type PlaceReview struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	UserID    string    `gorm:"not null;uniqueIndex:place_review_user_place_unique,priority:2" json:"userId"`
	PlaceID   string    `gorm:"not null;uniqueIndex:place_review_user_place_unique,priority:1" json:"placeId"`
	Rating    int       `gorm:"not null;check:rating_between_1_5,rating >= 1 AND rating <= 5" json:"rating"`
	Review    string    `gorm:"not null" json:"review"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (PlaceReview) TableName() string {
	return "place_reviews"
}

// BeforeCreate assigns a UUID when the caller did not.
func (r *PlaceReview) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// ValidRating reports whether rating lies in [MinRating, MaxRating].
func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}

// ReviewLike records that UserID liked ReviewID.
type ReviewLike struct {
	UserID    string    `gorm:"primaryKey;type:text" json:"userId"`
	ReviewID  string    `gorm:"primaryKey;type:text;index:review_like_review_idx" json:"reviewId"`
	CreatedAt time.Time `json:"createdAt"`

	User   *User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Review *PlaceReview `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (ReviewLike) TableName() string {
	return "review_likes"
}

// ReviewView is a review joined with its author and like state.
type ReviewView struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	PlaceID   string        `json:"placeId"`
	Rating    int           `json:"rating"`
	Review    string        `json:"review"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	User      *UserSummary  `json:"user"`
	Place     *PlaceSummary `json:"place,omitempty"`
	LikeCount int64         `json:"likeCount"`
	IsLiked   bool          `json:"isLiked"`
}

// NewReviewView builds a view without like state.
func NewReviewView(r *PlaceReview) ReviewView {
	v := ReviewView{
		ID:        r.ID,
		UserID:    r.UserID,
		PlaceID:   r.PlaceID,
		Rating:    r.Rating,
		Review:    r.Review,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.User != nil {
		s := r.User.Summary()
		v.User = &s
	}
	return v
}
