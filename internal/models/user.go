// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/goccy/go-json"
)

// User represents a Bizzy account holder.
type User struct {
	ID                  string    `gorm:"primaryKey;type:text" json:"id"`
	Name                string    `gorm:"not null" json:"name"`
	Email               string    `gorm:"uniqueIndex;not null" json:"email"`
	EmailVerified       bool      `gorm:"not null;default:false" json:"emailVerified"`
	Image               *string   `json:"image"`
	OnboardingCompleted bool      `gorm:"not null;default:false" json:"onboardingCompleted"`
	Interests           *string   `json:"interests"`
	Username            string    `gorm:"uniqueIndex:user_username_idx;not null" json:"username"`
	DisplayUsername     *string   `json:"displayUsername"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// InterestList decodes the stored interests JSON. Missing or malformed
// values yield an empty list.
func (u *User) InterestList() []string {
	if u == nil || u.Interests == nil {
		return []string{}
	}
	return ParseInterests(*u.Interests)
}

// ParseInterests decodes a JSON array of interest IDs. Anything that is not
// a JSON array of strings yields an empty list.
func ParseInterests(raw string) []string {
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

// EncodeInterests serializes interests for storage.
func EncodeInterests(interests []string) (string, error) {
	if interests == nil {
		interests = []string{}
	}
	b, err := json.Marshal(interests)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UserSummary is the compact author shape embedded in reviews and follow lists.
type UserSummary struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Username string  `json:"username"`
	Image    *string `json:"image"`
}

// Summary projects the user into a UserSummary.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
		Image:    u.Image,
	}
}

// CountShared returns how many of mine also appear in theirs.
func CountShared(mine, theirs []string) int {
	if len(mine) == 0 || len(theirs) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(theirs))
	for _, t := range theirs {
		set[t] = struct{}{}
	}
	n := 0
	for _, m := range mine {
		if _, ok := set[m]; ok {
			n++
		}
	}
	return n
}
