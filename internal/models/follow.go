package models

import "time"

// Follow is a directed edge: FollowerID follows FollowingID.
type Follow struct {
	FollowerID  string    `gorm:"primaryKey;type:text;index:follower_idx" json:"followerId"`
	FollowingID string    `gorm:"primaryKey;type:text;index:following_idx" json:"followingId"`
	CreatedAt   time.Time `gorm:"not null" json:"createdAt"`

	Follower  *User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	Following *User `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}

// FollowCounts are the follower/following totals of a single user.
type FollowCounts struct {
	Followers int64 `json:"followersCount"`
	Following int64 `json:"followingCount"`
}

// FollowListEntry is one row of a followers/following listing. CreatedAt is
// the time of the follow edge, not of the user.
type FollowListEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
}
