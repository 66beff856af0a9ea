package models

import "time"

// Account provider identifiers.
const (
	ProviderCredential = "credential"
	ProviderGoogle     = "google"
)

// Session is a server-side login session. Token holds the jti of the JWT
// handed to the client.
type Session struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	UserID    string    `gorm:"not null;index:session_user_id_idx" json:"userId"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (Session) TableName() string {
	return "sessions"
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Account links a user to a login provider. Credential accounts carry a
// bcrypt password hash; OAuth accounts carry provider tokens.
type Account struct {
	ID                   string     `gorm:"primaryKey;type:text" json:"id"`
	AccountID            string     `gorm:"not null;uniqueIndex:account_provider_idx,priority:2" json:"accountId"`
	ProviderID           string     `gorm:"not null;uniqueIndex:account_provider_idx,priority:1" json:"providerId"`
	UserID               string     `gorm:"not null;index:account_user_id_idx" json:"userId"`
	AccessToken          *string    `json:"-"`
	RefreshToken         *string    `json:"-"`
	IDToken              *string    `json:"-"`
	AccessTokenExpiresAt *time.Time `json:"-"`
	Scope                *string    `json:"scope,omitempty"`
	Password             *string    `json:"-"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (Account) TableName() string {
	return "accounts"
}
