// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Provider identifies where an account originated.
type Provider string

const (
	// ProviderLocal is an email/password account.
	ProviderLocal Provider = "LOCAL"
	// ProviderKakao is created through the Kakao authorization-code flow.
	ProviderKakao Provider = "KAKAO"
	// ProviderFirebase is created from a verified Firebase ID token.
	ProviderFirebase Provider = "FIREBASE"
)

// Valid reports whether p is one of the known providers.
func (p Provider) Valid() bool {
	switch p {
	case ProviderLocal, ProviderKakao, ProviderFirebase:
		return true
	}
	return false
}

// User represents an account. Email is the identity key for login and
// social linking.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Email      string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password   *string   `gorm:"size:255" json:"-"`
	Nickname   string    `gorm:"size:50;not null;index" json:"nickname"`
	ImageURL   string    `gorm:"size:512" json:"image_url"`
	IsAdmin    bool      `gorm:"not null;default:false" json:"is_admin"`
	Provider   Provider  `gorm:"type:varchar(20);not null;default:'LOCAL'" json:"provider"`
	ProviderID *string   `gorm:"size:255" json:"provider_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Posts []Post `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"posts,omitempty"`
}

// HasPassword reports whether the account can log in with a local password.
func (u *User) HasPassword() bool {
	return u.Password != nil && *u.Password != ""
}

// UserSummary is the compact user shape embedded in lists.
type UserSummary struct {
	ID       uint   `json:"id"`
	Nickname string `json:"nickname"`
	ImageURL string `json:"image_url"`
}

// Summary returns the compact representation of u.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Nickname: u.Nickname, ImageURL: u.ImageURL}
}
