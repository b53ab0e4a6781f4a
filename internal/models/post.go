package models

import (
	"time"
)

// Post is a photo post with a caption.
type Post struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Content  string    `gorm:"type:text;not null;default:''" json:"content"`
	ImageURL string    `gorm:"size:512" json:"image_url"`
	ImageKey string    `gorm:"size:512" json:"-"`
	UserID   uint      `gorm:"not null;index" json:"user_id"`
	User     User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	Hashtags []Hashtag `gorm:"many2many:post_hashtags;constraint:OnDelete:CASCADE" json:"hashtags"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->;-:migration" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int       `gorm:"->;-:migration" json:"comments_count"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
