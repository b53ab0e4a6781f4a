package models

import (
	"time"
)

// Follow is a directed edge from follower to following. The pair is the
// primary key, so duplicate edges cannot exist.
type Follow struct {
	FollowerID  uint      `gorm:"primaryKey;autoIncrement:false" json:"follower_id"`
	FollowingID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`

	Follower  User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	Following User `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}

// FollowStats holds follower counts for a profile.
type FollowStats struct {
	UserID     uint  `json:"user_id"`
	Followers  int64 `json:"followers"`
	Followings int64 `json:"followings"`
}
