package database

import "github.com/goodabcdef/instagram-project/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Post{},
		&models.Hashtag{},
		&models.Comment{},
		&models.Like{},
		&models.Bookmark{},
		&models.Follow{},
	}
}
