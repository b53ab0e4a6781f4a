package repository

import (
	"context"

	"github.com/goodabcdef/instagram-project/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionRepository stores one-per-(user, post) marks such as likes and
// bookmarks.
type ReactionRepository interface {
	Add(ctx context.Context, userID, postID uint) error
	Remove(ctx context.Context, userID, postID uint) error
	Exists(ctx context.Context, userID, postID uint) (bool, error)
	ListPostsByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error)
}

type reactionRepository struct {
	db       *gorm.DB
	table    string
	resource string
	newRow   func(userID, postID uint) interface{}
}

// NewLikeRepository returns a ReactionRepository over the likes table.
func NewLikeRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{
		db:       db,
		table:    "likes",
		resource: "Like",
		newRow: func(userID, postID uint) interface{} {
			return &models.Like{UserID: userID, PostID: postID}
		},
	}
}

// NewBookmarkRepository returns a ReactionRepository over the bookmarks table.
func NewBookmarkRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{
		db:       db,
		table:    "bookmarks",
		resource: "Bookmark",
		newRow: func(userID, postID uint) interface{} {
			return &models.Bookmark{UserID: userID, PostID: postID}
		},
	}
}

// Add reports Conflict when the pair already exists.
func (r *reactionRepository) Add(ctx context.Context, userID, postID uint) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(r.newRow(userID, postID)).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError(r.resource + " already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Remove reports NotFound when there was nothing to remove.
func (r *reactionRepository) Remove(ctx context.Context, userID, postID uint) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND post_id = ?", userID, postID).Delete(r.newRow(0, 0))
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError(r.resource, postID)
	}
	return nil
}

func (r *reactionRepository) Exists(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(r.newRow(0, 0)).Where("user_id = ? AND post_id = ?", userID, postID).Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// ListPostsByUser returns the posts userID marked, most recent mark first.
func (r *reactionRepository) ListPostsByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select(postCountsSelect).
		Preload("User").
		Preload("Hashtags").
		Joins("JOIN "+r.table+" r ON r.post_id = posts.id").
		Where("r.user_id = ?", userID).
		Order("r.created_at DESC, r.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}
