package repository

import (
	"context"
	"errors"

	"github.com/goodabcdef/instagram-project/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post, tags []string) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Exists(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error)
	ListByHashtag(ctx context.Context, name string, limit, offset int) ([]*models.Post, error)
	Search(ctx context.Context, keyword string, limit, offset int) ([]*models.Post, error)
	UpdateContent(ctx context.Context, id uint, content string, tags []string) error
	Delete(ctx context.Context, id uint) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

const postCountsSelect = `posts.*,
	(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count,
	(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count`

// withDetails selects derived counts and preloads author and tags.
func (r *postRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select(postCountsSelect).
		Preload("User").
		Preload("Hashtags")
}

func (r *postRepository) Create(ctx context.Context, post *models.Post, tags []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post.Hashtags = nil
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		return replaceHashtags(tx, post, tags)
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.withDetails(ctx).Where("posts.id = ?", id).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return r.find(r.withDetails(ctx), limit, offset)
}

func (r *postRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return r.find(r.withDetails(ctx).Where("posts.user_id = ?", userID), limit, offset)
}

func (r *postRepository) ListByHashtag(ctx context.Context, name string, limit, offset int) ([]*models.Post, error) {
	q := r.withDetails(ctx).
		Joins("JOIN post_hashtags ON post_hashtags.post_id = posts.id").
		Joins("JOIN hashtags ON hashtags.id = post_hashtags.hashtag_id").
		Where("hashtags.name = ?", name)
	return r.find(q, limit, offset)
}

func (r *postRepository) Search(ctx context.Context, keyword string, limit, offset int) ([]*models.Post, error) {
	return r.find(r.withDetails(ctx).Where(`posts.content LIKE ? ESCAPE '\'`, likePattern(keyword)), limit, offset)
}

func (r *postRepository) find(q *gorm.DB, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	if err := q.Order("posts.created_at DESC, posts.id DESC").Limit(limit).Offset(offset).Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) UpdateContent(ctx context.Context, id uint, content string, tags []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).Where("id = ?", id).Update("content", content)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		return replaceHashtags(tx, &models.Post{ID: id}, tags)
	})
	return wrapTxError(err)
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.Like{}, &models.Bookmark{}, &models.Comment{}} {
			if err := tx.Where("post_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		if err := tx.Exec("DELETE FROM post_hashtags WHERE post_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		return nil
	})
	return wrapTxError(err)
}

// replaceHashtags upserts tags by name and makes them the post's full set.
func replaceHashtags(tx *gorm.DB, post *models.Post, tags []string) error {
	if err := tx.Exec("DELETE FROM post_hashtags WHERE post_id = ?", post.ID).Error; err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}

	rows := make([]models.Hashtag, 0, len(tags))
	for _, t := range tags {
		rows = append(rows, models.Hashtag{Name: t})
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&rows).Error; err != nil {
		return err
	}

	var hashtags []models.Hashtag
	if err := tx.Where("name IN ?", tags).Find(&hashtags).Error; err != nil {
		return err
	}

	links := make([]map[string]interface{}, 0, len(hashtags))
	for _, h := range hashtags {
		links = append(links, map[string]interface{}{"post_id": post.ID, "hashtag_id": h.ID})
	}
	if err := tx.Table("post_hashtags").Create(&links).Error; err != nil {
		return err
	}
	post.Hashtags = hashtags
	return nil
}

func wrapTxError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}
