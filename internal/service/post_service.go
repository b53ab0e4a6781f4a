package service

import (
	"context"

	"github.com/goodabcdef/instagram-project/internal/models"
	"github.com/goodabcdef/instagram-project/internal/repository"
	"github.com/goodabcdef/instagram-project/internal/validation"
)

const maxPostContentLen = 2200

type PostService struct {
	postRepo repository.PostRepository
	images   *ImageService
	isAdmin  AdminChecker
}

type CreatePostInput struct {
	UserID  uint
	Content string
	Image   *UploadImageInput
}

type UpdatePostInput struct {
	UserID  uint
	PostID  uint
	Content string
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

// NewPostService wires the post service. images may be nil, in which case
// posts with an attached image are rejected.
func NewPostService(postRepo repository.PostRepository, images *ImageService, isAdmin AdminChecker) *PostService {
	return &PostService{
		postRepo: postRepo,
		images:   images,
		isAdmin:  isAdmin,
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	content, err := cleanPostContent(in.Content)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Content: content,
		UserID:  in.UserID,
	}

	if in.Image != nil {
		if s.images == nil {
			return nil, models.NewValidationError("Image uploads are not enabled")
		}
		upload := *in.Image
		upload.UserID = in.UserID
		stored, err := s.images.Upload(ctx, upload)
		if err != nil {
			return nil, err
		}
		post.ImageURL = stored.URL
		post.ImageKey = stored.Key
	}

	if err := s.postRepo.Create(ctx, post, validation.ExtractHashtags(content)); err != nil {
		if s.images != nil {
			s.images.Remove(ctx, post.ImageKey)
		}
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// ListPosts returns posts newest first.
func (s *PostService) ListPosts(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return s.postRepo.List(ctx, limit, offset)
}

func (s *PostService) GetUserPosts(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.postRepo.ListByUser(ctx, userID, limit, offset)
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// UpdatePost replaces the caption and re-derives the post's hashtags.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := CanModify(ctx, in.UserID, post.UserID, s.isAdmin); err != nil {
		return nil, err
	}

	content, err := cleanPostContent(in.Content)
	if err != nil {
		return nil, err
	}
	if err := s.postRepo.UpdateContent(ctx, post.ID, content, validation.ExtractHashtags(content)); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// DeletePost removes the post and, best effort, its stored image.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return err
	}
	if err := CanModify(ctx, in.UserID, post.UserID, s.isAdmin); err != nil {
		return err
	}
	return s.removePost(ctx, post)
}

// ForceDelete removes a post regardless of ownership. Callers must have
// checked admin rights already.
func (s *PostService) ForceDelete(ctx context.Context, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	return s.removePost(ctx, post)
}

func (s *PostService) removePost(ctx context.Context, post *models.Post) error {
	if err := s.postRepo.Delete(ctx, post.ID); err != nil {
		return err
	}
	if s.images != nil {
		s.images.Remove(ctx, post.ImageKey)
	}
	return nil
}

func cleanPostContent(raw string) (string, error) {
	content := validation.SanitizeText(raw)
	if len([]rune(content)) > maxPostContentLen {
		return "", models.NewValidationError("Content too long (max 2200 characters)")
	}
	return content, nil
}
