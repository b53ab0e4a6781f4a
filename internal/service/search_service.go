package service

import (
	"context"
	"strings"

	"github.com/goodabcdef/instagram-project/internal/models"
	"github.com/goodabcdef/instagram-project/internal/repository"
	"github.com/goodabcdef/instagram-project/internal/validation"
)

const maxKeywordLen = 100

type SearchService struct {
	userRepo repository.UserRepository
	postRepo repository.PostRepository
}

func NewSearchService(userRepo repository.UserRepository, postRepo repository.PostRepository) *SearchService {
	return &SearchService{userRepo: userRepo, postRepo: postRepo}
}

func (s *SearchService) UsersByNickname(ctx context.Context, keyword string, limit, offset int) ([]models.User, error) {
	kw, err := cleanKeyword(keyword)
	if err != nil {
		return nil, err
	}
	return s.userRepo.SearchByNickname(ctx, kw, limit, offset)
}

func (s *SearchService) UsersByEmail(ctx context.Context, keyword string, limit, offset int) ([]models.User, error) {
	kw, err := cleanKeyword(keyword)
	if err != nil {
		return nil, err
	}
	return s.userRepo.SearchByEmail(ctx, strings.ToLower(kw), limit, offset)
}

func (s *SearchService) Posts(ctx context.Context, keyword string, limit, offset int) ([]*models.Post, error) {
	kw, err := cleanKeyword(keyword)
	if err != nil {
		return nil, err
	}
	return s.postRepo.Search(ctx, kw, limit, offset)
}

// PostsByHashtag accepts the tag with or without a leading '#'.
func (s *SearchService) PostsByHashtag(ctx context.Context, name string, limit, offset int) ([]*models.Post, error) {
	tag := validation.NormalizeHashtag(name)
	if tag == "" {
		return nil, models.NewValidationError("Hashtag is required")
	}
	return s.postRepo.ListByHashtag(ctx, tag, limit, offset)
}

func cleanKeyword(keyword string) (string, error) {
	kw := strings.TrimSpace(keyword)
	if kw == "" {
		return "", models.NewValidationError("Search keyword is required")
	}
	if len([]rune(kw)) > maxKeywordLen {
		return "", models.NewValidationError("Search keyword too long (max 100 characters)")
	}
	return kw, nil
}
