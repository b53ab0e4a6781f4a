package service

import (
	"context"
	"strings"

	"github.com/goodabcdef/instagram-project/internal/models"
	"github.com/goodabcdef/instagram-project/internal/repository"
	"github.com/goodabcdef/instagram-project/internal/validation"
)

type UserService struct {
	userRepo repository.UserRepository
}

// UpdateProfileInput holds optional profile changes. Nil fields are left as they are.
type UpdateProfileInput struct {
	UserID   uint
	Nickname *string
	ImageURL *string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	nickname := user.Nickname
	imageURL := user.ImageURL
	if in.Nickname != nil {
		nickname = strings.TrimSpace(*in.Nickname)
		if err := validation.ValidateNickname(nickname); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}
	if in.ImageURL != nil {
		imageURL = strings.TrimSpace(*in.ImageURL)
		if len(imageURL) > 512 {
			return nil, models.NewValidationError("image_url too long (max 512 characters)")
		}
	}

	if err := s.userRepo.UpdateProfile(ctx, user.ID, nickname, imageURL); err != nil {
		return nil, err
	}
	user.Nickname = nickname
	user.ImageURL = imageURL
	return user, nil
}

// DeleteUser removes the account and everything it owns.
func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	return s.userRepo.Delete(ctx, id)
}

func (s *UserService) SetAdmin(ctx context.Context, targetID uint, isAdmin bool) (*models.User, error) {
	if err := s.userRepo.SetAdmin(ctx, targetID, isAdmin); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, targetID)
}
