package service

import (
	"context"

	"github.com/goodabcdef/instagram-project/internal/models"
	"github.com/goodabcdef/instagram-project/internal/notifications"
	"github.com/goodabcdef/instagram-project/internal/repository"
)

type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	notifier   notifications.Publisher
}

func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	notifier notifications.Publisher,
) *FollowService {
	return &FollowService{followRepo: followRepo, userRepo: userRepo, notifier: notifier}
}

// Follow adds an edge from followerID to targetID.
func (s *FollowService) Follow(ctx context.Context, followerID, targetID uint) error {
	if followerID == targetID {
		return models.NewValidationError("You cannot follow yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return err
	}
	if err := s.followRepo.Create(ctx, followerID, targetID); err != nil {
		return err
	}
	publish(ctx, s.notifier, targetID, notifications.Event{Type: notifications.EventFollow, ActorID: followerID})
	return nil
}

// Unfollow removes the edge. Not following the target is a validation error.
func (s *FollowService) Unfollow(ctx context.Context, followerID, targetID uint) error {
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return err
	}
	following, err := s.followRepo.Exists(ctx, followerID, targetID)
	if err != nil {
		return err
	}
	if !following {
		return models.NewValidationError("You are not following this user")
	}
	return s.followRepo.Delete(ctx, followerID, targetID)
}

func (s *FollowService) Followers(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	return s.followRepo.ListFollowers(ctx, userID, limit, offset)
}

func (s *FollowService) Followings(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	return s.followRepo.ListFollowings(ctx, userID, limit, offset)
}

// Stats returns follower and following counts for an existing user.
func (s *FollowService) Stats(ctx context.Context, userID uint) (*models.FollowStats, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.followRepo.Stats(ctx, userID)
}
