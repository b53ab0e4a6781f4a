package service

import (
	"context"
	"log/slog"

	"github.com/goodabcdef/instagram-project/internal/middleware"
	"github.com/goodabcdef/instagram-project/internal/models"
)

// AdminService holds moderation actions. Callers must already have
// verified the actor is an admin.
type AdminService struct {
	users *UserService
	posts *PostService
}

func NewAdminService(users *UserService, posts *PostService) *AdminService {
	return &AdminService{users: users, posts: posts}
}

func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.users.ListUsers(ctx, limit, offset)
}

// BanUser deletes another user's account with everything it owns.
func (s *AdminService) BanUser(ctx context.Context, actorID, targetID uint) error {
	if actorID == targetID {
		return models.NewValidationError("You cannot ban yourself")
	}
	if _, err := s.users.GetUserByID(ctx, targetID); err != nil {
		return err
	}
	if err := s.users.DeleteUser(ctx, targetID); err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "user banned",
		slog.Uint64("admin_id", uint64(actorID)), slog.Uint64("target_id", uint64(targetID)))
	return nil
}

func (s *AdminService) DeletePost(ctx context.Context, actorID, postID uint) error {
	if err := s.posts.ForceDelete(ctx, postID); err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "post removed by admin",
		slog.Uint64("admin_id", uint64(actorID)), slog.Uint64("post_id", uint64(postID)))
	return nil
}

// SetAdmin promotes or demotes targetID. Admins cannot demote themselves.
func (s *AdminService) SetAdmin(ctx context.Context, actorID, targetID uint, isAdmin bool) (*models.User, error) {
	if actorID == targetID && !isAdmin {
		return nil, models.NewValidationError("You cannot remove your own admin rights")
	}
	return s.users.SetAdmin(ctx, targetID, isAdmin)
}
