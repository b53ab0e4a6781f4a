package service

import (
	"context"

	"github.com/goodabcdef/instagram-project/internal/models"
	"github.com/goodabcdef/instagram-project/internal/notifications"
	"github.com/goodabcdef/instagram-project/internal/repository"
)

// ReactionService manages one-per-(user, post) marks: likes and bookmarks.
type ReactionService struct {
	reactions repository.ReactionRepository
	postRepo  repository.PostRepository
	notifier  notifications.Publisher
	// event is published to the post owner on Add. Empty means silent.
	event notifications.EventType
}

// NewLikeService notifies post owners when their post is liked.
func NewLikeService(likes repository.ReactionRepository, postRepo repository.PostRepository, notifier notifications.Publisher) *ReactionService {
	return &ReactionService{reactions: likes, postRepo: postRepo, notifier: notifier, event: notifications.EventLike}
}

// NewBookmarkService saves posts privately; owners are not told.
func NewBookmarkService(bookmarks repository.ReactionRepository, postRepo repository.PostRepository) *ReactionService {
	return &ReactionService{reactions: bookmarks, postRepo: postRepo}
}

// Add marks the post. A missing post is NotFound and a repeat is Conflict.
func (s *ReactionService) Add(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if err := s.reactions.Add(ctx, userID, postID); err != nil {
		return err
	}
	if s.event != "" {
		id := post.ID
		publish(ctx, s.notifier, post.UserID, notifications.Event{Type: s.event, ActorID: userID, PostID: &id})
	}
	return nil
}

// Remove unmarks the post. NotFound when it was not marked.
func (s *ReactionService) Remove(ctx context.Context, userID, postID uint) error {
	return s.reactions.Remove(ctx, userID, postID)
}

// ListMine returns the posts userID has marked, most recent mark first.
func (s *ReactionService) ListMine(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.reactions.ListPostsByUser(ctx, userID, limit, offset)
}
