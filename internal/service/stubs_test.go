package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goodabcdef/instagram-project/internal/models"
	"github.com/goodabcdef/instagram-project/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn          func(context.Context, uint) (*models.User, error)
	getByEmailFn       func(context.Context, string) (*models.User, error)
	createFn           func(context.Context, *models.User) error
	updateProfileFn    func(context.Context, uint, string, string) error
	setAdminFn         func(context.Context, uint, bool) error
	deleteFn           func(context.Context, uint) error
	listFn             func(context.Context, int, int) ([]models.User, error)
	searchByNicknameFn func(context.Context, string, int, int) ([]models.User, error)
	searchByEmailFn    func(context.Context, string, int, int) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, id uint, nickname, imageURL string) error {
	return s.updateProfileFn(ctx, id, nickname, imageURL)
}
func (s *userRepoStub) SetAdmin(ctx context.Context, id uint, isAdmin bool) error {
	return s.setAdminFn(ctx, id, isAdmin)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *userRepoStub) SearchByNickname(ctx context.Context, keyword string, limit, offset int) ([]models.User, error) {
	return s.searchByNicknameFn(ctx, keyword, limit, offset)
}
func (s *userRepoStub) SearchByEmail(ctx context.Context, keyword string, limit, offset int) ([]models.User, error) {
	return s.searchByEmailFn(ctx, keyword, limit, offset)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:          func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn:       func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:           func(_ context.Context, _ *models.User) error { return nil },
		updateProfileFn:    func(_ context.Context, _ uint, _, _ string) error { return nil },
		setAdminFn:         func(_ context.Context, _ uint, _ bool) error { return nil },
		deleteFn:           func(_ context.Context, _ uint) error { return nil },
		listFn:             func(_ context.Context, _, _ int) ([]models.User, error) { return nil, nil },
		searchByNicknameFn: func(_ context.Context, _ string, _, _ int) ([]models.User, error) { return nil, nil },
		searchByEmailFn:    func(_ context.Context, _ string, _, _ int) ([]models.User, error) { return nil, nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn        func(context.Context, *models.Post, []string) error
	getByIDFn       func(context.Context, uint) (*models.Post, error)
	existsFn        func(context.Context, uint) (bool, error)
	listFn          func(context.Context, int, int) ([]*models.Post, error)
	listByUserFn    func(context.Context, uint, int, int) ([]*models.Post, error)
	listByHashtagFn func(context.Context, string, int, int) ([]*models.Post, error)
	searchFn        func(context.Context, string, int, int) ([]*models.Post, error)
	updateContentFn func(context.Context, uint, string, []string) error
	deleteFn        func(context.Context, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post, tags []string) error {
	return s.createFn(ctx, post, tags)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *postRepoStub) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.listByUserFn(ctx, userID, limit, offset)
}
func (s *postRepoStub) ListByHashtag(ctx context.Context, name string, limit, offset int) ([]*models.Post, error) {
	return s.listByHashtagFn(ctx, name, limit, offset)
}
func (s *postRepoStub) Search(ctx context.Context, keyword string, limit, offset int) ([]*models.Post, error) {
	return s.searchFn(ctx, keyword, limit, offset)
}
func (s *postRepoStub) UpdateContent(ctx context.Context, id uint, content string, tags []string) error {
	return s.updateContentFn(ctx, id, content, tags)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:        func(_ context.Context, _ *models.Post, _ []string) error { return nil },
		getByIDFn:       func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		existsFn:        func(_ context.Context, _ uint) (bool, error) { return true, nil },
		listFn:          func(_ context.Context, _, _ int) ([]*models.Post, error) { return nil, nil },
		listByUserFn:    func(_ context.Context, _ uint, _, _ int) ([]*models.Post, error) { return nil, nil },
		listByHashtagFn: func(_ context.Context, _ string, _, _ int) ([]*models.Post, error) { return nil, nil },
		searchFn:        func(_ context.Context, _ string, _, _ int) ([]*models.Post, error) { return nil, nil },
		updateContentFn: func(_ context.Context, _ uint, _ string, _ []string) error { return nil },
		deleteFn:        func(_ context.Context, _ uint) error { return nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	listByPostFn func(context.Context, uint, int, int) ([]*models.Comment, error)
	deleteFn     func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID, limit, offset)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn:    func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		listByPostFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Comment, error) { return nil, nil },
		deleteFn:     func(_ context.Context, _ uint) error { return nil },
	}
}

// reactionRepoStub is a stub for repository.ReactionRepository.
type reactionRepoStub struct {
	addFn    func(context.Context, uint, uint) error
	removeFn func(context.Context, uint, uint) error
	existsFn func(context.Context, uint, uint) (bool, error)
	listFn   func(context.Context, uint, int, int) ([]*models.Post, error)
}

func (s *reactionRepoStub) Add(ctx context.Context, userID, postID uint) error {
	return s.addFn(ctx, userID, postID)
}
func (s *reactionRepoStub) Remove(ctx context.Context, userID, postID uint) error {
	return s.removeFn(ctx, userID, postID)
}
func (s *reactionRepoStub) Exists(ctx context.Context, userID, postID uint) (bool, error) {
	return s.existsFn(ctx, userID, postID)
}
func (s *reactionRepoStub) ListPostsByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.listFn(ctx, userID, limit, offset)
}

func noopReactionRepo() *reactionRepoStub {
	return &reactionRepoStub{
		addFn:    func(_ context.Context, _, _ uint) error { return nil },
		removeFn: func(_ context.Context, _, _ uint) error { return nil },
		existsFn: func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		listFn:   func(_ context.Context, _ uint, _, _ int) ([]*models.Post, error) { return nil, nil },
	}
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	createFn         func(context.Context, uint, uint) error
	deleteFn         func(context.Context, uint, uint) error
	existsFn         func(context.Context, uint, uint) (bool, error)
	listFollowersFn  func(context.Context, uint, int, int) ([]models.User, error)
	listFollowingsFn func(context.Context, uint, int, int) ([]models.User, error)
	statsFn          func(context.Context, uint) (*models.FollowStats, error)
}

func (s *followRepoStub) Create(ctx context.Context, followerID, followingID uint) error {
	return s.createFn(ctx, followerID, followingID)
}
func (s *followRepoStub) Delete(ctx context.Context, followerID, followingID uint) error {
	return s.deleteFn(ctx, followerID, followingID)
}
func (s *followRepoStub) Exists(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.existsFn(ctx, followerID, followingID)
}
func (s *followRepoStub) ListFollowers(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	return s.listFollowersFn(ctx, userID, limit, offset)
}
func (s *followRepoStub) ListFollowings(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	return s.listFollowingsFn(ctx, userID, limit, offset)
}
func (s *followRepoStub) Stats(ctx context.Context, userID uint) (*models.FollowStats, error) {
	return s.statsFn(ctx, userID)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		createFn:         func(_ context.Context, _, _ uint) error { return nil },
		deleteFn:         func(_ context.Context, _, _ uint) error { return nil },
		existsFn:         func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		listFollowersFn:  func(_ context.Context, _ uint, _, _ int) ([]models.User, error) { return nil, nil },
		listFollowingsFn: func(_ context.Context, _ uint, _, _ int) ([]models.User, error) { return nil, nil },
		statsFn: func(_ context.Context, id uint) (*models.FollowStats, error) {
			return &models.FollowStats{UserID: id}, nil
		},
	}
}

type sentEvent struct {
	recipient uint
	event     notifications.Event
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []sentEvent
	err    error
}

func (p *recordingPublisher) Notify(_ context.Context, recipientID uint, event notifications.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, sentEvent{recipient: recipientID, event: event})
	return p.err
}

func (p *recordingPublisher) sent() []sentEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]sentEvent(nil), p.events...)
}

func adminIf(ids ...uint) AdminChecker {
	return func(_ context.Context, userID uint) (bool, error) {
		for _, id := range ids {
			if id == userID {
				return true, nil
			}
		}
		return false, nil
	}
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeValidation)
}
