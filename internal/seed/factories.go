package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/goodabcdef/instagram-project/internal/auth"
	"github.com/goodabcdef/instagram-project/internal/models"
	"github.com/goodabcdef/instagram-project/internal/repository"
	"github.com/goodabcdef/instagram-project/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password given to every generated account.
const DefaultPassword = "password123"

var hashtagPool = []string{
	"travel", "food", "sunset", "coffee", "dog", "cat", "gym", "ootd",
	"nature", "seoul", "weekend", "art", "music", "beach", "books", "daily",
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by Seed, fixtures and tests.
type Factory struct {
	db       *gorm.DB
	opts     Options
	posts    repository.PostRepository
	hasher   *auth.Hasher
	digest   string
	rnd      *rand.Rand
	nextID   uint
	sequence int
}

// NewFactory creates a Factory bound to db. The shared password digest is
// computed once.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	cost := bcrypt.DefaultCost
	if opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hasher := auth.NewHasher(cost)
	digest, err := hasher.Hash(DefaultPassword)
	if err != nil {
		return nil, err
	}

	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)

	f := &Factory{
		db:     db,
		opts:   opts,
		hasher: hasher,
		digest: digest,
		//nolint:gosec // Weak random number generator is fine for seeding
		rnd:    rand.New(rand.NewSource(seed)),
		nextID: 1000,
	}
	if db != nil {
		f.posts = repository.NewPostRepository(db)
	}
	return f, nil
}

// BuildUser returns an unsaved local account with fake profile data.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	f.sequence++
	digest := f.digest
	nickname := gofakeit.Username()
	if len(nickname) > validation.MaxNicknameLength-4 {
		nickname = nickname[:validation.MaxNicknameLength-4]
	}
	user := &models.User{
		Email:    fmt.Sprintf("%s.%d@example.com", strings.ToLower(gofakeit.FirstName()), f.sequence),
		Password: &digest,
		Nickname: fmt.Sprintf("%s%d", nickname, f.sequence),
		ImageURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		Provider: models.ProviderLocal,
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser builds and persists a user.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)
	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s", user.Email)
		return user, nil
	}
	if err := f.db.Omit("Posts").Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost returns an unsaved post with a caption that carries a few
// hashtags, dated within the last MaxDays days.
func (f *Factory) BuildPost(user *models.User, overrides ...func(*models.Post)) *models.Post {
	tags := make([]string, 0, 3)
	for i := 0; i < 1+f.rnd.Intn(3); i++ {
		tags = append(tags, "#"+hashtagPool[f.rnd.Intn(len(hashtagPool))])
	}

	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rnd.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rnd.Intn(24))*time.Hour +
		time.Duration(f.rnd.Intn(60))*time.Minute

	post := &models.Post{
		Content:   gofakeit.Sentence(8) + " " + strings.Join(tags, " "),
		ImageURL:  fmt.Sprintf("https://picsum.photos/seed/%s/1080/1080", gofakeit.UUID()),
		UserID:    user.ID,
		CreatedAt: time.Now().Add(-back),
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost persists a post and links the hashtags found in its caption.
func (f *Factory) CreatePost(user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(user, overrides...)
	if f.opts.DryRun {
		f.nextID++
		post.ID = f.nextID
		return post, nil
	}
	if err := f.posts.Create(context.Background(), post, validation.ExtractHashtags(post.Content)); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a short fake comment on post.
func (f *Factory) CreateComment(user *models.User, post *models.Post) (*models.Comment, error) {
	comment := &models.Comment{
		Content: gofakeit.Sentence(6),
		UserID:  user.ID,
		PostID:  post.ID,
	}
	if f.opts.DryRun {
		f.nextID++
		comment.ID = f.nextID
		return comment, nil
	}
	if err := f.db.Omit("User", "Post").Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike marks post as liked by user.
func (f *Factory) CreateLike(user *models.User, post *models.Post) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Omit("User", "Post").Create(&models.Like{UserID: user.ID, PostID: post.ID}).Error
}

// CreateBookmark saves post for user.
func (f *Factory) CreateBookmark(user *models.User, post *models.Post) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Omit("User", "Post").Create(&models.Bookmark{UserID: user.ID, PostID: post.ID}).Error
}

// CreateFollow adds a follow edge. Self-follows are ignored.
func (f *Factory) CreateFollow(follower, following *models.User) error {
	if f.opts.DryRun || follower.ID == following.ID {
		return nil
	}
	return f.db.Omit("Follower", "Following").
		Create(&models.Follow{FollowerID: follower.ID, FollowingID: following.ID}).Error
}
