// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"strings"

	"github.com/goodabcdef/instagram-project/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
	DryRun      bool
	SkipBcrypt  bool
	// MaxDays spreads post timestamps over the last N days.
	MaxDays  int
	RandSeed int64
}

// Result counts what a Seed run created.
type Result struct {
	Users     int
	Posts     int
	Comments  int
	Likes     int
	Bookmarks int
	Follows   int
}

// Seed populates the database with test data
func Seed(db *gorm.DB, opts Options) (*Result, error) {
	log.Printf("🌱 Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean && !opts.DryRun {
		if err := clearData(db); err != nil {
			log.Printf("⚠️  Warning: could not clear existing data: %v", err)
		}
	}

	f, err := NewFactory(db, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create factory: %w", err)
	}
	res := &Result{}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("failed to create users: %w", err)
		}
		users = append(users, u)
	}
	res.Users = len(users)
	log.Printf("✓ %d test users created", res.Users)
	if len(users) == 0 {
		return res, nil
	}

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		p, err := f.CreatePost(users[f.rnd.Intn(len(users))])
		if err != nil {
			return nil, fmt.Errorf("failed to create posts: %w", err)
		}
		posts = append(posts, p)
	}
	res.Posts = len(posts)
	log.Printf("✓ %d posts created", res.Posts)

	if err := seedFollows(f, users, res); err != nil {
		return nil, err
	}
	if err := seedEngagement(f, users, posts, res); err != nil {
		return nil, err
	}

	log.Printf("🎉 Database seeding completed: %d follows, %d likes, %d bookmarks, %d comments",
		res.Follows, res.Likes, res.Bookmarks, res.Comments)
	return res, nil
}

// seedFollows has every user follow up to five distinct others.
func seedFollows(f *Factory, users []*models.User, res *Result) error {
	if len(users) < 2 {
		return nil
	}
	for _, follower := range users {
		seen := map[uint]bool{follower.ID: true}
		want := 1 + f.rnd.Intn(min(5, len(users)-1))
		for len(seen)-1 < want {
			target := users[f.rnd.Intn(len(users))]
			if seen[target.ID] {
				continue
			}
			seen[target.ID] = true
			if err := f.CreateFollow(follower, target); err != nil {
				return fmt.Errorf("failed to create follows: %w", err)
			}
			res.Follows++
		}
	}
	return nil
}

// seedEngagement spreads likes, bookmarks and comments across posts. Each
// (user, post) pair gets at most one like and one bookmark.
func seedEngagement(f *Factory, users []*models.User, posts []*models.Post, res *Result) error {
	for _, post := range posts {
		for _, user := range users {
			roll := f.rnd.Intn(100)
			if roll < 30 {
				if err := f.CreateLike(user, post); err != nil {
					return fmt.Errorf("failed to create likes: %w", err)
				}
				res.Likes++
			}
			if roll < 5 {
				if err := f.CreateBookmark(user, post); err != nil {
					return fmt.Errorf("failed to create bookmarks: %w", err)
				}
				res.Bookmarks++
			}
			if roll >= 90 {
				if _, err := f.CreateComment(user, post); err != nil {
					return fmt.Errorf("failed to create comments: %w", err)
				}
				res.Comments++
			}
		}
	}
	return nil
}

var seededTables = []string{"bookmarks", "likes", "comments", "post_hashtags", "hashtags", "posts", "follows", "users"}

func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	if db.Dialector.Name() == "postgres" {
		return db.Exec("TRUNCATE TABLE " + strings.Join(seededTables, ", ") + " RESTART IDENTITY CASCADE").Error
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range seededTables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}
