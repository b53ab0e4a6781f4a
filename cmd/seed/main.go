// Command main runs the database seeder.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/goodabcdef/instagram-project/internal/config"
	"github.com/goodabcdef/instagram-project/internal/database"
	"github.com/goodabcdef/instagram-project/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	shouldClean := flag.Bool("clean", false, "Clean database before seeding")
	fixture := flag.String("fixture", "", "Load users, posts and follows from a YAML fixture instead of generating them")
	dryRun := flag.Bool("dry-run", false, "Build everything but write nothing")
	fast := flag.Bool("fast", false, "Hash passwords with the minimum bcrypt cost")
	randSeed := flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible data")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	opts := seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		ShouldClean: *shouldClean,
		DryRun:      *dryRun,
		SkipBcrypt:  *fast,
		MaxDays:     30,
		RandSeed:    *randSeed,
	}

	if *fixture != "" {
		fx, err := seed.LoadFixture(*fixture)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		if err := fx.Apply(db, opts); err != nil {
			log.Fatalf("❌ Fixture seeding failed: %v", err)
		}
		log.Printf("✨ Fixture %s applied", *fixture)
		return
	}

	log.Printf("Target: %d users, %d posts, clean=%v dry-run=%v", opts.NumUsers, opts.NumPosts, opts.ShouldClean, opts.DryRun)
	res, err := seed.Seed(db, opts)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ Seeded %d users, %d posts, %d comments, %d likes, %d bookmarks, %d follows",
		res.Users, res.Posts, res.Comments, res.Likes, res.Bookmarks, res.Follows)
	log.Printf("📧 All generated users have the password: %s", seed.DefaultPassword)
}
