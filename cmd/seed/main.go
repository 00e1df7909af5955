// Command main runs the database seeder for the bulletin board.
package main

import (
	"flag"
	"log"

	"bulletin/internal/config"
	"bulletin/internal/database"
	"bulletin/internal/seed"
)

func main() {
	// Parse command line flags
	numUsers := flag.Int("users", 20, "Number of users to create")
	numPosts := flag.Int("posts", 100, "Number of posts to create")
	maxComments := flag.Int("comments", 5, "Maximum comments per post")
	maxLikes := flag.Int("likes", 10, "Maximum likes per post")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing it")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	s := seed.NewSeeder(db, seed.Options{
		NumUsers:           *numUsers,
		NumPosts:           *numPosts,
		MaxCommentsPerPost: *maxComments,
		MaxLikesPerPost:    *maxLikes,
		Boards:             cfg.BoardList(),
		DryRun:             *dryRun,
	})

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	res, err := s.Run()
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! %d users, %d posts, %d comments, %d likes.", res.Users, res.Posts, res.Comments, res.Likes)
	log.Printf("📧 All test users have the password: %s", seed.DefaultPassword)
}
