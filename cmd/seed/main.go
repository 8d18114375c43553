// Command seed fills the configured database with demo users, groups, posts, comments and follows.
package main

import (
	"flag"
	"log"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of users to create")
	comments := flag.Int("comments", 2, "Comments per post")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	randSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	factory, err := seed.NewFactory(db, *randSeed)
	if err != nil {
		log.Fatalf("Failed to create factory: %v", err)
	}

	log.Printf("Target: %d users, %d posts each, clean=%v", *numUsers, seed.BulkPostCount, *shouldClean)
	if _, err := seed.NewSeeder(db, factory).Run(seed.Options{
		NumUsers:        *numUsers,
		CommentsPerPost: *comments,
		ShouldClean:     *shouldClean,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("All seeded users have the password: %s", seed.DemoPassword)
}
