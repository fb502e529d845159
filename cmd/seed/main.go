// Command main runs the database seeder for the Mutual Aid backend.
package main

import (
	"context"
	"flag"
	"log"

	"mutualaid/internal/config"
	"mutualaid/internal/database"
	"mutualaid/internal/middleware"
	"mutualaid/internal/seed"
)

func main() {
	demoUsers := flag.Int("users", 0, "Number of generated demo users to add")
	demoPosts := flag.Int("posts", 0, "Number of generated demo posts to add")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.SetupLogger(cfg.Env)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	err = seed.Seed(context.Background(), db, seed.Options{
		DemoUsers:  *demoUsers,
		DemoPosts:  *demoPosts,
		BcryptCost: cfg.BcryptCost,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding complete. Fixture members use the password: " + seed.FixturePassword)
}
