// Package main provides admin management utilities for the Mutual Aid backend.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"mutualaid/internal/cache"
	"mutualaid/internal/config"
	"mutualaid/internal/database"
	"mutualaid/internal/models"
	"mutualaid/internal/repository"

	"gorm.io/gorm"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <user_id|email>   - Promote user to admin")
	fmt.Println("  go run ./cmd/admin demote <user_id|email>    - Demote user from admin")
	fmt.Println("  go run ./cmd/admin list-admins               - List all admins")
}

// Operators use this to grant the first admin; after that admins promote
// each other over the API.
func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	users := repository.NewUserRepository(db)
	// Running servers cache resolved callers; drop the entry so a role
	// change applies on the next request.
	identities := cache.New(cache.InitRedis(cfg.RedisURL))
	ctx := context.Background()

	switch command := os.Args[1]; command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		if err := setAdmin(ctx, users, identities, os.Args[2], command == "promote"); err != nil {
			log.Fatalf("%s failed: %v", command, err)
		}
	case "list-admins":
		if err := listAdmins(ctx, db); err != nil {
			log.Fatalf("list-admins failed: %v", err)
		}
	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}

func lookup(ctx context.Context, users repository.UserRepository, ref string) (*models.User, error) {
	if strings.Contains(ref, "@") {
		return users.GetByEmail(ctx, ref)
	}
	id, err := strconv.ParseUint(ref, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is neither a user id nor an email", ref)
	}
	return users.GetByID(ctx, uint(id))
}

func setAdmin(ctx context.Context, users repository.UserRepository, identities *cache.Cache, ref string, isAdmin bool) error {
	user, err := lookup(ctx, users, ref)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return fmt.Errorf("user %s not found", ref)
		}
		return err
	}
	if user == nil {
		return fmt.Errorf("user %s not found", ref)
	}
	if user.IsAdmin == isAdmin {
		fmt.Printf("User %s (ID: %d) already has admin=%v\n", user.Email, user.ID, isAdmin)
		return nil
	}
	if err := users.SetAdmin(ctx, user.ID, isAdmin); err != nil {
		return err
	}
	identities.InvalidateUser(ctx, user.ID)
	fmt.Printf("User %s (ID: %d) admin=%v\n", user.Email, user.ID, isAdmin)
	return nil
}

func listAdmins(ctx context.Context, db *gorm.DB) error {
	var admins []models.User
	if err := db.WithContext(ctx).Where("is_admin = ?", true).Order("id").Find(&admins).Error; err != nil {
		return err
	}
	if len(admins) == 0 {
		fmt.Println("No admins found")
		return nil
	}
	for _, a := range admins {
		fmt.Printf("  ID: %d | %s | %s\n", a.ID, a.Username, a.Email)
	}
	return nil
}
