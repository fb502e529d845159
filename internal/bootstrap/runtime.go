// Package bootstrap wires the process-level runtime: database, Redis and
// optional startup seeding.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mutualaid/internal/cache"
	"mutualaid/internal/config"
	"mutualaid/internal/database"
	"mutualaid/internal/middleware"
	"mutualaid/internal/models"
	"mutualaid/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	Seed bool
}

// InitRuntime connects to DB and Redis and optionally runs fixture seeding.
// The Redis client is nil when Redis is not configured or unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := Prepare(ctx, cfg, db, opts); err != nil {
		return nil, nil, err
	}

	return db, cache.InitRedis(cfg.RedisURL), nil
}

// Prepare runs the startup steps that only need a migrated database.
func Prepare(ctx context.Context, cfg *config.Config, db *gorm.DB, opts Options) error {
	if opts.Seed {
		if err := seed.Seed(ctx, db, seed.Options{BcryptCost: cfg.BcryptCost}); err != nil {
			return fmt.Errorf("failed to seed fixtures: %w", err)
		}
	}

	if err := ensureBootstrapAdmin(ctx, cfg, db); err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}
	return nil
}

// ensureBootstrapAdmin promotes the member named by BOOTSTRAP_ADMIN_EMAIL.
// Without it a fresh install has no one who may promote the first admin.
func ensureBootstrapAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(cfg.BootstrapAdminEmail))
	if email == "" {
		return nil
	}

	res := db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(email) = ?", email).
		Update("is_admin", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// The member may not have registered yet; promote on a later start.
		middleware.Logger.Warn("bootstrap admin not registered", slog.String("email", email))
		return nil
	}

	middleware.Logger.Info("bootstrap admin ensured", slog.String("email", email))
	return nil
}
