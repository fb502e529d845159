// Command migrate runs schema operations for the backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"mutualaid/internal/config"
	"mutualaid/internal/database"
	"mutualaid/internal/middleware"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return errors.New("usage: go run ./cmd/migrate <auto|status|reset> [-force]")
}

func run() error {
	force := flag.Bool("force", false, "required by reset")
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	middleware.SetupLogger(cfg.Env)

	db, err := database.Open(postgres.Open(database.DSN(cfg)))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	ctx := context.Background()
	switch cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0))); cmd {
	case "auto":
		if err := database.Migrate(db.WithContext(ctx)); err != nil {
			return err
		}
		log.Println("automigrations applied")
	case "status":
		return status(ctx, db)
	case "reset":
		if cfg.IsProduction() {
			return errors.New("reset is disabled in production")
		}
		if !*force {
			return errors.New("reset drops every table; rerun with -force")
		}
		if err := reset(ctx, db); err != nil {
			return err
		}
		log.Println("schema dropped and recreated")
	default:
		return usage()
	}

	return nil
}

// status reports which model tables exist and the unique constraints that
// back the registration and relation-pair guarantees.
func status(ctx context.Context, db *gorm.DB) error {
	migrator := db.WithContext(ctx).Migrator()
	pending := 0
	for _, m := range database.PersistentModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return fmt.Errorf("parse model %T: %w", m, err)
		}
		state := "ok"
		if !migrator.HasTable(m) {
			state = "missing"
			pending++
		}
		log.Printf("table %-20s %s", stmt.Schema.Table, state)
	}

	var constraints []struct {
		Relname string `gorm:"column:relname"`
		Conname string `gorm:"column:conname"`
		Def     string `gorm:"column:def"`
	}
	err := db.WithContext(ctx).Raw(`SELECT r.relname, c.conname, pg_get_constraintdef(c.oid) AS def
		FROM pg_constraint c
		JOIN pg_class r ON c.conrelid = r.oid
		JOIN pg_namespace n ON n.oid = r.relnamespace
		WHERE n.nspname = 'public' AND c.contype = 'u'
		ORDER BY r.relname, c.conname`).Scan(&constraints).Error
	if err != nil {
		return fmt.Errorf("list constraints: %w", err)
	}
	for _, c := range constraints {
		log.Printf("unique %s on %s: %s", c.Conname, c.Relname, c.Def)
	}
	log.Printf("tables=%d missing=%d unique_constraints=%d", len(database.PersistentModels()), pending, len(constraints))
	return nil
}

func reset(ctx context.Context, db *gorm.DB) error {
	tx := db.WithContext(ctx)
	if err := tx.Exec("DROP SCHEMA public CASCADE; CREATE SCHEMA public;").Error; err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	if err := tx.Exec("GRANT ALL ON SCHEMA public TO public;").Error; err != nil {
		return fmt.Errorf("grant schema permissions: %w", err)
	}
	return database.Migrate(tx)
}
