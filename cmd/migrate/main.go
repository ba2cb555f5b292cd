// Command migrate runs schema operations for the blog database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"unnest/internal/config"
	"unnest/internal/database"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|down|status|version>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dialector, err := database.Dialector(cfg)
	if err != nil {
		return err
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	ctx := context.Background()
	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
		log.Println("migrations applied")
	case "down":
		if err := database.Rollback(ctx, db, cfg.DBDriver); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		log.Println("rolled back one migration")
	case "status":
		if err := database.Status(ctx, db, cfg.DBDriver); err != nil {
			return fmt.Errorf("status failed: %w", err)
		}
	case "version":
		v, err := database.Version(ctx, db, cfg.DBDriver)
		if err != nil {
			return fmt.Errorf("version failed: %w", err)
		}
		log.Printf("current schema version: %d", v)
	default:
		return usage()
	}
	return nil
}
