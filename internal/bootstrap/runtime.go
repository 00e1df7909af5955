// Package bootstrap connects the runtime dependencies shared by the command binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log"
	"strings"

	"bulletin/internal/cache"
	"bulletin/internal/config"
	"bulletin/internal/database"
	"bulletin/internal/seed"
	"bulletin/internal/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemoData fills an empty development database with demo content.
	SeedDemoData bool
	// SkipStorage leaves Runtime.Store nil for tools that never touch attachments.
	SkipStorage bool
}

// Runtime holds the connected dependencies.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
	Store storage.Store
}

// Close releases the Redis client and the database pool.
func (r *Runtime) Close() {
	if err := cache.Close(); err != nil {
		log.Printf("error closing redis: %v", err)
	}
	if err := database.Close(r.DB); err != nil {
		log.Printf("error closing sql DB: %v", err)
	}
}

// InitRuntime connects to the DB, Redis and attachment storage and optionally
// seeds demo content.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	rt := &Runtime{DB: db, Redis: cache.GetClient()}

	if !opts.SkipStorage {
		store, err := storage.New(ctx, cfg)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("attachment storage init failed: %w", err)
		}
		rt.Store = store
	}

	if opts.SeedDemoData {
		if err := seedIfEmpty(cfg, db); err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return rt, nil
}

// seedIfEmpty seeds only development databases without any users.
func seedIfEmpty(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil || !strings.EqualFold(cfg.Env, "development") {
		return nil
	}

	var users int64
	if err := db.Table("users").Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		return nil
	}

	_, err := seed.NewSeeder(db, seed.Options{
		NumUsers:           10,
		NumPosts:           30,
		MaxCommentsPerPost: 4,
		MaxLikesPerPost:    6,
		Boards:             cfg.BoardList(),
	}).Run()
	if err != nil {
		return err
	}
	log.Printf("development demo data seeded; every user has the password %q", seed.DefaultPassword)
	return nil
}
