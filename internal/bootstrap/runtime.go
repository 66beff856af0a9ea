// Package bootstrap wires the runtime dependencies shared by the server and
// the command-line tools.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"bizzy/internal/cache"
	"bizzy/internal/config"
	"bizzy/internal/database"
	"bizzy/internal/middleware"
	"bizzy/internal/models"
	"bizzy/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ApplySchema runs migrations or AutoMigrate according to DB_SCHEMA_MODE.
	ApplySchema bool
	// SeedDemo fills an empty development database with demo data.
	SeedDemo bool
}

// demoSeed is the size of the automatic development seed.
var demoSeed = seed.Options{
	NumUsers:       20,
	PlacesPerUser:  4,
	ReviewsPerUser: 3,
	SkipBcrypt:     true,
}

// InitRuntime connects to the database and Redis, applying the schema and
// demo data as requested. A Redis outage yields a nil client.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: opts.ApplySchema})
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	rdb := cache.GetClient()

	if opts.SeedDemo {
		if err := seedIfEmpty(ctx, cfg, db); err != nil {
			return nil, nil, fmt.Errorf("seed demo data: %w", err)
		}
	}

	return db, rdb, nil
}

// seedIfEmpty seeds only development databases that have no users yet.
func seedIfEmpty(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil || cfg.Env != "development" {
		return nil
	}

	var users int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		return nil
	}

	res, err := seed.Seed(db.WithContext(ctx), demoSeed)
	if err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "development demo data seeded",
		slog.Int("users", res.Users),
		slog.Int("places", res.Places),
		slog.Int("reviews", res.Reviews),
		slog.String("password", seed.DemoPassword),
	)
	return nil
}
