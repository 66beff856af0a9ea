package service

import (
	"testing"
	"time"

	"bizzy/internal/cache"
	"bizzy/internal/database"
	"bizzy/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret-with-enough-length-0123456789"

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })
	return mr
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

// newAuthFixture wires AuthService to SQLite and miniredis.
func newAuthFixture(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	setupMiniredis(t)
	db := newTestDB(t)
	svc := NewAuthService(
		repository.NewUserRepository(db),
		repository.NewAccountRepository(db),
		repository.NewSessionRepository(db),
		AuthConfig{JWTSecret: testSecret, SessionTTL: 24 * time.Hour},
	)
	return svc, db
}
