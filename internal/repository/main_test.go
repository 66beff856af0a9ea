package repository

import (
	"context"
	"testing"
	"time"

	"bizzy/internal/database"
	"bizzy/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory SQLite database with the full schema. A
// single connection keeps every query on the same in-memory database.
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

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gormDB, mock
}

// seedUser inserts a user. Each call is one second newer than the last so
// created_at ordering is deterministic.
func seedUser(t *testing.T, db *gorm.DB, id, name, email string, interests *string) *models.User {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	stamp := time.Date(2024, 1, 1, 0, 0, int(count), 0, time.UTC)

	u := &models.User{
		ID:        id,
		Name:      name,
		Email:     email,
		Username:  id,
		Interests: interests,
		CreatedAt: stamp,
		UpdatedAt: stamp,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func strPtr(s string) *string { return &s }

func ctx() context.Context { return context.Background() }
