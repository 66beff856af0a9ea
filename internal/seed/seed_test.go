package seed

import (
	"testing"

	"bizzy/internal/database"
	"bizzy/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

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

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestSeed_PopulatesEveryTable(t *testing.T) {
	db := newTestDB(t)

	res, err := Seed(db, Options{
		NumUsers:       6,
		PlacesPerUser:  3,
		ReviewsPerUser: 2,
		SkipBcrypt:     true,
		RandSeed:       42,
	})
	require.NoError(t, err)

	assert.Equal(t, 6, res.Users)
	assert.Equal(t, int64(6), count(t, db, &models.User{}))
	assert.Equal(t, int64(6), count(t, db, &models.Account{}))
	assert.Equal(t, int64(res.Places), count(t, db, &models.SavedPlace{}))
	assert.Equal(t, int64(12), count(t, db, &models.PlaceReview{}))
	assert.Positive(t, count(t, db, &models.Follow{}))
	assert.Positive(t, count(t, db, &models.ReviewLike{}))

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	for _, u := range users {
		assert.True(t, u.OnboardingCompleted)
		assert.NotEmpty(t, u.InterestList())
		assert.Regexp(t, `^[a-z0-9]+$`, u.Username)
	}

	var follows []models.Follow
	require.NoError(t, db.Find(&follows).Error)
	for _, f := range follows {
		assert.NotEqual(t, f.FollowerID, f.FollowingID)
	}
}

func TestSeed_CleanRemovesPreviousRun(t *testing.T) {
	db := newTestDB(t)

	_, err := Seed(db, Options{NumUsers: 3, PlacesPerUser: 1, ReviewsPerUser: 1, SkipBcrypt: true})
	require.NoError(t, err)
	_, err = Seed(db, Options{NumUsers: 2, ShouldClean: true, SkipBcrypt: true})
	require.NoError(t, err)

	assert.Equal(t, int64(2), count(t, db, &models.User{}))
	assert.Zero(t, count(t, db, &models.SavedPlace{}))
	assert.Zero(t, count(t, db, &models.PlaceReview{}))
}

func TestFactory_DemoPasswordVerifies(t *testing.T) {
	db := newTestDB(t)
	f, err := NewFactory(db, FactoryOptions{SkipBcrypt: true}, 7)
	require.NoError(t, err)

	u, err := f.CreateUser(func(u *models.User) { u.Username = "demo" })
	require.NoError(t, err)

	var account models.Account
	require.NoError(t, db.Where("user_id = ?", u.ID).First(&account).Error)
	require.NotNil(t, account.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*account.Password), []byte(DemoPassword)))
}

func TestFactory_DryRunWritesNothing(t *testing.T) {
	db := newTestDB(t)
	f, err := NewFactory(db, FactoryOptions{DryRun: true}, 1)
	require.NoError(t, err)

	u, err := f.CreateUser()
	require.NoError(t, err)
	require.NoError(t, f.CreateSavedPlaces([]*models.SavedPlace{f.BuildSavedPlace(u, []string{"p1"})}))
	_, err = f.CreateReview(u, "p1")
	require.NoError(t, err)

	assert.Zero(t, count(t, db, &models.User{}))
	assert.Zero(t, count(t, db, &models.PlaceReview{}))
}

func TestFactory_InterestsComeFromCatalog(t *testing.T) {
	f, err := NewFactory(nil, FactoryOptions{DryRun: true}, 3)
	require.NoError(t, err)

	for range 20 {
		picked := f.Interests()
		assert.NotEmpty(t, picked)
		assert.LessOrEqual(t, len(picked), 5)
		for _, id := range picked {
			assert.Contains(t, f.catalog, id)
		}
	}
}
