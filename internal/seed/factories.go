// Package seed creates demo data for local development and tests.
package seed

import (
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"bizzy/internal/interests"
	"bizzy/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password123"

// FactoryOptions tune the generated data.
type FactoryOptions struct {
	// SkipBcrypt stores a cheap hash computed once instead of hashing per user.
	SkipBcrypt bool
	// MaxDays bounds how far back created_at timestamps are spread.
	MaxDays int
	// DryRun builds entities without writing them.
	DryRun bool
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db      *gorm.DB
	opts    FactoryOptions
	faker   *gofakeit.Faker
	rng     *rand.Rand
	hash    string
	catalog []string
}

// NewFactory creates a Factory bound to db. A non-zero seed makes the
// generated data reproducible.
func NewFactory(db *gorm.DB, opts FactoryOptions, seed uint64) (*Factory, error) {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	all, err := interests.All()
	if err != nil {
		return nil, err
	}
	catalog := make([]string, len(all))
	for i, in := range all {
		catalog[i] = in.ID
	}

	f := &Factory{
		db:      db,
		opts:    opts,
		faker:   gofakeit.New(int64(seed)),
		rng:     rand.New(rand.NewPCG(seed, seed>>1)),
		catalog: catalog,
	}
	if opts.SkipBcrypt {
		hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.MinCost)
		if err != nil {
			return nil, err
		}
		f.hash = string(hash)
	}
	return f, nil
}

func (f *Factory) passwordHash() (string, error) {
	if f.hash != "" {
		return f.hash, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.IntN(maxDays))*24*time.Hour +
		time.Duration(f.rng.IntN(24))*time.Hour +
		time.Duration(f.rng.IntN(60))*time.Minute
	return time.Now().Add(-back)
}

// Interests picks a random non-empty subset of the catalog.
func (f *Factory) Interests() []string {
	picked := make([]string, len(f.catalog))
	copy(picked, f.catalog)
	f.rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	return picked[:1+f.rng.IntN(min(5, len(picked)))]
}

// CreateUser persists a user with a credential account and onboarding
// completed. The username is made unique with a numeric suffix.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	first, last := f.faker.FirstName(), f.faker.LastName()
	encoded, err := models.EncodeInterests(f.Interests())
	if err != nil {
		return nil, err
	}
	image := fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID())
	created := f.pastTime()

	user := &models.User{
		ID:                  uuid.NewString(),
		Name:                first + " " + last,
		Email:               fmt.Sprintf("%s.%s.%d@example.com", handle(first), handle(last), f.rng.IntN(100000)),
		EmailVerified:       true,
		Image:               &image,
		OnboardingCompleted: true,
		Interests:           &encoded,
		Username:            fmt.Sprintf("%.16s%d", handle(first+last), f.rng.IntN(10000)),
		CreatedAt:           created,
		UpdatedAt:           created,
	}
	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		log.Printf("[dry-run] CreateUser: %s (%s)", user.Username, user.Email)
		return user, nil
	}

	hash, err := f.passwordHash()
	if err != nil {
		return nil, err
	}
	account := &models.Account{
		ID:         uuid.NewString(),
		AccountID:  user.ID,
		ProviderID: models.ProviderCredential,
		UserID:     user.ID,
		Password:   &hash,
	}
	err = f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(account).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// handle lowercases s and drops everything but ASCII letters and digits.
func handle(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}

// BuildSavedPlace returns an unsaved bookmark for user. Google place IDs
// come from pool so users overlap on popular places.
func (f *Factory) BuildSavedPlace(user *models.User, pool []string) *models.SavedPlace {
	addr := f.faker.Address()
	place := &models.SavedPlace{
		UserID:           user.ID,
		Name:             f.faker.Company(),
		FormattedAddress: fmt.Sprintf("%s, %s, %s %s", addr.Street, addr.City, addr.State, addr.Zip),
		Latitude:         39.9526 + (f.rng.Float64()-0.5)/10,
		Longitude:        -75.1652 + (f.rng.Float64()-0.5)/10,
		CreatedAt:        f.pastTime(),
	}
	if len(pool) > 0 {
		id := pool[f.rng.IntN(len(pool))]
		place.PlaceID = &id
	}
	return place
}

// CreateSavedPlaces persists places in one batch.
func (f *Factory) CreateSavedPlaces(places []*models.SavedPlace) error {
	if len(places) == 0 {
		return nil
	}
	if f.opts.DryRun {
		log.Printf("[dry-run] CreateSavedPlaces: %d places (no DB write)", len(places))
		return nil
	}
	return f.db.Create(&places).Error
}

// CreateReview persists or replaces user's review of placeID.
func (f *Factory) CreateReview(user *models.User, placeID string) (*models.PlaceReview, error) {
	created := f.pastTime()
	review := &models.PlaceReview{
		UserID:    user.ID,
		PlaceID:   placeID,
		Rating:    models.MinRating + f.rng.IntN(models.MaxRating),
		Review:    f.faker.Sentence(12),
		CreatedAt: created,
		UpdatedAt: created,
	}
	if f.opts.DryRun {
		log.Printf("[dry-run] CreateReview: user=%s place=%s rating=%d", user.Username, placeID, review.Rating)
		return review, nil
	}
	err := f.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "place_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "review", "updated_at"}),
	}).Create(review).Error
	if err != nil {
		return nil, err
	}
	return review, nil
}

// CreateFollow persists follower -> following. Existing edges are kept.
func (f *Factory) CreateFollow(follower, following *models.User) error {
	if follower.ID == following.ID || f.opts.DryRun {
		return nil
	}
	edge := &models.Follow{
		FollowerID:  follower.ID,
		FollowingID: following.ID,
		CreatedAt:   f.pastTime(),
	}
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).Create(edge).Error
}

// CreateLike persists a like from user on review. Existing likes are kept.
func (f *Factory) CreateLike(user *models.User, review *models.PlaceReview) error {
	if f.opts.DryRun {
		return nil
	}
	like := &models.ReviewLike{UserID: user.ID, ReviewID: review.ID}
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).Create(like).Error
}
