package seed

import (
	"fmt"
	"log"
	"slices"

	"bizzy/internal/database"
	"bizzy/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Options configure a seeding run.
type Options struct {
	NumUsers       int
	PlacesPerUser  int
	ReviewsPerUser int
	ShouldClean    bool
	SkipBcrypt     bool
	// RandSeed fixes the generator. Zero means time-based.
	RandSeed uint64
}

// Result counts what a run created.
type Result struct {
	Users   int
	Places  int
	Reviews int
	Follows int
	Likes   int
}

// placePoolSize is how many distinct Google place IDs the run draws from.
const placePoolSize = 25

// Seed populates db with users, saved places, reviews, follows and likes.
func Seed(db *gorm.DB, opts Options) (*Result, error) {
	log.Printf("🌱 Seeding %d users, %d places and %d reviews per user...",
		opts.NumUsers, opts.PlacesPerUser, opts.ReviewsPerUser)

	if opts.ShouldClean {
		if err := ClearAll(db); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}

	f, err := NewFactory(db, FactoryOptions{SkipBcrypt: opts.SkipBcrypt}, opts.RandSeed)
	if err != nil {
		return nil, err
	}
	res := &Result{}

	pool := make([]string, placePoolSize)
	for i := range pool {
		pool[i] = "seed_" + uuid.NewString()[:8]
	}

	users := make([]*models.User, 0, opts.NumUsers)
	for range opts.NumUsers {
		u, err := f.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	res.Users = len(users)
	log.Printf("✓ %d users created", res.Users)

	for _, u := range users {
		batch := make([]*models.SavedPlace, 0, opts.PlacesPerUser)
		seen := map[string]bool{}
		for range opts.PlacesPerUser {
			p := f.BuildSavedPlace(u, pool)
			if p.PlaceID != nil && seen[*p.PlaceID] {
				continue
			}
			if p.PlaceID != nil {
				seen[*p.PlaceID] = true
			}
			batch = append(batch, p)
		}
		if err := f.CreateSavedPlaces(batch); err != nil {
			return nil, fmt.Errorf("create places: %w", err)
		}
		res.Places += len(batch)
	}
	log.Printf("✓ %d saved places created", res.Places)

	var reviews []*models.PlaceReview
	for _, u := range users {
		picked := slices.Clone(pool)
		f.rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
		for _, placeID := range picked[:max(0, min(opts.ReviewsPerUser, len(picked)))] {
			r, err := f.CreateReview(u, placeID)
			if err != nil {
				return nil, fmt.Errorf("create review: %w", err)
			}
			reviews = append(reviews, r)
		}
	}
	res.Reviews = len(reviews)
	log.Printf("✓ %d reviews created", res.Reviews)

	// Each user follows a handful of others and likes a few reviews.
	for _, u := range users {
		for range min(5, len(users)-1) {
			other := users[f.rng.IntN(len(users))]
			if other.ID == u.ID {
				continue
			}
			if err := f.CreateFollow(u, other); err != nil {
				return nil, fmt.Errorf("create follow: %w", err)
			}
			res.Follows++
		}
		for range min(3, len(reviews)) {
			r := reviews[f.rng.IntN(len(reviews))]
			if err := f.CreateLike(u, r); err != nil {
				return nil, fmt.Errorf("create like: %w", err)
			}
			res.Likes++
		}
	}
	log.Printf("✓ %d follows and %d likes attempted", res.Follows, res.Likes)

	log.Println("🎉 Database seeding completed successfully!")
	return res, nil
}

// ClearAll deletes every row of the schema-managed tables, children first.
func ClearAll(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	if db.Dialector.Name() == "postgres" {
		return db.Exec(`TRUNCATE TABLE review_likes, place_reviews, saved_places, follows, accounts, sessions, users CASCADE`).Error
	}

	tables := database.PersistentModels()
	slices.Reverse(tables)
	return db.Transaction(func(tx *gorm.DB) error {
		for _, m := range tables {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
