// Command main runs the database seeder for Bizzy.
package main

import (
	"flag"
	"log"

	"bizzy/internal/config"
	"bizzy/internal/database"
	"bizzy/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	placesPerUser := flag.Int("places", 5, "Saved places per user")
	reviewsPerUser := flag.Int("reviews", 3, "Reviews per user")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Hash the demo password once at minimum cost")
	randSeed := flag.Uint64("seed", 0, "Random seed for reproducible data (0 = time based)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d places/user, %d reviews/user, clean=%v\n",
		*numUsers, *placesPerUser, *reviewsPerUser, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	res, err := seed.Seed(db, seed.Options{
		NumUsers:       *numUsers,
		PlacesPerUser:  *placesPerUser,
		ReviewsPerUser: *reviewsPerUser,
		ShouldClean:    *shouldClean,
		SkipBcrypt:     *fast,
		RandSeed:       *randSeed,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! %d users, %d places, %d reviews.", res.Users, res.Places, res.Reviews)
	log.Printf("📧 All test users have the password: %s", seed.DemoPassword)
}
