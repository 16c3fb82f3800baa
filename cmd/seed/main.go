// Command main runs the database seeder.
package main

import (
	"context"
	"flag"
	"log"

	"threads/internal/bootstrap"
	"threads/internal/config"
	"threads/internal/seed"
)

func main() {
	// Parse command line flags
	numUsers := flag.Int("users", 20, "Number of users to create")
	numCommunities := flag.Int("communities", 3, "Number of communities to create")
	numThreads := flag.Int("threads", 50, "Number of top-level threads to create")
	maxReplies := flag.Int("max-replies", 5, "Maximum comments under each thread")
	memberPercent := flag.Int("member-percent", 30, "Chance (0-100) that a user joins each community")
	shouldClean := flag.Bool("clean", false, "Clean database before seeding")
	randSeed := flag.Int64("seed", 0, "Random seed (0 picks a random one)")
	preset := flag.String("preset", "", "Apply a named preset (tiny, demo, busy); other count flags are ignored")
	flag.Parse()

	log.Println("Database Seeder")
	log.Println("===============")

	opts := seed.Options{
		Users:         *numUsers,
		Communities:   *numCommunities,
		Threads:       *numThreads,
		MaxReplies:    *maxReplies,
		MemberPercent: *memberPercent,
		Clean:         *shouldClean,
		Seed:          *randSeed,
	}
	if *preset != "" {
		p, err := seed.Preset(*preset)
		if err != nil {
			log.Fatalf("Preset failed: %v", err)
		}
		p.Clean = p.Clean || *shouldClean
		opts = p
		log.Printf("Applying preset: %s", *preset)
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.DBAutoMigrate = true

	ctx := context.Background()
	store, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{Eager: true, SkipRedis: true})
	if err != nil {
		log.Fatalf("Failed to connect to store: %v", err)
	}
	defer func() { _ = store.Close(ctx) }()

	result, err := seed.NewSeeder(store).Run(ctx, opts)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d communities (%d extra memberships), %d threads, %d comments",
		result.Users, result.Communities, result.Memberships, result.Threads, result.Comments)
}
