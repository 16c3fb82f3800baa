// Command reconcile runs one consistency pass over the store and prints what
// it repaired.
package main

import (
	"context"
	"flag"
	"log"
	"sort"

	"threads/internal/bootstrap"
	"threads/internal/config"
	"threads/internal/featureflags"
	"threads/internal/notifications"
	"threads/internal/reconcile"
	"threads/internal/service"
)

func main() {
	batchSize := flag.Int("batch", 0, "Records per scan batch (default RECONCILE_BATCH_SIZE)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *batchSize > 0 {
		cfg.ReconcileBatchSize = *batchSize
	}

	ctx := context.Background()
	store, rdb, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{Eager: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer func() { _ = store.Close(ctx) }()

	var revalidator service.Revalidator
	if rdb != nil {
		revalidator = notifications.NewNotifier(rdb)
	} else {
		log.Println("Redis unavailable; cached views will expire on their own")
	}
	threads := service.NewThreadService(store, revalidator, featureflags.NewManager(cfg.FeatureFlags))

	report, err := reconcile.New(store, threads, cfg.ReconcileBatchSize).Run(ctx)
	if err != nil {
		log.Fatalf("Reconcile failed: %v", err)
	}

	log.Printf("Scanned %d threads, %d users, %d communities in %s",
		report.ThreadsScanned, report.UsersScanned, report.CommunitiesScanned, report.Duration)
	kinds := make([]string, 0, len(report.Repairs))
	for kind := range report.Repairs {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		log.Printf("  %-28s %d", kind, report.Repairs[kind])
	}
	log.Printf("Total repairs: %d, orphaned comments deleted: %d", report.Total(), report.OrphansDeleted)
}
