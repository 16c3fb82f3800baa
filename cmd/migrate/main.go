// Command migrate runs schema operations for the backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"strings"

	"threads/internal/config"
	"threads/internal/database"
	"threads/internal/repository/docstore"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate/main.go <up|status>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}

	ctx := context.Background()
	cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0)))

	if cfg.DBDriver == config.DriverMongo {
		return runDocumentStore(ctx, cfg, cmd)
	}

	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	switch cmd {
	case "up":
		if err := database.ApplySchema(ctx, db); err != nil {
			return fmt.Errorf("schema apply failed: %w", err)
		}
		log.Println("schema applied")
	case "status":
		status, err := database.GetSchemaStatus(ctx, db)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		tables := make([]string, 0, len(status.Tables))
		for name := range status.Tables {
			tables = append(tables, name)
		}
		sort.Strings(tables)
		log.Printf("dialect=%s tables=%d", status.Dialect, len(tables))
		for _, name := range tables {
			log.Printf("%s present=%t", name, status.Tables[name])
		}
	default:
		return usage()
	}
	return nil
}

// runDocumentStore handles the MongoDB backend, whose only schema is its
// index set. Connecting creates the indexes.
func runDocumentStore(ctx context.Context, cfg *config.Config, cmd string) error {
	if cmd != "up" && cmd != "status" {
		return usage()
	}
	store := docstore.NewStore(cfg)
	defer func() { _ = store.Close(ctx) }()
	if err := store.EnsureConnected(ctx); err != nil {
		return fmt.Errorf("connect document store: %w", err)
	}
	log.Printf("document store ready db=%s", cfg.DBName)
	return nil
}
