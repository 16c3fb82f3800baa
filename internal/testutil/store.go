// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"threads/internal/config"
	"threads/internal/database"
	"threads/internal/models"
	"threads/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteStore returns a connected store on a private in-memory database
// with the schema applied. The database is closed when t finishes.
func NewSQLiteStore(t *testing.T) *repository.GormStore {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.ApplySchema(context.Background(), db))
	return repository.NewGormStoreFromDB(db)
}

// NewUnconfiguredStore returns a store with no connection string. It never
// connects.
func NewUnconfiguredStore() *repository.GormStore {
	return repository.NewGormStore(database.NewConnector(&config.Config{DBDriver: config.DriverSQLite}))
}

// SeedUser inserts an onboarded user whose username is derived from externalID.
func SeedUser(t *testing.T, store repository.Store, externalID, name string, createdAt time.Time) *models.User {
	t.Helper()
	user, err := store.Users().Upsert(context.Background(), &models.User{
		ID:         uuid.NewString(),
		ExternalID: externalID,
		Username:   externalID,
		Name:       name,
		Onboarded:  true,
		CreatedAt:  createdAt,
	})
	require.NoError(t, err)
	return user
}

// SeedCommunity inserts a community created by creator, who is its only member.
func SeedCommunity(t *testing.T, store repository.Store, externalID, name string, creator *models.User) *models.Community {
	t.Helper()
	ctx := context.Background()
	community := &models.Community{
		ID:         uuid.NewString(),
		ExternalID: externalID,
		Username:   externalID,
		Name:       name,
		CreatedBy:  creator.ID,
		Members:    []string{creator.ID},
	}
	require.NoError(t, store.Communities().Create(ctx, community))
	require.NoError(t, store.Users().AddCommunity(ctx, creator.ID, community.ID))
	return community
}

// RevalidationCall is one recorded Revalidate invocation.
type RevalidationCall struct {
	Path string
	Keys []string
}

// RevalidatorStub records revalidation signals.
type RevalidatorStub struct {
	mu    sync.Mutex
	calls []RevalidationCall
}

func (r *RevalidatorStub) Revalidate(_ context.Context, path string, keys ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, RevalidationCall{Path: path, Keys: append([]string(nil), keys...)})
}

// Calls returns a copy of the recorded calls.
func (r *RevalidatorStub) Calls() []RevalidationCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RevalidationCall(nil), r.calls...)
}

// Paths returns the non-empty paths that were published.
func (r *RevalidatorStub) Paths() []string {
	var out []string
	for _, c := range r.Calls() {
		if c.Path != "" {
			out = append(out, c.Path)
		}
	}
	return out
}
