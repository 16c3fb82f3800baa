package repository

import (
	"context"

	"threads/internal/database"

	"gorm.io/gorm"
)

// GormStore is the relational Store, backed by PostgreSQL or SQLite.
type GormStore struct {
	connector *database.Connector
}

// NewGormStore returns a Store that connects through connector on first use.
func NewGormStore(connector *database.Connector) *GormStore {
	return &GormStore{connector: connector}
}

// NewGormStoreFromDB wraps an open handle; the store is connected immediately.
func NewGormStoreFromDB(db *gorm.DB) *GormStore {
	return &GormStore{connector: database.NewConnectorFromDB(db)}
}

func (s *GormStore) EnsureConnected(ctx context.Context) error {
	_, err := s.connector.EnsureConnected(ctx)
	return err
}

func (s *GormStore) Connected() bool {
	return s.connector.DB() != nil
}

func (s *GormStore) Threads() ThreadRepository {
	return NewThreadRepository(s.connector.DB())
}

func (s *GormStore) Users() UserRepository {
	return NewUserRepository(s.connector.DB())
}

func (s *GormStore) Communities() CommunityRepository {
	return NewCommunityRepository(s.connector.DB())
}

// DB exposes the underlying handle for schema tooling.
func (s *GormStore) DB() *gorm.DB {
	return s.connector.DB()
}

func (s *GormStore) Close(_ context.Context) error {
	return s.connector.Close()
}
