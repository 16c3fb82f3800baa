// Package docstore implements the repository contracts on MongoDB.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"threads/internal/config"
	"threads/internal/middleware"
	"threads/internal/models"
	"threads/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	threadsCollection     = "threads"
	usersCollection       = "users"
	communitiesCollection = "communities"
)

// Store is the MongoDB repository.Store. Reference lists are BSON arrays
// changed with $addToSet and $pull, so each list update is atomic per document.
type Store struct {
	uri     string
	dbName  string
	maxPool uint64
	minPool uint64

	mu     sync.Mutex
	client *mongo.Client
	db     *mongo.Database
}

var _ repository.Store = (*Store)(nil)

// NewStore returns a Store for cfg.DatabaseURL and cfg.DBName. Nothing is
// dialed until EnsureConnected.
func NewStore(cfg *config.Config) *Store {
	s := &Store{uri: cfg.DatabaseURL, dbName: cfg.DBName}
	if cfg.DBMaxOpenConns > 0 {
		s.maxPool = uint64(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		s.minPool = uint64(cfg.DBMaxIdleConns)
	}
	if s.dbName == "" {
		s.dbName = "threads"
	}
	return s
}

func (s *Store) EnsureConnected(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return nil
	}
	if s.uri == "" {
		middleware.Logger.WarnContext(ctx, "DATABASE_URL not set; document store stays disconnected")
		return nil
	}

	opts := options.Client().ApplyURI(s.uri)
	if s.maxPool > 0 {
		opts.SetMaxPoolSize(s.maxPool)
	}
	if s.minPool > 0 {
		opts.SetMinPoolSize(s.minPool)
	}
	client, err := mongo.Connect(opts)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(s.dbName)
	if err := ensureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return err
	}

	s.client = client
	s.db = db
	middleware.Logger.InfoContext(ctx, "MongoDB connected successfully")
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	collections := map[string][]mongo.IndexModel{
		threadsCollection: {
			{Keys: bson.D{{Key: "parent_id", Value: 1}}},
			{Keys: bson.D{{Key: "author_id", Value: 1}}},
			{Keys: bson.D{{Key: "community_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		},
		usersCollection: {
			{Keys: bson.D{{Key: "external_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		communitiesCollection: {
			{Keys: bson.D{{Key: "external_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
	}

	for name, indexes := range collections {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("mongo: failed to create indexes for %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db != nil
}

func (s *Store) database() *mongo.Database {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}

func (s *Store) Threads() repository.ThreadRepository {
	return &threadRepository{coll: s.database().Collection(threadsCollection)}
}

func (s *Store) Users() repository.UserRepository {
	return &userRepository{coll: s.database().Collection(usersCollection)}
}

func (s *Store) Communities() repository.CommunityRepository {
	return &communityRepository{coll: s.database().Collection(communitiesCollection)}
}

// Drop removes every collection. Used by tests against a scratch database.
func (s *Store) Drop(ctx context.Context) error {
	db := s.database()
	if db == nil {
		return nil
	}
	return db.Drop(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return nil
	}
	err := s.client.Disconnect(ctx)
	s.client = nil
	s.db = nil
	return err
}

func translateError(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NewNotFoundError(resource, id)
	}
	if mongo.IsDuplicateKeyError(err) {
		return &models.AppError{Code: models.CodeConflict, Message: resource + " already exists", Err: err}
	}
	return models.NewStoreError(err)
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...options.Lister[options.FindOptions]) ([]*T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var out []*T
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
