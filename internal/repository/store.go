// Package repository defines the data access contracts and their relational
// implementation.
package repository

import (
	"context"

	"threads/internal/models"
)

// ListOptions filters and pages directory listings.
type ListOptions struct {
	// Search is matched case-insensitively as a literal substring of
	// username or name. Empty matches everything.
	Search string
	// ExcludeExternalID drops the record with this external id.
	ExcludeExternalID string
	SortDesc          bool
	Limit             int
	Offset            int
}

// ThreadRepository persists threads. Lists keep their stored order; lookups
// by id set return found records in no particular order.
type ThreadRepository interface {
	Create(ctx context.Context, thread *models.Thread) error
	GetByID(ctx context.Context, id string) (*models.Thread, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.Thread, error)
	ListByParents(ctx context.Context, parentIDs []string) ([]*models.Thread, error)
	ListByAuthor(ctx context.Context, authorID string) ([]*models.Thread, error)
	ListByCommunity(ctx context.Context, communityID string) ([]*models.Thread, error)
	ListTopLevel(ctx context.Context, limit, offset int) ([]*models.Thread, error)
	CountTopLevel(ctx context.Context) (int64, error)
	ListRepliesExcludingAuthor(ctx context.Context, ids []string, authorID string) ([]*models.Thread, error)
	AppendChild(ctx context.Context, parentID, childID string) error
	PullChildren(ctx context.Context, parentID string, childIDs []string) error
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
	Scan(ctx context.Context, afterID string, limit int) ([]*models.Thread, error)
}

// UserRepository persists users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	Upsert(ctx context.Context, user *models.User) (*models.User, error)
	List(ctx context.Context, opts ListOptions) ([]*models.User, error)
	Count(ctx context.Context, opts ListOptions) (int64, error)
	PushThread(ctx context.Context, userID, threadID string) error
	PullThreads(ctx context.Context, userIDs, threadIDs []string) error
	AddCommunity(ctx context.Context, userID, communityID string) error
	RemoveCommunity(ctx context.Context, userIDs []string, communityID string) error
	Scan(ctx context.Context, afterID string, limit int) ([]*models.User, error)
}

// CommunityRepository persists communities.
type CommunityRepository interface {
	Create(ctx context.Context, community *models.Community) error
	GetByID(ctx context.Context, id string) (*models.Community, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.Community, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.Community, error)
	Update(ctx context.Context, community *models.Community) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, opts ListOptions) ([]*models.Community, error)
	Count(ctx context.Context, opts ListOptions) (int64, error)
	PushThread(ctx context.Context, communityID, threadID string) error
	PullThreads(ctx context.Context, communityIDs, threadIDs []string) error
	AddMember(ctx context.Context, communityID, userID string) error
	RemoveMember(ctx context.Context, communityID, userID string) error
	Scan(ctx context.Context, afterID string, limit int) ([]*models.Community, error)
}

// Store is an injectable handle on one backing store. EnsureConnected is
// idempotent; when no connection string is configured it returns nil and
// Connected stays false. Repository accessors are only valid while connected.
type Store interface {
	EnsureConnected(ctx context.Context) error
	Connected() bool
	Threads() ThreadRepository
	Users() UserRepository
	Communities() CommunityRepository
	Close(ctx context.Context) error
}
