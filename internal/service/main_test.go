package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"threads/internal/cache"
	"threads/internal/models"
	"threads/internal/repository"
	"threads/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// stepClock returns a strictly increasing time on every call.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock { return &stepClock{now: baseTime} }

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	store       *repository.GormStore
	revalidator *testutil.RevalidatorStub
	threads     *ThreadService
	users       *UserService
	communities *CommunityService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.NewSQLiteStore(t)
	rv := &testutil.RevalidatorStub{}
	clock := newStepClock()

	f := &fixture{
		store:       store,
		revalidator: rv,
		threads:     NewThreadService(store, rv, nil),
		users:       NewUserService(store, rv),
		communities: NewCommunityService(store, rv),
	}
	f.threads.now = clock.Now
	f.users.now = clock.Now
	f.communities.now = clock.Now
	return f
}

// withRedis points the cache at a fresh miniredis and switches every service
// to direct eviction. Tests using it must not run in parallel.
func (f *fixture) withRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	f.threads.revalidator = nil
	f.users.revalidator = nil
	f.communities.revalidator = nil
	return mr
}

func (f *fixture) user(t *testing.T, externalID string) *models.User {
	t.Helper()
	return testutil.SeedUser(t, f.store, externalID, "Name "+externalID, baseTime)
}

func (f *fixture) post(t *testing.T, author *models.User, text string) *models.Thread {
	t.Helper()
	th, err := f.threads.CreateThread(context.Background(), CreateThreadInput{Text: text, AuthorID: author.ID, Path: "/"})
	require.NoError(t, err)
	return th
}

func (f *fixture) reply(t *testing.T, parent *models.Thread, author *models.User, text string) *models.Thread {
	t.Helper()
	c, err := f.threads.AddCommentToThread(context.Background(), AddCommentInput{
		ThreadID: parent.ID, Text: text, AuthorID: author.ID, Path: "/thread/" + parent.ID,
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) countThreads(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.store.DB().Model(&models.Thread{}).Count(&n).Error)
	return n
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// failingThreads makes AppendChild fail.
type failingThreads struct {
	repository.ThreadRepository
}

func (failingThreads) AppendChild(context.Context, string, string) error {
	return models.NewStoreError(errBoom)
}

type storeWithThreads struct {
	repository.Store
	threads func() repository.ThreadRepository
}

func (s storeWithThreads) Threads() repository.ThreadRepository { return s.threads() }
