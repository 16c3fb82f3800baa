package repository

import (
	"context"
	"testing"
	"time"

	"threads/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommunityRepository_CRUD(t *testing.T) {
	db := setupSQLite(t)
	repo := NewCommunityRepository(db)
	ctx := context.Background()

	c := &models.Community{ID: "c1", ExternalID: "org_1", Username: "gophers", Name: "Gophers", CreatedBy: "u1", Members: []string{"u1"}, CreatedAt: baseTime}
	require.NoError(t, repo.Create(ctx, c))

	dup := &models.Community{ID: "c2", ExternalID: "org_2", Username: "gophers", Name: "Other"}
	err := repo.Create(ctx, dup)
	require.Error(t, err)
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))

	c.Name = "Go Gophers"
	c.Image = "https://img/gopher.png"
	require.NoError(t, repo.Update(ctx, c))

	got, err := repo.GetByExternalID(ctx, "org_1")
	require.NoError(t, err)
	assert.Equal(t, "Go Gophers", got.Name)
	assert.Equal(t, []string{"u1"}, got.Members)

	err = repo.Update(ctx, &models.Community{ID: "nope", ExternalID: "org_x"})
	assert.True(t, models.IsNotFound(err))

	require.NoError(t, repo.Delete(ctx, "c1"))
	_, err = repo.GetByID(ctx, "c1")
	assert.True(t, models.IsNotFound(err))
}

func TestCommunityRepository_ReferenceLists(t *testing.T) {
	db := setupSQLite(t)
	repo := NewCommunityRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Community{ID: "c1", ExternalID: "org_1", Username: "gophers", Name: "Gophers"}))

	require.NoError(t, repo.AddMember(ctx, "c1", "u1"))
	require.NoError(t, repo.AddMember(ctx, "c1", "u2"))
	require.NoError(t, repo.AddMember(ctx, "c1", "u1"))
	require.NoError(t, repo.RemoveMember(ctx, "c1", "u1"))
	require.NoError(t, repo.PushThread(ctx, "c1", "t1"))
	require.NoError(t, repo.PushThread(ctx, "c1", "t2"))
	require.NoError(t, repo.PullThreads(ctx, []string{"c1"}, []string{"t1"}))

	got, err := repo.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, got.Members)
	assert.Equal(t, []string{"t2"}, got.Threads)
}

func TestCommunityRepository_Directory(t *testing.T) {
	db := setupSQLite(t)
	repo := NewCommunityRepository(db)
	ctx := context.Background()

	for i, name := range []string{"Gophers", "Rustaceans", "Gopher Hikers"} {
		require.NoError(t, repo.Create(ctx, &models.Community{
			ID:         string(rune('a' + i)),
			ExternalID: "org_" + name,
			Username:   "u" + string(rune('a'+i)) + "_club",
			Name:       name,
			CreatedAt:  baseTime.Add(time.Duration(i) * time.Minute),
		}))
	}

	list, err := repo.List(ctx, ListOptions{Search: "gopher", SortDesc: true, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Gopher Hikers", list[0].Name)

	total, err := repo.Count(ctx, ListOptions{Search: "gopher"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
