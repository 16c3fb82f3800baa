package service

import (
	"context"
	"testing"
	"time"

	"threads/internal/cache"
	"threads/internal/models"
	"threads/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_UpdateUser_Converges(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	in := UpdateUserInput{
		ExternalID: "ext_1", Username: "  Gopher.One ", Name: "Gopher", Bio: "bio", Image: "https://img/1.png", Path: "/onboarding",
	}

	first, err := f.users.UpdateUser(ctx, in)
	require.NoError(t, err)
	second, err := f.users.UpdateUser(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "gopher.one", second.Username)
	assert.True(t, second.Onboarded)
	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, first.Bio, second.Bio)
	assert.Equal(t, first.Image, second.Image)
	assert.Equal(t, first.Threads, second.Threads)
	assert.Equal(t, first.Communities, second.Communities)

	var n int64
	require.NoError(t, f.store.DB().Model(&models.User{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestUserService_UpdateUser_RevalidatesOnlyProfileEdit(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.UpdateUser(ctx, UpdateUserInput{ExternalID: "ext", Username: "gopher", Name: "G", Path: "/onboarding"})
	require.NoError(t, err)
	assert.Empty(t, f.revalidator.Paths())

	_, err = f.users.UpdateUser(ctx, UpdateUserInput{ExternalID: "ext", Username: "gopher", Name: "G", Path: ProfileEditPath})
	require.NoError(t, err)
	assert.Equal(t, []string{ProfileEditPath}, f.revalidator.Paths())

	for _, call := range f.revalidator.Calls() {
		assert.Equal(t, []string{cache.UserKey("ext")}, call.Keys)
	}
}

func TestUserService_UpdateUser_Errors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "taken")

	tests := []struct {
		name string
		in   UpdateUserInput
		code string
	}{
		{"missing external id", UpdateUserInput{Username: "gopher", Name: "G"}, models.CodeValidation},
		{"short username", UpdateUserInput{ExternalID: "x", Username: "go", Name: "G"}, models.CodeValidation},
		{"invalid characters", UpdateUserInput{ExternalID: "x", Username: "go pher", Name: "G"}, models.CodeValidation},
		{"missing name", UpdateUserInput{ExternalID: "x", Username: "gopher"}, models.CodeValidation},
		{"username taken", UpdateUserInput{ExternalID: "x", Username: "TAKEN", Name: "G"}, models.CodeConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.UpdateUser(ctx, tt.in)
			assertCode(t, err, tt.code)
		})
	}

	_, err := f.users.UpdateUser(ctx, UpdateUserInput{ExternalID: "x", Username: "taken", Name: "G"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to update user")
}

func TestUserService_FetchUser(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	c1 := testutil.SeedCommunity(t, f.store, "first", "First", alice)
	c2 := testutil.SeedCommunity(t, f.store, "second", "Second", alice)

	profile, err := f.users.FetchUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, profile.User.ID)
	require.Len(t, profile.Communities, 2)
	assert.Equal(t, c1.ID, profile.Communities[0].ID)
	assert.Equal(t, c2.ID, profile.Communities[1].ID)

	_, err = f.users.FetchUser(ctx, "nobody")
	assertCode(t, err, models.CodeNotFound)
}

func TestUserService_FetchUserPosts(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	first := f.post(t, alice, "first")
	second := f.post(t, alice, "second")
	f.reply(t, first, bob, "reply")
	f.post(t, bob, "not alice")

	posts, err := f.users.FetchUserPosts(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", posts.User.Username)
	require.Len(t, posts.Threads, 2)
	assert.Equal(t, first.ID, posts.Threads[0].ID)
	assert.Equal(t, second.ID, posts.Threads[1].ID)
	require.Len(t, posts.Threads[0].Children, 1)
	assert.Equal(t, "bob", posts.Threads[0].Children[0].Author.Username)
}

func TestUserService_FetchAllUsers_ExcludesRequester(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	names := []string{"anna", "annabel", "bob", "hannah", "zed"}
	for i, n := range names {
		testutil.SeedUser(t, f.store, n, "Name "+n, baseTime.Add(time.Duration(i)*time.Hour))
	}

	for _, requester := range names {
		for _, search := range []string{"", "ann", "NAME", "  b ", "%", "zzz"} {
			for pageNumber := 1; pageNumber <= 3; pageNumber++ {
				page, err := f.users.FetchAllUsers(ctx, FetchUsersInput{
					UserID: requester, SearchString: search, PageNumber: pageNumber, PageSize: 2,
				})
				require.NoError(t, err)
				for _, u := range page.Users {
					assert.NotEqual(t, requester, u.ExternalID, "search=%q page=%d", search, pageNumber)
				}
			}
		}
	}
}

func TestUserService_FetchAllUsers_SearchSortAndPaging(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	for i, n := range []string{"anna", "annabel", "bob", "hannah", "zed"} {
		testutil.SeedUser(t, f.store, n, "Person "+n, baseTime.Add(time.Duration(i)*time.Hour))
	}

	page, err := f.users.FetchAllUsers(ctx, FetchUsersInput{UserID: "zed", SearchString: "ANN", PageNumber: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Users, 2)
	assert.Equal(t, "hannah", page.Users[0].ExternalID, "newest first by default")
	assert.Equal(t, "annabel", page.Users[1].ExternalID)
	assert.True(t, page.IsNext)

	page, err = f.users.FetchAllUsers(ctx, FetchUsersInput{UserID: "zed", SearchString: "ann", PageNumber: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Users, 1)
	assert.Equal(t, "anna", page.Users[0].ExternalID)
	assert.False(t, page.IsNext)

	page, err = f.users.FetchAllUsers(ctx, FetchUsersInput{UserID: "zed", PageNumber: 1, PageSize: 10, SortBy: "asc"})
	require.NoError(t, err)
	require.Len(t, page.Users, 4)
	assert.Equal(t, "anna", page.Users[0].ExternalID)
	assert.False(t, page.IsNext)
}

func TestUserService_GetUserActivity(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "user_a")
	b := f.user(t, "user_b")

	t1 := f.post(t, a, "T1")
	c1 := f.reply(t, t1, b, "C1")

	activity, err := f.users.GetUserActivity(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, activity, 1)
	assert.Equal(t, c1.ID, activity[0].ID)
	require.NotNil(t, activity[0].Author)
	assert.Equal(t, b.ID, activity[0].Author.ID)
	assert.Equal(t, "Name user_b", activity[0].Author.Name)

	activity, err = f.users.GetUserActivity(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, activity)

	// Self replies never show up.
	f.reply(t, t1, a, "self")
	later := f.reply(t, t1, b, "C2")
	activity, err = f.users.GetUserActivity(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, activity, 2)
	assert.Equal(t, later.ID, activity[0].ID)
	assert.Equal(t, c1.ID, activity[1].ID)
}
