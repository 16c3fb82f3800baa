package service

import (
	"context"
	"strings"
	"testing"

	"threads/internal/cache"
	"threads/internal/featureflags"
	"threads/internal/models"
	"threads/internal/repository"
	"threads/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadService_CreateThread_Validation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	author := f.user(t, "author")
	ctx := context.Background()

	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace only", "   \n"},
		{"too long", strings.Repeat("é", models.MaxThreadTextLength+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.threads.CreateThread(ctx, CreateThreadInput{Text: tt.text, AuthorID: author.ID})
			assertCode(t, err, models.CodeValidation)
		})
	}
	assert.Zero(t, f.countThreads(t))
}

func TestThreadService_CreateThread_LinksAuthorAndCommunity(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "author")
	community := testutil.SeedCommunity(t, f.store, "gophers", "Gophers", author)

	thread, err := f.threads.CreateThread(ctx, CreateThreadInput{
		Text: "hello", AuthorID: author.ID, CommunityID: "gophers", Path: "/",
	})
	require.NoError(t, err)
	require.NotNil(t, thread.CommunityID)
	assert.Equal(t, community.ID, *thread.CommunityID)
	assert.Nil(t, thread.ParentID)

	storedAuthor, err := f.store.Users().GetByID(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{thread.ID}, storedAuthor.Threads)

	storedCommunity, err := f.store.Communities().GetByID(ctx, community.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{thread.ID}, storedCommunity.Threads)

	assert.Equal(t, []string{"/"}, f.revalidator.Paths())
}

func TestThreadService_CreateThread_UnknownCommunityIsIgnored(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	author := f.user(t, "author")

	thread, err := f.threads.CreateThread(context.Background(), CreateThreadInput{
		Text: "hello", AuthorID: author.ID, CommunityID: "nope",
	})
	require.NoError(t, err)
	assert.Nil(t, thread.CommunityID)
}

func TestThreadService_CreateThread_UnknownAuthor(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.threads.CreateThread(context.Background(), CreateThreadInput{Text: "hello", AuthorID: "missing"})
	assertCode(t, err, models.CodeNotFound)
	assert.Zero(t, f.countThreads(t))
}

func TestThreadService_ConnectionUnavailable(t *testing.T) {
	t.Parallel()
	svc := NewThreadService(testutil.NewUnconfiguredStore(), nil, nil)
	ctx := context.Background()

	_, err := svc.CreateThread(ctx, CreateThreadInput{Text: "hi", AuthorID: "a"})
	assertCode(t, err, models.CodeConnectionUnavailable)

	_, err = svc.FetchPosts(ctx, models.PageRequest{PageNumber: 1, PageSize: 10})
	assertCode(t, err, models.CodeConnectionUnavailable)

	_, err = svc.DeleteThread(ctx, DeleteThreadInput{ID: "x"})
	assertCode(t, err, models.CodeConnectionUnavailable)
	assert.Contains(t, err.Error(), "failed to delete thread")
}

func TestThreadService_CreateThenFetchPostsReturnsNewestFirst(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	author := f.user(t, "author")
	f.post(t, author, "older")
	newest := f.post(t, author, "newest")

	for _, size := range []int{1, 2, 10} {
		page, err := f.threads.FetchPosts(context.Background(), models.PageRequest{PageNumber: 1, PageSize: size})
		require.NoError(t, err)
		require.NotEmpty(t, page.Posts)
		assert.Equal(t, newest.ID, page.Posts[0].ID)
		assert.Equal(t, "author", page.Posts[0].Author.Username)
	}
}

func TestThreadService_FetchPosts_IsNext(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	author := f.user(t, "author")
	const total = 7
	for i := 0; i < total; i++ {
		f.post(t, author, "post")
	}
	// Comments are not part of the feed.
	root := f.post(t, author, "root")
	f.reply(t, root, author, "reply")
	const roots = total + 1

	ctx := context.Background()
	for _, size := range []int{1, 2, 3, 8, 20} {
		for pageNumber := 1; pageNumber <= roots/size+2; pageNumber++ {
			page, err := f.threads.FetchPosts(ctx, models.PageRequest{PageNumber: pageNumber, PageSize: size})
			require.NoError(t, err)

			offset := (pageNumber - 1) * size
			want := roots - offset
			if want > size {
				want = size
			}
			if want < 0 {
				want = 0
			}
			assert.Len(t, page.Posts, want, "size=%d page=%d", size, pageNumber)
			assert.Equal(t, roots > offset+len(page.Posts), page.IsNext, "size=%d page=%d", size, pageNumber)
			for _, p := range page.Posts {
				assert.Nil(t, p.ParentID)
			}
		}
	}
}

func TestThreadService_FetchPosts_PopulatesDirectReplies(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	root := f.post(t, alice, "root")
	c1 := f.reply(t, root, bob, "first")
	f.reply(t, c1, alice, "nested")

	page, err := f.threads.FetchPosts(context.Background(), models.PageRequest{PageNumber: 0, PageSize: 0})
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)

	post := page.Posts[0]
	require.Len(t, post.Children, 1)
	assert.Equal(t, c1.ID, post.Children[0].ID)
	assert.Equal(t, "bob", post.Children[0].Author.Username)
	assert.Empty(t, post.Children[0].Children, "only one generation is populated")
	assert.Equal(t, 1, post.Children[0].ReplyCount)
}

func TestThreadService_FetchThreadByID_TwoGenerations(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	root := f.post(t, alice, "root")
	c1 := f.reply(t, root, bob, "c1")
	c2 := f.reply(t, root, alice, "c2")
	g1 := f.reply(t, c1, alice, "g1")
	f.reply(t, g1, bob, "too deep")

	node, err := f.threads.FetchThreadByID(context.Background(), root.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", node.Author.Username)
	require.Len(t, node.Children, 2)
	assert.Equal(t, c1.ID, node.Children[0].ID)
	assert.Equal(t, c2.ID, node.Children[1].ID)
	require.Len(t, node.Children[0].Children, 1)
	assert.Equal(t, g1.ID, node.Children[0].Children[0].ID)
	assert.Equal(t, "alice", node.Children[0].Children[0].Author.Username)
	assert.Empty(t, node.Children[0].Children[0].Children)

	_, err = f.threads.FetchThreadByID(context.Background(), "missing")
	assertCode(t, err, models.CodeNotFound)
}

func TestThreadService_AddComment_MissingParentWritesNothing(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	author := f.user(t, "author")
	f.post(t, author, "root")
	before := f.countThreads(t)

	_, err := f.threads.AddCommentToThread(context.Background(), AddCommentInput{
		ThreadID: "missing", Text: "hi", AuthorID: author.ID,
	})
	assertCode(t, err, models.CodeNotFound)
	assert.Equal(t, before, f.countThreads(t))
}

func TestThreadService_AddComment_LinksParentOnly(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	root := f.post(t, alice, "root")

	comment := f.reply(t, root, bob, "hi")
	require.NotNil(t, comment.ParentID)
	assert.Equal(t, root.ID, *comment.ParentID)

	parent, err := f.store.Threads().GetByID(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{comment.ID}, parent.Children)

	storedBob, err := f.store.Users().GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, storedBob.Threads, "comments stay off the author's root list")

	calls := f.revalidator.Calls()
	last := calls[len(calls)-1]
	assert.Equal(t, "/thread/"+root.ID, last.Path)
	assert.Contains(t, last.Keys, cache.ThreadKey(root.ID))
}

func TestThreadService_AddComment_LinkFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		flags     string
		remaining int64
	}{
		{"left for the reconciler", "", 2},
		{"compensated", "compensate_writes=on", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			alice := f.user(t, "alice")
			root := f.post(t, alice, "root")

			broken := storeWithThreads{Store: f.store, threads: func() repository.ThreadRepository {
				return failingThreads{f.store.Threads()}
			}}
			svc := NewThreadService(broken, nil, featureflags.NewManager(tt.flags))

			_, err := svc.AddCommentToThread(context.Background(), AddCommentInput{
				ThreadID: root.ID, Text: "hi", AuthorID: alice.ID,
			})
			assertCode(t, err, models.CodeStoreFailed)
			assert.Contains(t, err.Error(), "failed to link comment")
			assert.Equal(t, tt.remaining, f.countThreads(t))
		})
	}
}

func TestThreadService_DeleteThread_RemovesSubtreeAndReferences(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	community := testutil.SeedCommunity(t, f.store, "gophers", "Gophers", alice)

	root, err := f.threads.CreateThread(ctx, CreateThreadInput{Text: "root", AuthorID: alice.ID, CommunityID: "gophers"})
	require.NoError(t, err)
	c1 := f.reply(t, root, bob, "c1")
	c2 := f.reply(t, root, alice, "c2")
	g1 := f.reply(t, c1, alice, "g1")
	g2 := f.reply(t, c2, bob, "g2")
	removed := []string{root.ID, c1.ID, c2.ID, g1.ID, g2.ID}

	// Bob's root list holds a stale comment id to prove every author is cleaned.
	require.NoError(t, f.store.Users().PushThread(ctx, bob.ID, g2.ID))
	keep := f.post(t, bob, "unrelated")

	deleted, err := f.threads.DeleteThread(ctx, DeleteThreadInput{ID: root.ID, Path: "/", RequesterID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(5), deleted)

	found, err := f.store.Threads().GetByIDs(ctx, removed)
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.Equal(t, int64(1), f.countThreads(t))

	for _, id := range []string{alice.ID, bob.ID} {
		u, err := f.store.Users().GetByID(ctx, id)
		require.NoError(t, err)
		for _, gone := range removed {
			assert.NotContains(t, u.Threads, gone)
		}
	}
	storedBob, err := f.store.Users().GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{keep.ID}, storedBob.Threads)

	storedCommunity, err := f.store.Communities().GetByID(ctx, community.ID)
	require.NoError(t, err)
	assert.Empty(t, storedCommunity.Threads)
}

func TestThreadService_DeleteThread_Comment(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	root := f.post(t, alice, "root")
	c1 := f.reply(t, root, alice, "c1")
	c2 := f.reply(t, root, alice, "c2")
	f.reply(t, c1, alice, "g1")

	deleted, err := f.threads.DeleteThread(ctx, DeleteThreadInput{ID: c1.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	parent, err := f.store.Threads().GetByID(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c2.ID}, parent.Children)
}

func TestThreadService_DeleteThread_Errors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	root := f.post(t, alice, "root")
	ctx := context.Background()

	_, err := f.threads.DeleteThread(ctx, DeleteThreadInput{ID: "missing"})
	assertCode(t, err, models.CodeNotFound)
	assert.Contains(t, err.Error(), "failed to delete thread")

	_, err = f.threads.DeleteThread(ctx, DeleteThreadInput{ID: root.ID, RequesterID: bob.ID})
	assertCode(t, err, models.CodeUnauthorized)
	assert.Equal(t, int64(1), f.countThreads(t))
}

func TestThreadService_FetchThreadByID_CacheEvictedOnReply(t *testing.T) {
	f := newFixture(t)
	mr := f.withRedis(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	root := f.post(t, alice, "root")

	node, err := f.threads.FetchThreadByID(ctx, root.ID)
	require.NoError(t, err)
	assert.Empty(t, node.Children)
	assert.True(t, mr.Exists(cache.ThreadKey(root.ID)))

	f.reply(t, root, alice, "reply")
	assert.False(t, mr.Exists(cache.ThreadKey(root.ID)))

	node, err = f.threads.FetchThreadByID(ctx, root.ID)
	require.NoError(t, err)
	assert.Len(t, node.Children, 1)
}

func TestThreadService_ReplyCountRefreshedInAncestorViews(t *testing.T) {
	f := newFixture(t)
	mr := f.withRedis(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	root := f.post(t, alice, "root")
	child := f.reply(t, root, alice, "child")
	grandchild := f.reply(t, child, alice, "grandchild")

	node, err := f.threads.FetchThreadByID(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, node.Children[0].Children, 1)
	assert.Zero(t, node.Children[0].Children[0].ReplyCount)

	f.reply(t, grandchild, alice, "deep")
	assert.False(t, mr.Exists(cache.ThreadKey(root.ID)))

	node, err = f.threads.FetchThreadByID(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, node.Children[0].Children[0].ReplyCount)
}

func TestThreadService_OwnerViewsFollowCreateAndDelete(t *testing.T) {
	f := newFixture(t)
	mr := f.withRedis(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	testutil.SeedCommunity(t, f.store, "gophers", "Gophers", alice)

	profile, err := f.users.FetchUser(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, profile.User.Threads)
	details, err := f.communities.FetchCommunityDetails(ctx, "gophers")
	require.NoError(t, err)
	assert.Empty(t, details.Community.Threads)
	require.True(t, mr.Exists(cache.UserKey("alice")))
	require.True(t, mr.Exists(cache.CommunityKey("gophers")))

	thread, err := f.threads.CreateThread(ctx, CreateThreadInput{
		Text: "hello", AuthorID: alice.ID, CommunityID: "gophers", Path: "/",
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.UserKey("alice")))
	assert.False(t, mr.Exists(cache.CommunityKey("gophers")))

	profile, err = f.users.FetchUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{thread.ID}, profile.User.Threads)
	details, err = f.communities.FetchCommunityDetails(ctx, "gophers")
	require.NoError(t, err)
	assert.Equal(t, []string{thread.ID}, details.Community.Threads)

	f.reply(t, thread, bob, "reply")
	_, err = f.users.FetchUser(ctx, "bob")
	require.NoError(t, err)

	_, err = f.threads.DeleteThread(ctx, DeleteThreadInput{ID: thread.ID, RequesterID: alice.ID})
	require.NoError(t, err)
	for _, key := range []string{cache.UserKey("alice"), cache.UserKey("bob"), cache.CommunityKey("gophers")} {
		assert.False(t, mr.Exists(key), key)
	}

	profile, err = f.users.FetchUser(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, profile.User.Threads)
	details, err = f.communities.FetchCommunityDetails(ctx, "gophers")
	require.NoError(t, err)
	assert.Empty(t, details.Community.Threads)
}

func TestViewKeys(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	root := f.post(t, alice, "root")
	child := f.reply(t, root, alice, "child")
	grandchild := f.reply(t, child, alice, "grandchild")

	keys, err := ViewKeys(ctx, f.store.Threads(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{cache.ThreadKey(root.ID)}, keys)

	keys, err = ViewKeys(ctx, f.store.Threads(), grandchild)
	require.NoError(t, err)
	assert.Equal(t, cache.ThreadKeys(grandchild.ID, child.ID, root.ID), keys)

	orphan := &models.Thread{ID: "orphan", ParentID: &[]string{"gone"}[0]}
	keys, err = ViewKeys(ctx, f.store.Threads(), orphan)
	require.NoError(t, err)
	assert.Equal(t, cache.ThreadKeys("orphan", "gone"), keys)
}

func TestCollectSubtree_VisitsEachThreadOnce(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	alice := f.user(t, "alice")
	root := f.post(t, alice, "root")
	c1 := f.reply(t, root, alice, "c1")
	c2 := f.reply(t, root, alice, "c2")
	g1 := f.reply(t, c1, alice, "g1")
	d1 := f.reply(t, g1, alice, "d1")
	f.post(t, alice, "other root")

	subtree, err := collectSubtree(context.Background(), f.store.Threads(), root)
	require.NoError(t, err)

	ids := make([]string, len(subtree))
	for i, th := range subtree {
		ids[i] = th.ID
	}
	assert.Equal(t, root.ID, ids[0])
	assert.ElementsMatch(t, []string{root.ID, c1.ID, c2.ID, g1.ID, d1.ID}, ids)
}
