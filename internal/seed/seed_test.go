package seed

import (
	"context"
	"testing"

	"threads/internal/reconcile"
	"threads/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle(t *testing.T) {
	assert.Equal(t, "maryjones_3", handle("Mary Jones", 3))
	assert.Equal(t, "acmeinc_0", handle("Acme, Inc.", 0))
	assert.Equal(t, "user_12", handle("!!!", 12))
	assert.Len(t, handle("Abcdefghijklmnopqrstuvwxyz", 1), 22)
}

func TestOptions_Validate(t *testing.T) {
	assert.NoError(t, Options{}.Validate())
	assert.NoError(t, Options{Users: 1, Threads: 3}.Validate())
	assert.Error(t, Options{Users: -1}.Validate())
	assert.Error(t, Options{Threads: 2}.Validate())
	assert.Error(t, Options{Users: 2, MemberPercent: 101}.Validate())
}

func TestLoadPresets(t *testing.T) {
	presets, err := LoadPresets([]byte("small:\n  users: 2\n  threads: 4\n  max_replies: 1\n"))
	require.NoError(t, err)
	assert.Equal(t, Options{Users: 2, Threads: 4, MaxReplies: 1}, presets["small"])

	_, err = LoadPresets([]byte("broken:\n  threads: 4\n"))
	assert.Error(t, err)

	_, err = LoadPresets([]byte("not: [yaml"))
	assert.Error(t, err)
}

func TestPreset_BuiltIn(t *testing.T) {
	opts, err := Preset("demo")
	require.NoError(t, err)
	assert.Equal(t, 25, opts.Users)

	_, err = Preset("missing")
	assert.ErrorContains(t, err, "unknown preset")
}

func TestSeeder_RunProducesConsistentData(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewSQLiteStore(t)

	opts, err := Preset("tiny")
	require.NoError(t, err)

	result, err := NewSeeder(store).Run(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Users)
	assert.Equal(t, 1, result.Communities)
	assert.Equal(t, 5, result.Threads)
	assert.Equal(t, 2, result.Memberships)

	total, err := store.Threads().CountTopLevel(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)

	all, err := store.Threads().Scan(ctx, "", 1000)
	require.NoError(t, err)
	assert.Len(t, all, result.Threads+result.Comments)

	report, err := reconcile.New(store, nil, 10).Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Total(), "seeded data should need no repairs: %v", report.Repairs)
}

func TestSeeder_Clean(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewSQLiteStore(t)
	seeder := NewSeeder(store)

	_, err := seeder.Run(ctx, Options{Users: 2, Threads: 2, Seed: 5})
	require.NoError(t, err)

	result, err := seeder.Run(ctx, Options{Users: 1, Clean: true, Seed: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Users)

	total, err := store.Threads().CountTopLevel(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)

	users, err := store.Users().Scan(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestSeeder_Unconfigured(t *testing.T) {
	_, err := NewSeeder(testutil.NewUnconfiguredStore()).Run(context.Background(), Options{Users: 1, Clean: true})
	assert.Error(t, err)
}
