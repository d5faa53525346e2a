package badger

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/poiesic/websearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_OnDisk(t *testing.T) {
	dir := t.TempDir()

	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
}

func TestOpenBackend_PathIsFile(t *testing.T) {
	dir := t.TempDir()
	// Backend refuses to open a path that is a regular file
	file := dir + "/not-a-dir"
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	_, err := OpenBackend(file, false)
	assert.Error(t, err)
}

func TestAuthorityRepository_SwapTable(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	authRepo, err := NewAuthorityRepository(backend)
	require.NoError(t, err)
	defer authRepo.Close()

	ctx := context.Background()

	t.Run("empty when absent", func(t *testing.T) {
		table, err := authRepo.LoadTable(ctx)
		require.NoError(t, err)
		assert.Empty(t, table)
	})

	t.Run("full table swap", func(t *testing.T) {
		first := core.AuthorityTable{"kth.se": 92, "uu.se": 88}
		require.NoError(t, authRepo.SaveTable(ctx, first))

		second := core.AuthorityTable{"su.se": 85}
		require.NoError(t, authRepo.SaveTable(ctx, second))

		got, err := authRepo.LoadTable(ctx)
		require.NoError(t, err)
		// The old table is fully replaced, not merged
		assert.Equal(t, second, got)
	})
}

func TestFrontierRepository_Checkpoint(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	frontRepo, err := NewFrontierRepository(backend)
	require.NoError(t, err)
	defer frontRepo.Close()

	ctx := context.Background()

	t.Run("nil when absent", func(t *testing.T) {
		entries, err := frontRepo.LoadFrontier(ctx)
		require.NoError(t, err)
		assert.Nil(t, entries)
	})

	t.Run("save and load", func(t *testing.T) {
		entries := []*core.FrontierEntry{
			{URL: "https://www.kth.se", Depth: 0, DiscoveredAt: time.Now().UTC().Truncate(time.Microsecond)},
			{URL: "https://www.kth.se/student", Depth: 1, DiscoveredAt: time.Now().UTC().Truncate(time.Microsecond)},
		}
		require.NoError(t, frontRepo.SaveFrontier(ctx, entries))

		got, err := frontRepo.LoadFrontier(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, entries[0].URL, got[0].URL)
		assert.Equal(t, entries[1].Depth, got[1].Depth)
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, frontRepo.ClearFrontier(ctx))
		entries, err := frontRepo.LoadFrontier(ctx)
		require.NoError(t, err)
		assert.Nil(t, entries)

		// Clearing an absent checkpoint is not an error
		assert.NoError(t, frontRepo.ClearFrontier(ctx))
	})
}
