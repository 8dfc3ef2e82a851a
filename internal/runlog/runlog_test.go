// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runlog

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/content-engine/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBeginRecordFinish(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run, err := store.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, run.RecordItem(ctx, types.QueueItem{RowNumber: 2, Title: "Post A", PostID: "41"}, true, ""))
	require.NoError(t, run.RecordItem(ctx, types.QueueItem{RowNumber: 5, Title: "Post B", PostID: "42"}, false, "gathering research: serp exploded"))
	require.NoError(t, run.Finish(ctx, 1, 1))

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Succeeded)
	assert.Equal(t, 1, runs[0].Errored)
	assert.False(t, runs[0].Active)
	assert.NotNil(t, runs[0].FinishedAt)

	items, err := store.Items(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].RowNumber)
	assert.True(t, items[0].OK)
	assert.Equal(t, 5, items[1].RowNumber)
	assert.False(t, items[1].OK)
	assert.Contains(t, items[1].ErrorMsg, "serp exploded")
}

func TestBeginRefusesSecondActiveRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, err := store.Begin(ctx)
	require.NoError(t, err)

	_, err = store.Begin(ctx)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "already active"))

	require.NoError(t, first.Finish(ctx, 0, 0))
	second, err := store.Begin(ctx)
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
}

func TestClearActiveRecoversStaleRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.Begin(ctx)
	require.NoError(t, err)

	cleared, err := store.ClearActive(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cleared)

	_, err = store.Begin(ctx)
	require.NoError(t, err)
}

func TestListNewestFirstWithLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		run, err := store.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, run.Finish(ctx, i, 0))
	}

	runs, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Greater(t, runs[0].ID, runs[1].ID)
	assert.Equal(t, 2, runs[0].Succeeded)
}
