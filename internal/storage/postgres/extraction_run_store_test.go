package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candpipe/internal/domain"
	"candpipe/internal/storage"
)

func TestExtractionRunStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewExtractionRunStore(pool)
	ctx := context.Background()

	run := &domain.ExtractionRun{
		RunID:      "run-integration-1",
		ZapMode:    "Lovell_20cm",
		OutputDir:  "/data/plots",
		Attempted:  25,
		Succeeded:  23,
		StartedAt:  1700000000000,
		FinishedAt: 1700000120000,
	}

	require.NoError(t, store.Insert(ctx, run))

	got, err := store.GetByID(ctx, "run-integration-1")
	require.NoError(t, err)
	assert.Equal(t, run.ZapMode, got.ZapMode)
	assert.Equal(t, run.Attempted, got.Attempted)
	assert.Equal(t, run.Succeeded, got.Succeeded)
	assert.Equal(t, run.FinishedAt, got.FinishedAt)
}

func TestExtractionRunStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewExtractionRunStore(pool)
	ctx := context.Background()

	run := &domain.ExtractionRun{RunID: "run-dup", ZapMode: "None"}
	require.NoError(t, store.Insert(ctx, run))

	err := store.Insert(ctx, run)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestExtractionRunStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewExtractionRunStore(pool)

	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestExtractionRunStore_GetRecent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewExtractionRunStore(pool)
	ctx := context.Background()

	runs := []*domain.ExtractionRun{
		{RunID: "run-a", ZapMode: "None", StartedAt: 1000},
		{RunID: "run-b", ZapMode: "None", StartedAt: 3000},
		{RunID: "run-c", ZapMode: "None", StartedAt: 2000},
	}
	for _, r := range runs {
		require.NoError(t, store.Insert(ctx, r))
	}

	recent, err := store.GetRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "run-b", recent[0].RunID)
	assert.Equal(t, "run-c", recent[1].RunID)
}
