package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"klaus/internal/domain/keepsake/model"
	"klaus/pkg/database"
)

func newTestRepo(t *testing.T) KeepsakeRepository {
	t.Helper()

	db, err := database.InitLocal(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewKeepsakeRepository(db)
}

func sampleKeepsake(userID, itemID string, savedAt time.Time) model.Keepsake {
	return model.Keepsake{
		UserID:       userID,
		ItemID:       itemID,
		Title:        "Computer Chronicles",
		Type:         "video",
		Source:       "Internet Archive",
		Author:       "Stewart Cheifet",
		Year:         "1985",
		Views:        1200,
		Likes:        24,
		ThumbnailURL: "https://archive.org/services/img/" + itemID,
		ExternalLink: "https://archive.org/details/" + itemID,
		SavedAt:      savedAt,
	}
}

func TestKeepsakeRepository_SaveAndList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	older := sampleKeepsake("u1", "item-a", time.Now().Add(-time.Hour))
	newer := sampleKeepsake("u1", "item-b", time.Now())
	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Save(ctx, newer))

	items, err := repo.ListAll(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "item-b", items[0].ItemID, "newest first")
	assert.Equal(t, "item-a", items[1].ItemID)
}

func TestKeepsakeRepository_SaveIsUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	k := sampleKeepsake("u1", "item-a", time.Now())
	require.NoError(t, repo.Save(ctx, k))

	k.Title = "Updated Title"
	require.NoError(t, repo.Save(ctx, k))

	items, err := repo.ListAll(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Updated Title", items[0].Title)
}

func TestKeepsakeRepository_ScopedPerUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleKeepsake("u1", "item-a", time.Now())))
	require.NoError(t, repo.Save(ctx, sampleKeepsake("u2", "item-b", time.Now())))

	items, err := repo.ListAll(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "item-a", items[0].ItemID)

	exists, err := repo.Exists(ctx, "u1", "item-b")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestKeepsakeRepository_Remove(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleKeepsake("u1", "item-a", time.Now())))
	require.NoError(t, repo.Remove(ctx, "u1", "item-a"))

	exists, err := repo.Exists(ctx, "u1", "item-a")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestKeepsakeRepository_RandomFromOwnCollection(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	k, err := repo.Random(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, k, "empty collection yields nil, not an error")

	require.NoError(t, repo.Save(ctx, sampleKeepsake("u1", "item-a", time.Now())))
	require.NoError(t, repo.Save(ctx, sampleKeepsake("u2", "item-b", time.Now())))

	for i := 0; i < 5; i++ {
		k, err = repo.Random(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, k)
		assert.Equal(t, "item-a", k.ItemID)
	}
}

func TestKeepsakeRepository_UpsertAllKeepsExistingItems(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleKeepsake("u1", "old-item", time.Now())))

	incoming := []model.Keepsake{
		sampleKeepsake("u1", "new-a", time.Now()),
		sampleKeepsake("u1", "new-b", time.Now().Add(-time.Minute)),
	}
	require.NoError(t, repo.UpsertAll(ctx, "u1", incoming))

	// An item saved before the batch and absent from it survives.
	exists, err := repo.Exists(ctx, "u1", "old-item")
	require.NoError(t, err)
	assert.True(t, exists)

	count, err := repo.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestKeepsakeRepository_UpsertAllLastWriteWins(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleKeepsake("u1", "item-a", time.Now().Add(-time.Hour))))

	update := sampleKeepsake("u1", "item-a", time.Now())
	update.Title = "Revised Title"
	require.NoError(t, repo.UpsertAll(ctx, "u1", []model.Keepsake{update}))

	items, err := repo.ListAll(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Revised Title", items[0].Title)
}
