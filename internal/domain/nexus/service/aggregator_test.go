package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"klaus/internal/domain/nexus/model"
)

type fakeArchive struct {
	items     []model.ContentItem
	fetchErr  error
	gotMode   model.Mode
	gotSearch string
	gotPage   int

	collections map[string][]model.ContentItem
	collErr     error
}

func (f *fakeArchive) Fetch(ctx context.Context, mode model.Mode, search string, page, limit int) ([]model.ContentItem, error) {
	f.gotMode, f.gotSearch, f.gotPage = mode, search, page
	return f.items, f.fetchErr
}

func (f *fakeArchive) FetchCollection(ctx context.Context, collection string, limit int) ([]model.ContentItem, error) {
	if f.collErr != nil {
		return nil, f.collErr
	}
	return f.collections[collection], nil
}

type fakeSpace struct {
	items    []model.ContentItem
	fetchErr error
	calls    int
}

func (f *fakeSpace) Fetch(ctx context.Context, mode model.Mode, search string) ([]model.ContentItem, error) {
	f.calls++
	return f.items, f.fetchErr
}

type fakeSampler struct {
	item  *model.ContentItem
	saved []model.ContentItem
	err   error
}

func (f *fakeSampler) Random(ctx context.Context, userID string) (*model.ContentItem, error) {
	return f.item, f.err
}

func (f *fakeSampler) ListContent(ctx context.Context, userID string) ([]model.ContentItem, error) {
	return f.saved, f.err
}

func archiveItems(n int) []model.ContentItem {
	items := make([]model.ContentItem, n)
	for i := range items {
		items[i] = model.ContentItem{ID: fmt.Sprintf("ia-%d", i), Source: "Internet Archive"}
	}
	return items
}

func TestFetchPage_FirstPageMergesBothSources(t *testing.T) {
	archive := &fakeArchive{items: archiveItems(4)}
	space := &fakeSpace{items: []model.ContentItem{{ID: "nasa-1", Source: "NASA"}}}
	agg := NewAggregator(archive, space, nil)

	merged, err := agg.FetchPage(context.Background(), "u1", model.ModeFeed, "mars", 1)

	require.NoError(t, err)
	assert.Equal(t, 1, space.calls)
	assert.Len(t, merged, 5)

	want := append(archiveItems(4), model.ContentItem{ID: "nasa-1", Source: "NASA"})
	assert.ElementsMatch(t, want, merged, "first page is a shuffle, same members")
}

func TestFetchPage_LaterPagesSkipSpace(t *testing.T) {
	archive := &fakeArchive{items: archiveItems(3)}
	space := &fakeSpace{items: []model.ContentItem{{ID: "nasa-1"}}}
	agg := NewAggregator(archive, space, nil)

	merged, err := agg.FetchPage(context.Background(), "u1", model.ModeFeed, "", 2)

	require.NoError(t, err)
	assert.Equal(t, 0, space.calls)
	assert.Equal(t, archiveItems(3), merged, "later pages keep upstream order")
	assert.Equal(t, 2, archive.gotPage)
}

func TestFetchPage_LibraryNeverQueriesSpace(t *testing.T) {
	archive := &fakeArchive{items: archiveItems(2)}
	space := &fakeSpace{items: []model.ContentItem{{ID: "nasa-1"}}}
	agg := NewAggregator(archive, space, nil)

	_, err := agg.FetchPage(context.Background(), "u1", model.ModeLibrary, "", 1)

	require.NoError(t, err)
	assert.Equal(t, 0, space.calls)
}

func TestFetchPage_FailedUpstreamContributesNothing(t *testing.T) {
	archive := &fakeArchive{fetchErr: errors.New("upstream down")}
	space := &fakeSpace{items: []model.ContentItem{{ID: "nasa-1"}}}
	agg := NewAggregator(archive, space, nil)

	merged, err := agg.FetchPage(context.Background(), "u1", model.ModeFeed, "", 1)

	require.NoError(t, err, "one dead upstream never fails the page")
	require.Len(t, merged, 1)
	assert.Equal(t, "nasa-1", merged[0].ID)
}

func TestFetchPage_NormalizesPageNumber(t *testing.T) {
	archive := &fakeArchive{}
	agg := NewAggregator(archive, &fakeSpace{}, nil)

	_, err := agg.FetchPage(context.Background(), "u1", model.ModeGeneral, "", 0)

	require.NoError(t, err)
	assert.Equal(t, 1, archive.gotPage)
}

func TestFetchPage_CollectionsReadsSavedItemsOnly(t *testing.T) {
	archive := &fakeArchive{items: archiveItems(3)}
	space := &fakeSpace{items: []model.ContentItem{{ID: "nasa-1"}}}
	saved := []model.ContentItem{{ID: "kept-2"}, {ID: "kept-1"}}
	agg := NewAggregator(archive, space, &fakeSampler{saved: saved})

	items, err := agg.FetchPage(context.Background(), "u1", model.ModeCollections, "", 1)

	require.NoError(t, err)
	assert.Equal(t, saved, items, "saved order is preserved, no shuffle")
	assert.Zero(t, space.calls)
	assert.Zero(t, archive.gotPage, "archive is never queried")
}

func TestFetchPage_CollectionsHasSinglePage(t *testing.T) {
	saved := []model.ContentItem{{ID: "kept-1"}}
	agg := NewAggregator(&fakeArchive{}, &fakeSpace{}, &fakeSampler{saved: saved})

	items, err := agg.FetchPage(context.Background(), "u1", model.ModeCollections, "", 2)

	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFetchPage_CollectionsWithoutLocalStore(t *testing.T) {
	agg := NewAggregator(&fakeArchive{}, &fakeSpace{}, nil)

	items, err := agg.FetchPage(context.Background(), "u1", model.ModeCollections, "", 1)

	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRandomContent_FallsBackToTopicWhenStoreEmpty(t *testing.T) {
	archive := &fakeArchive{items: archiveItems(3)}
	agg := NewAggregator(archive, &fakeSpace{}, &fakeSampler{item: nil})

	item, err := agg.RandomContent(context.Background(), "u1")

	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Contains(t, []string{"ia-0", "ia-1", "ia-2"}, item.ID)
	assert.Equal(t, model.ModeGeneral, archive.gotMode)
	assert.Contains(t, randomTopics, archive.gotSearch)
}

func TestRandomContent_NilWhenNothingAvailable(t *testing.T) {
	agg := NewAggregator(&fakeArchive{}, &fakeSpace{}, nil)

	item, err := agg.RandomContent(context.Background(), "u1")

	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestRails_LibraryGetsGutenberg(t *testing.T) {
	archive := &fakeArchive{collections: map[string][]model.ContentItem{
		"gutenberg": {{ID: "book-1"}},
	}}
	agg := NewAggregator(archive, &fakeSpace{}, nil)

	rails := agg.Rails(context.Background(), model.ModeLibrary)

	require.Len(t, rails, 1)
	assert.Equal(t, "Gutenberg", rails[0].Title)
	require.Len(t, rails[0].Items, 1)
	assert.Equal(t, "book-1", rails[0].Items[0].ID)
}

func TestRails_DiscoveryPairForOtherModes(t *testing.T) {
	archive := &fakeArchive{collections: map[string][]model.ContentItem{
		"tedtalks":    {{ID: "talk-1"}},
		"smithsonian": {{ID: "art-1"}},
	}}
	agg := NewAggregator(archive, &fakeSpace{}, nil)

	rails := agg.Rails(context.Background(), model.ModeFeed)

	require.Len(t, rails, 2)
	assert.Equal(t, "TED Ideas", rails[0].Title)
	assert.Equal(t, "Smithsonian", rails[1].Title)
}

func TestRails_FailedRailKeepsTitle(t *testing.T) {
	archive := &fakeArchive{collErr: errors.New("down")}
	agg := NewAggregator(archive, &fakeSpace{}, nil)

	rails := agg.Rails(context.Background(), model.ModeFeed)

	require.Len(t, rails, 2)
	for _, rail := range rails {
		assert.Empty(t, rail.Items)
		assert.NotEmpty(t, rail.Title)
	}
}
