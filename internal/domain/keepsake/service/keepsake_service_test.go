package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"klaus/internal/domain/keepsake/model"
	nexusmodel "klaus/internal/domain/nexus/model"
)

type MockKeepsakeRepository struct {
	mock.Mock
}

func (m *MockKeepsakeRepository) Save(ctx context.Context, k model.Keepsake) error {
	args := m.Called(ctx, k)
	return args.Error(0)
}

func (m *MockKeepsakeRepository) Remove(ctx context.Context, userID, itemID string) error {
	args := m.Called(ctx, userID, itemID)
	return args.Error(0)
}

func (m *MockKeepsakeRepository) Exists(ctx context.Context, userID, itemID string) (bool, error) {
	args := m.Called(ctx, userID, itemID)
	return args.Bool(0), args.Error(1)
}

func (m *MockKeepsakeRepository) ListAll(ctx context.Context, userID string) ([]model.Keepsake, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Keepsake), args.Error(1)
}

func (m *MockKeepsakeRepository) Random(ctx context.Context, userID string) (*model.Keepsake, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Keepsake), args.Error(1)
}

func (m *MockKeepsakeRepository) Count(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockKeepsakeRepository) UpsertAll(ctx context.Context, userID string, items []model.Keepsake) error {
	args := m.Called(ctx, userID, items)
	return args.Error(0)
}

func TestSave_StampsSavedAt(t *testing.T) {
	repo := new(MockKeepsakeRepository)
	svc := NewKeepsakeService(repo, nil, nil)

	repo.On("Save", mock.Anything, mock.MatchedBy(func(k model.Keepsake) bool {
		return k.UserID == "u1" && k.ItemID == "item-a" && !k.SavedAt.IsZero()
	})).Return(nil)

	saved, err := svc.Save(context.Background(), "u1", nexusmodel.ContentItem{ID: "item-a", Title: "T"})

	require.NoError(t, err)
	assert.Equal(t, "item-a", saved.ItemID)
	assert.WithinDuration(t, time.Now(), saved.SavedAt, time.Minute)
	repo.AssertExpectations(t)
}

func TestRemove_AbsentIsNoop(t *testing.T) {
	repo := new(MockKeepsakeRepository)
	svc := NewKeepsakeService(repo, nil, nil)

	repo.On("Remove", mock.Anything, "u1", "missing").Return(nil)

	err := svc.Remove(context.Background(), "u1", "missing")

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestListContent_KeepsSavedOrder(t *testing.T) {
	repo := new(MockKeepsakeRepository)
	svc := NewKeepsakeService(repo, nil, nil)

	repo.On("ListAll", mock.Anything, "u1").Return([]model.Keepsake{
		{UserID: "u1", ItemID: "item-b", Title: "Newer"},
		{UserID: "u1", ItemID: "item-a", Title: "Older"},
	}, nil)

	items, err := svc.ListContent(context.Background(), "u1")

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "item-b", items[0].ID)
	assert.Equal(t, "item-a", items[1].ID)
}

func TestRandom_ConvertsToContentItem(t *testing.T) {
	repo := new(MockKeepsakeRepository)
	svc := NewKeepsakeService(repo, nil, nil)

	k := model.Keepsake{UserID: "u1", ItemID: "item-a", Title: "T", Type: "video", VideoURL: "http://v"}
	repo.On("Random", mock.Anything, "u1").Return(&k, nil)

	item, err := svc.Random(context.Background(), "u1")

	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "item-a", item.ID)
	assert.Equal(t, "http://v", item.VideoURL)
}

func TestExport_WritesVersionedEnvelope(t *testing.T) {
	repo := new(MockKeepsakeRepository)
	svc := NewKeepsakeService(repo, nil, nil)

	items := []model.Keepsake{
		{UserID: "u1", ItemID: "item-a", Title: "T", SavedAt: time.Now()},
	}
	repo.On("ListAll", mock.Anything, "u1").Return(items, nil)

	data, err := svc.Export(context.Background(), "u1")
	require.NoError(t, err)

	var out model.Export
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, model.ExportVersion, out.Version)
	assert.WithinDuration(t, time.Now(), out.ExportedAt, time.Minute)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "item-a", out.Items[0].ItemID)
}

func TestExport_EmptyCollectionHasItemsArray(t *testing.T) {
	repo := new(MockKeepsakeRepository)
	svc := NewKeepsakeService(repo, nil, nil)

	repo.On("ListAll", mock.Anything, "u1").Return([]model.Keepsake(nil), nil)

	data, err := svc.Export(context.Background(), "u1")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"items": []`, "empty export still carries the array")
}

func TestImport_RejectsCorruptPayloads(t *testing.T) {
	repo := new(MockKeepsakeRepository)
	svc := NewKeepsakeService(repo, nil, nil)

	payloads := [][]byte{
		[]byte(`not json`),
		[]byte(`{"version":"Klaus_Collection_V1"}`),
		[]byte(`{}`),
	}
	for _, payload := range payloads {
		_, err := svc.Import(context.Background(), "u1", payload)
		assert.ErrorIs(t, err, ErrCorruptImport, "payload %s", payload)
	}
	repo.AssertNotCalled(t, "UpsertAll", mock.Anything, mock.Anything, mock.Anything)
}

func TestImport_AcceptsForeignVersion(t *testing.T) {
	repo := new(MockKeepsakeRepository)
	svc := NewKeepsakeService(repo, nil, nil)

	payload := []byte(`{"version":"Other_App_V2","items":[{"id":"item-a","title":"A"}]}`)
	repo.On("UpsertAll", mock.Anything, "u1", mock.Anything).Return(nil)

	count, err := svc.Import(context.Background(), "u1", payload)

	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestImport_MergesIntoCollection(t *testing.T) {
	repo := new(MockKeepsakeRepository)
	svc := NewKeepsakeService(repo, nil, nil)

	payload := []byte(`{
		"version": "Klaus_Collection_V1",
		"exportedAt": "2026-08-01T00:00:00Z",
		"items": [
			{"id": "item-a", "title": "A", "savedAt": "2026-07-01T00:00:00Z"},
			{"id": "item-a", "title": "duplicate, skipped"},
			{"id": "", "title": "no id, skipped"},
			{"id": "item-b", "title": "B"}
		]
	}`)

	repo.On("UpsertAll", mock.Anything, "u1", mock.MatchedBy(func(items []model.Keepsake) bool {
		if len(items) != 2 {
			return false
		}
		return items[0].ItemID == "item-a" && items[1].ItemID == "item-b" &&
			items[0].UserID == "u1" && !items[1].SavedAt.IsZero()
	})).Return(nil)

	count, err := svc.Import(context.Background(), "u1", payload)

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	repo.AssertExpectations(t)
}
