package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"klaus/internal/domain/keepsake/model"
	"klaus/internal/domain/keepsake/repository"
	nexusmodel "klaus/internal/domain/nexus/model"
	"klaus/internal/pkg/worker"
	"klaus/pkg/mirror"
)

var ErrCorruptImport = errors.New("import payload is not a valid collection export")

// KeepsakeService manages a member's saved collection in the local store.
// Writes are mirrored to the redundancy store off the request path.
type KeepsakeService interface {
	Save(ctx context.Context, userID string, item nexusmodel.ContentItem) (model.Keepsake, error)
	Remove(ctx context.Context, userID, itemID string) error
	IsSaved(ctx context.Context, userID, itemID string) (bool, error)
	List(ctx context.Context, userID string) ([]model.Keepsake, error)
	ListContent(ctx context.Context, userID string) ([]nexusmodel.ContentItem, error)
	Random(ctx context.Context, userID string) (*nexusmodel.ContentItem, error)
	Export(ctx context.Context, userID string) ([]byte, error)
	Import(ctx context.Context, userID string, payload []byte) (int, error)
}

type keepsakeService struct {
	repo    repository.KeepsakeRepository
	workers *worker.Pool
	mirror  *mirror.Client
}

func NewKeepsakeService(repo repository.KeepsakeRepository, workers *worker.Pool, mc *mirror.Client) KeepsakeService {
	return &keepsakeService{repo: repo, workers: workers, mirror: mc}
}

func (s *keepsakeService) Save(ctx context.Context, userID string, item nexusmodel.ContentItem) (model.Keepsake, error) {
	k := model.FromContentItem(userID, item, time.Now())
	if err := s.repo.Save(ctx, k); err != nil {
		return model.Keepsake{}, err
	}
	s.enqueueMirrorUpsert(k)
	return k, nil
}

// Remove deletes a saved item. Removing something never saved succeeds
// quietly, the mirror delete is idempotent too.
func (s *keepsakeService) Remove(ctx context.Context, userID, itemID string) error {
	if err := s.repo.Remove(ctx, userID, itemID); err != nil {
		return err
	}
	s.enqueueMirrorDelete(userID, itemID)
	return nil
}

func (s *keepsakeService) IsSaved(ctx context.Context, userID, itemID string) (bool, error) {
	return s.repo.Exists(ctx, userID, itemID)
}

func (s *keepsakeService) List(ctx context.Context, userID string) ([]model.Keepsake, error) {
	return s.repo.ListAll(ctx, userID)
}

// ListContent returns the collection in feed form, newest saves first.
func (s *keepsakeService) ListContent(ctx context.Context, userID string) ([]nexusmodel.ContentItem, error) {
	keepsakes, err := s.repo.ListAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	items := make([]nexusmodel.ContentItem, 0, len(keepsakes))
	for _, k := range keepsakes {
		items = append(items, k.ToContentItem())
	}
	return items, nil
}

// Random draws one saved item uniformly, nil when the collection is empty.
func (s *keepsakeService) Random(ctx context.Context, userID string) (*nexusmodel.ContentItem, error) {
	k, err := s.repo.Random(ctx, userID)
	if err != nil || k == nil {
		return nil, err
	}
	item := k.ToContentItem()
	return &item, nil
}

// Export serializes the whole collection into the versioned envelope.
func (s *keepsakeService) Export(ctx context.Context, userID string) ([]byte, error) {
	items, err := s.repo.ListAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Keepsake{}
	}

	out := model.Export{
		Version:    model.ExportVersion,
		ExportedAt: time.Now().UTC(),
		Items:      items,
	}
	return json.MarshalIndent(out, "", "  ")
}

// Import merges the payload's items into the collection, last write wins
// per id; items saved before the import and absent from the payload are
// kept. Only the items array is validated, the version field is
// informational. A payload that fails validation leaves the store
// untouched.
func (s *keepsakeService) Import(ctx context.Context, userID string, payload []byte) (int, error) {
	var in model.Export
	if err := json.Unmarshal(payload, &in); err != nil {
		return 0, ErrCorruptImport
	}
	if in.Items == nil {
		return 0, ErrCorruptImport
	}

	seen := make(map[string]bool, len(in.Items))
	items := make([]model.Keepsake, 0, len(in.Items))
	for _, item := range in.Items {
		if item.ItemID == "" || seen[item.ItemID] {
			continue
		}
		seen[item.ItemID] = true
		if item.SavedAt.IsZero() {
			item.SavedAt = time.Now()
		}
		item.UserID = userID
		items = append(items, item)
	}

	if err := s.repo.UpsertAll(ctx, userID, items); err != nil {
		return 0, err
	}
	for _, item := range items {
		s.enqueueMirrorUpsert(item)
	}
	return len(items), nil
}

func (s *keepsakeService) enqueueMirrorUpsert(k model.Keepsake) {
	if s.workers == nil || s.mirror == nil || !s.mirror.Enabled() {
		return
	}
	row := map[string]interface{}{
		"user_id":       k.UserID,
		"item_id":       k.ItemID,
		"title":         k.Title,
		"type":          k.Type,
		"source":        k.Source,
		"thumbnail_url": k.ThumbnailURL,
		"external_link": k.ExternalLink,
		"saved_at":      k.SavedAt.UTC().Format(time.RFC3339),
	}
	s.workers.Submit(worker.Task{
		Name: fmt.Sprintf("mirror-keepsake:%s:%s", k.UserID, k.ItemID),
		Fn: func(ctx context.Context) error {
			return s.mirror.UpsertKeepsake(row)
		},
	})
}

func (s *keepsakeService) enqueueMirrorDelete(userID, itemID string) {
	if s.workers == nil || s.mirror == nil || !s.mirror.Enabled() {
		return
	}
	s.workers.Submit(worker.Task{
		Name: fmt.Sprintf("mirror-keepsake-delete:%s:%s", userID, itemID),
		Fn: func(ctx context.Context) error {
			return s.mirror.DeleteKeepsake(userID, itemID)
		},
	})
}
