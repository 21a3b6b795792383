package service

import (
	"context"
	"math/rand"
	"sync"

	"klaus/internal/domain/nexus/model"
	"klaus/internal/pkg/middleware"
	"klaus/pkg/logger"

	"go.uber.org/zap"
)

// randomTopics seed the surprise-me picker when the keepsake path is not
// taken.
var randomTopics = []string{"tedtalks", "cyberpunk", "smithsonian", "robotics", "europeana"}

const railItemCount = 6

// ArchiveFetcher is the archive.org client surface the aggregator needs.
type ArchiveFetcher interface {
	Fetch(ctx context.Context, mode model.Mode, search string, page, limit int) ([]model.ContentItem, error)
	FetchCollection(ctx context.Context, collection string, limit int) ([]model.ContentItem, error)
}

// SpaceFetcher is the space library client surface.
type SpaceFetcher interface {
	Fetch(ctx context.Context, mode model.Mode, search string) ([]model.ContentItem, error)
}

// KeepsakeSource reads a member's saved items: a uniformly random draw
// for the surprise picker (nil when the store is empty) and the full
// collection for the collections view.
type KeepsakeSource interface {
	Random(ctx context.Context, userID string) (*model.ContentItem, error)
	ListContent(ctx context.Context, userID string) ([]model.ContentItem, error)
}

// Aggregator merges the content upstreams into feed pages.
type Aggregator struct {
	archive   ArchiveFetcher
	space     SpaceFetcher
	keepsakes KeepsakeSource
}

// NewAggregator creates the aggregator.
func NewAggregator(archive ArchiveFetcher, space SpaceFetcher, keepsakes KeepsakeSource) *Aggregator {
	return &Aggregator{archive: archive, space: space, keepsakes: keepsakes}
}

// FetchPage pulls one page of the feed for a member. Both upstreams are
// queried concurrently and a failed upstream contributes an empty slice
// rather than failing the page. The space library only joins the first
// page and never joins library mode. Page one is shuffled so the two
// sources interleave, later pages keep upstream order. Collections mode
// bypasses the upstreams entirely: page one is the member's saved items
// in saved order, later pages are empty.
func (a *Aggregator) FetchPage(ctx context.Context, userID string, mode model.Mode, search string, page int) ([]model.ContentItem, error) {
	if page <= 0 {
		page = 1
	}

	if mode == model.ModeCollections {
		if page > 1 || a.keepsakes == nil {
			return nil, nil
		}
		return a.keepsakes.ListContent(ctx, userID)
	}

	limit := mode.PageLimit()

	var (
		wg         sync.WaitGroup
		archiveOut []model.ContentItem
		spaceOut   []model.ContentItem
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		items, err := a.archive.Fetch(ctx, mode, search, page, limit)
		middleware.ObserveUpstream("archive", err)
		if err != nil {
			logger.Warn("archive fetch failed", zap.String("mode", string(mode)), zap.Error(err))
			return
		}
		archiveOut = items
	}()

	if mode != model.ModeLibrary && page == 1 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			items, err := a.space.Fetch(ctx, mode, search)
			middleware.ObserveUpstream("space", err)
			if err != nil {
				logger.Warn("space fetch failed", zap.String("mode", string(mode)), zap.Error(err))
				return
			}
			spaceOut = items
		}()
	}

	wg.Wait()

	merged := make([]model.ContentItem, 0, len(archiveOut)+len(spaceOut))
	merged = append(merged, archiveOut...)
	merged = append(merged, spaceOut...)

	if page == 1 {
		rand.Shuffle(len(merged), func(i, j int) {
			merged[i], merged[j] = merged[j], merged[i]
		})
	}
	return merged, nil
}

// RandomContent picks one surprise item: half the time a saved keepsake,
// otherwise a uniform draw from a random curated topic. Nil when nothing
// is available.
func (a *Aggregator) RandomContent(ctx context.Context, userID string) (*model.ContentItem, error) {
	if a.keepsakes != nil && rand.Intn(2) == 0 {
		item, err := a.keepsakes.Random(ctx, userID)
		if err == nil && item != nil {
			return item, nil
		}
	}

	topic := randomTopics[rand.Intn(len(randomTopics))]
	items, err := a.archive.Fetch(ctx, model.ModeGeneral, topic, 1, 10)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	pick := items[rand.Intn(len(items))]
	return &pick, nil
}

// Rails returns the themed strips for a mode. Library mode reads books,
// so it gets the Gutenberg rail; everything else gets the discovery pair.
func (a *Aggregator) Rails(ctx context.Context, mode model.Mode) []model.Rail {
	type spec struct {
		title      string
		collection string
	}

	var specs []spec
	if mode == model.ModeLibrary {
		specs = []spec{{"Gutenberg", "gutenberg"}}
	} else {
		specs = []spec{
			{"TED Ideas", "tedtalks"},
			{"Smithsonian", "smithsonian"},
		}
	}

	rails := make([]model.Rail, len(specs))
	var wg sync.WaitGroup
	for i, sp := range specs {
		wg.Add(1)
		go func(i int, sp spec) {
			defer wg.Done()
			items, err := a.archive.FetchCollection(ctx, sp.collection, railItemCount)
			middleware.ObserveUpstream("archive", err)
			if err != nil {
				logger.Warn("rail fetch failed", zap.String("collection", sp.collection), zap.Error(err))
				items = nil
			}
			rails[i] = model.Rail{Title: sp.title, Items: items}
		}(i, sp)
	}
	wg.Wait()

	return rails
}
