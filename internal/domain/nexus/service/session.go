package service

import (
	"context"
	"sync"

	"klaus/internal/domain/nexus/model"
)

// reelFocusThreshold is the visibility ratio at which a reel item counts
// as focused.
const reelFocusThreshold = 0.6

// FeedSession is one member's position in the feed: current mode, loaded
// items, pagination cursor and the focused reel item. All methods are
// safe for concurrent use.
type FeedSession struct {
	mu sync.Mutex

	mode    model.Mode
	search  string
	page    int
	hasMore bool
	loading bool
	gen     int

	items     []model.ContentItem
	seen      map[string]bool
	focusedID string

	fetch func(ctx context.Context, mode model.Mode, search string, page int) ([]model.ContentItem, error)
}

// SessionState is the snapshot returned to clients.
type SessionState struct {
	Mode      model.Mode          `json:"mode"`
	Search    string              `json:"search"`
	Page      int                 `json:"page"`
	HasMore   bool                `json:"hasMore"`
	FocusedID string              `json:"focusedId,omitempty"`
	Items     []model.ContentItem `json:"items"`
}

func newFeedSession(fetch func(ctx context.Context, mode model.Mode, search string, page int) ([]model.ContentItem, error)) *FeedSession {
	return &FeedSession{
		mode:    model.ModeFeed,
		page:    0,
		hasMore: true,
		seen:    make(map[string]bool),
		fetch:   fetch,
	}
}

// Load resets the session to page one of the given mode and search and
// fetches the first page. Previously loaded items are discarded. The
// reset bumps the generation and releases the in-flight flag, so the
// page-1 fetch always goes out even while an older fetch is pending;
// the superseded result is discarded on arrival.
func (s *FeedSession) Load(ctx context.Context, mode model.Mode, search string) (SessionState, error) {
	s.mu.Lock()
	s.gen++
	s.mode = mode
	s.search = search
	s.page = 0
	s.hasMore = true
	s.loading = false
	s.items = nil
	s.seen = make(map[string]bool)
	s.focusedID = ""
	s.mu.Unlock()

	_, err := s.LoadMore(ctx)
	if err != nil {
		return s.State(), err
	}
	return s.State(), nil
}

// SetMode switches modes, which always resets pagination and discards
// the loaded items. Switching to the current mode reloads as well.
func (s *FeedSession) SetMode(ctx context.Context, mode model.Mode) (SessionState, error) {
	s.mu.Lock()
	search := s.search
	s.mu.Unlock()
	return s.Load(ctx, mode, search)
}

// LoadMore fetches the next page and appends it. A call arriving while a
// fetch is in flight is dropped: it reports false and changes nothing,
// so page numbers can never be consumed twice. Items already loaded in
// this session are skipped.
func (s *FeedSession) LoadMore(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.loading || !s.hasMore {
		s.mu.Unlock()
		return false, nil
	}
	s.loading = true
	gen := s.gen
	nextPage := s.page + 1
	mode, search := s.mode, s.search
	s.mu.Unlock()

	items, err := s.fetch(ctx, mode, search, nextPage)

	s.mu.Lock()
	defer s.mu.Unlock()

	// The session may have been reset while the fetch ran. The reset
	// took over the in-flight flag, so a stale page changes nothing.
	if s.gen != gen {
		return false, nil
	}
	s.loading = false

	if err != nil {
		return false, err
	}
	if s.page != nextPage-1 {
		return false, nil
	}

	s.page = nextPage
	if len(items) == 0 {
		s.hasMore = false
		return true, nil
	}
	// The saved collection is a single local page.
	if mode == model.ModeCollections {
		s.hasMore = false
	}

	for _, item := range items {
		if s.seen[item.ID] {
			continue
		}
		s.seen[item.ID] = true
		s.items = append(s.items, item)
	}
	return true, nil
}

// Focus marks a reel item focused when its visibility crosses the
// threshold, and clears focus when the focused item drops below it.
func (s *FeedSession) Focus(itemID string, visibleRatio float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if visibleRatio >= reelFocusThreshold {
		s.focusedID = itemID
		return
	}
	if s.focusedID == itemID {
		s.focusedID = ""
	}
}

// State snapshots the session.
func (s *FeedSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]model.ContentItem, len(s.items))
	copy(items, s.items)

	return SessionState{
		Mode:      s.mode,
		Search:    s.search,
		Page:      s.page,
		HasMore:   s.hasMore,
		FocusedID: s.focusedID,
		Items:     items,
	}
}

// SessionManager holds one feed session per member.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*FeedSession
	agg      *Aggregator
}

// NewSessionManager creates the manager.
func NewSessionManager(agg *Aggregator) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*FeedSession),
		agg:      agg,
	}
}

// Get returns the member's session, creating it on first use.
func (m *SessionManager) Get(userID string) *FeedSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		return s
	}
	s := newFeedSession(func(ctx context.Context, mode model.Mode, search string, page int) ([]model.ContentItem, error) {
		return m.agg.FetchPage(ctx, userID, mode, search, page)
	})
	m.sessions[userID] = s
	return s
}

// Drop discards a member's session.
func (m *SessionManager) Drop(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}
