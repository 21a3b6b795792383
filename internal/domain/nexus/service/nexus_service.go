package service

import (
	"context"
	"errors"
	"time"

	"klaus/internal/domain/nexus/model"
	"klaus/pkg/cache"
)

// introFlagTTL keeps the first-run flag around effectively forever.
const introFlagTTL = 365 * 24 * time.Hour

// NexusService is the facade over sessions, the aggregator and the
// first-run state.
type NexusService struct {
	sessions *SessionManager
	agg      *Aggregator
	cache    cache.CacheService
}

// NewNexusService creates the service.
func NewNexusService(sessions *SessionManager, agg *Aggregator, c cache.CacheService) *NexusService {
	return &NexusService{sessions: sessions, agg: agg, cache: c}
}

// Load starts or restarts a member's feed session.
func (s *NexusService) Load(ctx context.Context, userID string, mode model.Mode, search string) (SessionState, error) {
	return s.sessions.Get(userID).Load(ctx, mode, search)
}

// State returns the current session snapshot.
func (s *NexusService) State(userID string) SessionState {
	return s.sessions.Get(userID).State()
}

// LoadMore advances the session one page. The loaded flag is false when
// the call was dropped by the in-flight guard or the feed is exhausted.
func (s *NexusService) LoadMore(ctx context.Context, userID string) (bool, SessionState, error) {
	session := s.sessions.Get(userID)
	loaded, err := session.LoadMore(ctx)
	return loaded, session.State(), err
}

// SetMode switches the session mode.
func (s *NexusService) SetMode(ctx context.Context, userID string, mode model.Mode) (SessionState, error) {
	return s.sessions.Get(userID).SetMode(ctx, mode)
}

// Focus updates the focused reel item.
func (s *NexusService) Focus(userID, itemID string, ratio float64) SessionState {
	session := s.sessions.Get(userID)
	session.Focus(itemID, ratio)
	return session.State()
}

// RandomContent draws one surprise item.
func (s *NexusService) RandomContent(ctx context.Context, userID string) (*model.ContentItem, error) {
	return s.agg.RandomContent(ctx, userID)
}

// Rails returns the themed strips for a mode.
func (s *NexusService) Rails(ctx context.Context, mode model.Mode) []model.Rail {
	return s.agg.Rails(ctx, mode)
}

// HasSeenIntro reports whether the member dismissed the first-run intro.
func (s *NexusService) HasSeenIntro(ctx context.Context, userID string) (bool, error) {
	if s.cache == nil {
		return false, nil
	}

	var seen bool
	err := s.cache.Get(ctx, "nexus:intro:"+userID, &seen)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return false, nil
		}
		return false, err
	}
	return seen, nil
}

// MarkIntroSeen records the dismissal.
func (s *NexusService) MarkIntroSeen(ctx context.Context, userID string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Set(ctx, "nexus:intro:"+userID, true, introFlagTTL)
}
