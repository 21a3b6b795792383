package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"klaus/internal/domain/user/model"
	"klaus/internal/domain/user/repository"
	"klaus/internal/pkg/worker"
	"klaus/pkg/cache"
	"klaus/pkg/mirror"
	"klaus/pkg/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrHandleTaken        = errors.New("handle already taken")
	ErrInvalidHandle      = errors.New("invalid handle format")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidPresence    = errors.New("unknown presence value")
)

const profileCacheTTL = 10 * time.Minute

// UserService manages accounts and public profiles.
type UserService interface {
	Register(email, password, displayName string) (string, *model.User, error)
	Login(email, password string) (string, *model.User, error)
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	GetProfiles(ctx context.Context, ids []string) ([]model.Profile, error)
	UpdateProfile(ctx context.Context, id, displayName, avatarURL, bio, themeSongURL string) (*model.User, error)
	SetPresence(ctx context.Context, id, presence string) error
	ClaimHandle(ctx context.Context, id, handle string) (*model.User, error)
	Directory(ctx context.Context, page, limit int) ([]model.Profile, int64, error)
	Search(ctx context.Context, term string, limit int) ([]model.Profile, error)
	SuggestedUsers(ctx context.Context, callerID string) ([]model.Profile, error)
	DeleteUser(id string) error
}

type userService struct {
	repo   repository.UserRepository
	cache  cache.CacheService
	pool   *worker.Pool
	mirror *mirror.Client
}

// NewUserService creates the user service.
func NewUserService(repo repository.UserRepository, c cache.CacheService, pool *worker.Pool, m *mirror.Client) UserService {
	return &userService{repo: repo, cache: c, pool: pool, mirror: m}
}

// Register creates an account with a generated handle and returns a token.
func (s *userService) Register(email, password, displayName string) (string, *model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if _, err := s.repo.GetByEmail(email); err == nil {
		return "", nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}

	handle, err := s.generateHandle(displayName)
	if err != nil {
		return "", nil, err
	}

	user := &model.User{
		Handle:       handle,
		DisplayName:  displayName,
		SearchName:   strings.ToLower(displayName),
		Email:        email,
		PasswordHash: string(hash),
		Presence:     model.PresenceOffline,
		Status:       model.StatusNormal,
	}
	if err := s.repo.Create(user); err != nil {
		return "", nil, err
	}

	s.enqueueProfileMirror(user)

	token, _, err := utils.GenerateToken(user.ID, user.Handle)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Login verifies credentials and returns a token.
func (s *userService) Login(email, password string) (string, *model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if user.Status == model.StatusDeleted {
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, _, err := utils.GenerateToken(user.ID, user.Handle)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// GetProfile resolves a public profile, serving the built-in assistant
// without touching storage.
func (s *userService) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	if id == model.SystemUserID {
		p := model.SystemProfile()
		return &p, nil
	}

	cacheKey := "user:profile:" + id
	if s.cache != nil {
		var cached model.Profile
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	profile := user.ToProfile()
	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, profile, profileCacheTTL)
	}
	return &profile, nil
}

// GetProfiles resolves profiles in bulk, preserving input order and
// skipping ids that no longer exist.
func (s *userService) GetProfiles(ctx context.Context, ids []string) ([]model.Profile, error) {
	dbIDs := make([]string, 0, len(ids))
	hasSystem := false
	for _, id := range ids {
		if id == model.SystemUserID {
			hasSystem = true
			continue
		}
		dbIDs = append(dbIDs, id)
	}

	users, err := s.repo.GetByIDs(dbIDs)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]model.Profile, len(users))
	for _, u := range users {
		byID[u.ID] = u.ToProfile()
	}

	profiles := make([]model.Profile, 0, len(ids))
	for _, id := range ids {
		if id == model.SystemUserID {
			if hasSystem {
				profiles = append(profiles, model.SystemProfile())
				hasSystem = false
			}
			continue
		}
		if p, ok := byID[id]; ok {
			profiles = append(profiles, p)
		}
	}
	return profiles, nil
}

// UpdateProfile changes the mutable profile fields. SearchName tracks
// the display name so substring search stays case-insensitive.
func (s *userService) UpdateProfile(ctx context.Context, id, displayName, avatarURL, bio, themeSongURL string) (*model.User, error) {
	user, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if displayName != "" {
		user.DisplayName = displayName
		user.SearchName = strings.ToLower(displayName)
	}
	user.AvatarURL = avatarURL
	user.Bio = bio
	user.ThemeSongURL = themeSongURL

	if err := s.repo.Update(user); err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, "user:profile:"+id)
	}
	s.enqueueProfileMirror(user)

	return user, nil
}

// SetPresence switches the caller between online, busy and offline.
func (s *userService) SetPresence(ctx context.Context, id, presence string) error {
	if !model.ValidPresence(presence) {
		return ErrInvalidPresence
	}

	user, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if user.Presence == presence {
		return nil
	}

	user.Presence = presence
	if err := s.repo.Update(user); err != nil {
		return err
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, "user:profile:"+id)
	}
	return nil
}

// ClaimHandle replaces the generated handle with a chosen one.
func (s *userService) ClaimHandle(ctx context.Context, id, handle string) (*model.User, error) {
	handle = strings.ToLower(strings.TrimSpace(handle))
	if !model.ValidHandle(handle) {
		return nil, ErrInvalidHandle
	}

	taken, err := s.repo.HandleExists(handle)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrHandleTaken
	}

	user, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	user.Handle = handle
	if err := s.repo.Update(user); err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, "user:profile:"+id)
	}
	s.enqueueProfileMirror(user)

	return user, nil
}

// Directory lists member profiles, pinning the assistant at the top of
// the first page.
func (s *userService) Directory(ctx context.Context, page, limit int) ([]model.Profile, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	offset := (page - 1) * limit

	users, total, err := s.repo.GetList(offset, limit)
	if err != nil {
		return nil, 0, err
	}

	profiles := make([]model.Profile, 0, len(users)+1)
	if page == 1 {
		profiles = append(profiles, model.SystemProfile())
	}
	for _, u := range users {
		profiles = append(profiles, u.ToProfile())
	}
	return profiles, total, nil
}

// Search finds members. An exact handle match ranks first, then
// substring matches over handle, display name, search name and email.
func (s *userService) Search(ctx context.Context, term string, limit int) ([]model.Profile, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	profiles := make([]model.Profile, 0, limit)
	seen := make(map[string]bool)

	handle := term
	if !strings.HasPrefix(handle, "@") {
		handle = "@" + handle
	}
	if exact, err := s.repo.GetByHandle(handle); err == nil {
		profiles = append(profiles, exact.ToProfile())
		seen[exact.ID] = true
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	users, err := s.repo.SearchSubstring(term, limit)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if seen[u.ID] || len(profiles) >= limit {
			continue
		}
		seen[u.ID] = true
		profiles = append(profiles, u.ToProfile())
	}
	return profiles, nil
}

// SuggestedUsers picks a few random members to befriend, never the
// caller. The assistant has no row, so it is excluded for free.
func (s *userService) SuggestedUsers(ctx context.Context, callerID string) ([]model.Profile, error) {
	users, err := s.repo.Suggested([]string{callerID}, 3)
	if err != nil {
		return nil, err
	}

	profiles := make([]model.Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.ToProfile())
	}
	return profiles, nil
}

func (s *userService) DeleteUser(id string) error {
	user, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	return s.repo.Delete(user)
}

// generateHandle derives a unique handle from the display name. The base
// keeps lowercase letters and digits, padded when too short, then a
// numeric suffix resolves collisions.
func (s *userService) generateHandle(displayName string) (string, error) {
	var b strings.Builder
	for _, r := range strings.ToLower(displayName) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	base := b.String()
	if len(base) < 4 {
		base += "user"
	}
	if len(base) > 11 {
		base = base[:11]
	}

	for attempt := 0; attempt < 5; attempt++ {
		candidate := fmt.Sprintf("@%s%04d", base, rand.Intn(10000))
		taken, err := s.repo.HandleExists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	// Collisions are vanishingly unlikely against a clock suffix.
	return fmt.Sprintf("@%s%d", base, time.Now().UnixMilli()%10000), nil
}

func (s *userService) enqueueProfileMirror(user *model.User) {
	if s.pool == nil || s.mirror == nil || !s.mirror.Enabled() {
		return
	}

	row := map[string]interface{}{
		"id":             user.ID,
		"handle":         user.Handle,
		"display_name":   user.DisplayName,
		"search_name":    user.SearchName,
		"avatar_url":     user.AvatarURL,
		"bio":            user.Bio,
		"theme_song_url": user.ThemeSongURL,
	}
	s.pool.Submit(worker.Task{
		Name: "mirror:profile:" + user.ID,
		Fn: func(ctx context.Context) error {
			return s.mirror.UpsertProfile(row)
		},
	})
}
