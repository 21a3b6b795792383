package service

import (
	"context"
	"errors"
	"strings"
	"time"

	chatmodel "klaus/internal/domain/chat/model"
	"klaus/internal/domain/community/model"
	"klaus/internal/domain/community/repository"
	usermodel "klaus/internal/domain/user/model"

	"gorm.io/gorm"
)

var (
	ErrCommunityNotFound = errors.New("community not found")
	ErrNotOwner          = errors.New("only the owner can do this")
	ErrOwnerCannotLeave  = errors.New("the owner cannot leave their community")
	ErrTimeout           = errors.New("community operation timed out")
)

// createJoinTimeout caps how long create and join may take. These two
// operations fan out into channel and membership writes, and the client
// treats anything slower as failed.
const createJoinTimeout = 5 * time.Second

const (
	discoverLimit    = 50
	memberViewLimit  = 50
	defaultChannel   = "general"
	officialChannel  = "public-channel"
	officialAnnounce = "announcements"
)

// ChannelStore is the slice of the chat repository used for community
// channels.
type ChannelStore interface {
	CreateRoom(room *chatmodel.Room, participantIDs []string) error
	ListRoomsByCommunity(communityID string) ([]chatmodel.Room, error)
}

// ProfileResolver resolves public profiles for member lists.
type ProfileResolver interface {
	GetProfiles(ctx context.Context, ids []string) ([]usermodel.Profile, error)
}

// CommunityService manages communities, memberships and channels.
type CommunityService interface {
	Create(ctx context.Context, ownerID, name, description string) (*model.Community, error)
	Update(ctx context.Context, communityID, callerID, name, description, iconURL string) (*model.Community, error)
	Get(ctx context.Context, id string) (*model.Community, error)
	Discover(ctx context.Context) ([]model.Community, error)
	ListJoined(ctx context.Context, userID string) ([]model.Community, error)
	Join(ctx context.Context, communityID, userID string) error
	AddMember(ctx context.Context, communityID, callerID, userID string) error
	JoinOfficial(ctx context.Context, userID string) (*model.Community, error)
	Leave(ctx context.Context, communityID, userID string) error
	Delete(ctx context.Context, communityID, callerID string) error
	Members(ctx context.Context, communityID string) ([]usermodel.Profile, int64, error)
	Channels(ctx context.Context, communityID string) ([]chatmodel.Room, error)
	CreateChannel(ctx context.Context, communityID, callerID, name string) (*chatmodel.Room, error)
}

type communityService struct {
	repo     repository.CommunityRepository
	channels ChannelStore
	profiles ProfileResolver
}

// NewCommunityService creates the community service.
func NewCommunityService(repo repository.CommunityRepository, channels ChannelStore, profiles ProfileResolver) CommunityService {
	return &communityService{repo: repo, channels: channels, profiles: profiles}
}

// Create opens a community with the caller as owner and first member,
// and seeds the default channel. The whole sequence is bounded by the
// create timeout.
func (s *communityService) Create(ctx context.Context, ownerID, name, description string) (*model.Community, error) {
	var community *model.Community
	err := s.withTimeout(ctx, func() error {
		c := &model.Community{
			Name:        strings.TrimSpace(name),
			Description: strings.TrimSpace(description),
			OwnerID:     ownerID,
		}
		if err := s.repo.Create(c); err != nil {
			return err
		}
		if err := s.repo.AddMember(c.ID, ownerID); err != nil {
			return err
		}
		if err := s.createChannelRoom(c.ID, defaultChannel); err != nil {
			return err
		}
		community = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return community, nil
}

// Update changes community metadata, owner only. Empty fields keep
// their current value.
func (s *communityService) Update(ctx context.Context, communityID, callerID, name, description, iconURL string) (*model.Community, error) {
	community, err := s.Get(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if community.OwnerID != callerID {
		return nil, ErrNotOwner
	}

	if name = strings.TrimSpace(name); name != "" {
		community.Name = name
	}
	if description = strings.TrimSpace(description); description != "" {
		community.Description = description
	}
	if iconURL != "" {
		community.IconURL = iconURL
	}

	if err := s.repo.Update(community); err != nil {
		return nil, err
	}
	return community, nil
}

func (s *communityService) Get(ctx context.Context, id string) (*model.Community, error) {
	c, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommunityNotFound
		}
		return nil, err
	}
	return c, nil
}

// Discover lists public communities for browsing.
func (s *communityService) Discover(ctx context.Context) ([]model.Community, error) {
	return s.repo.ListPublic(discoverLimit)
}

func (s *communityService) ListJoined(ctx context.Context, userID string) ([]model.Community, error) {
	return s.repo.ListForUser(userID)
}

// Join adds the caller as a member. Joining twice is a no-op.
func (s *communityService) Join(ctx context.Context, communityID, userID string) error {
	return s.withTimeout(ctx, func() error {
		if _, err := s.repo.GetByID(communityID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCommunityNotFound
			}
			return err
		}

		member, err := s.repo.IsMember(communityID, userID)
		if err != nil {
			return err
		}
		if member {
			return nil
		}
		return s.repo.AddMember(communityID, userID)
	})
}

// AddMember lets the owner bring someone in directly. Adding an
// existing member is a no-op.
func (s *communityService) AddMember(ctx context.Context, communityID, callerID, userID string) error {
	c, err := s.Get(ctx, communityID)
	if err != nil {
		return err
	}
	if c.OwnerID != callerID {
		return ErrNotOwner
	}

	member, err := s.repo.IsMember(communityID, userID)
	if err != nil {
		return err
	}
	if member {
		return nil
	}
	return s.repo.AddMember(communityID, userID)
}

// JoinOfficial joins the built-in community, creating it with its two
// channels on first use.
func (s *communityService) JoinOfficial(ctx context.Context, userID string) (*model.Community, error) {
	var official *model.Community
	err := s.withTimeout(ctx, func() error {
		c, err := s.repo.GetOfficial()
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			c = &model.Community{
				Name:        model.OfficialName,
				Description: "The home of everyone on Klaus.",
				OwnerID:     usermodel.SystemUserID,
				Official:    true,
			}
			if err := s.repo.Create(c); err != nil {
				return err
			}
			if err := s.createChannelRoom(c.ID, officialChannel); err != nil {
				return err
			}
			if err := s.createChannelRoom(c.ID, officialAnnounce); err != nil {
				return err
			}
		}

		member, err := s.repo.IsMember(c.ID, userID)
		if err != nil {
			return err
		}
		if !member {
			if err := s.repo.AddMember(c.ID, userID); err != nil {
				return err
			}
		}
		official = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return official, nil
}

// Leave removes a member. The owner stays no matter what: ownership
// transfer is deletion, not departure.
func (s *communityService) Leave(ctx context.Context, communityID, userID string) error {
	c, err := s.repo.GetByID(communityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommunityNotFound
		}
		return err
	}

	if c.OwnerID == userID {
		return ErrOwnerCannotLeave
	}
	return s.repo.RemoveMember(communityID, userID)
}

// Delete tears the community down. Owner only.
func (s *communityService) Delete(ctx context.Context, communityID, callerID string) error {
	c, err := s.repo.GetByID(communityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommunityNotFound
		}
		return err
	}

	if c.OwnerID != callerID {
		return ErrNotOwner
	}
	return s.repo.Delete(communityID)
}

// Members returns up to the view cap of member profiles plus the total
// member count.
func (s *communityService) Members(ctx context.Context, communityID string) ([]usermodel.Profile, int64, error) {
	ids, err := s.repo.ListMemberIDs(communityID, memberViewLimit)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.repo.CountMembers(communityID)
	if err != nil {
		return nil, 0, err
	}

	profiles, err := s.profiles.GetProfiles(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

func (s *communityService) Channels(ctx context.Context, communityID string) ([]chatmodel.Room, error) {
	return s.channels.ListRoomsByCommunity(communityID)
}

// CreateChannel adds a named channel. Owner only.
func (s *communityService) CreateChannel(ctx context.Context, communityID, callerID, name string) (*chatmodel.Room, error) {
	c, err := s.repo.GetByID(communityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommunityNotFound
		}
		return nil, err
	}
	if c.OwnerID != callerID {
		return nil, ErrNotOwner
	}

	room := &chatmodel.Room{
		Name:        strings.TrimSpace(name),
		IsGroup:     true,
		CommunityID: &communityID,
	}
	if err := s.channels.CreateRoom(room, nil); err != nil {
		return nil, err
	}
	return room, nil
}

// createChannelRoom seeds a channel. Channels carry no participant rows,
// access follows community membership.
func (s *communityService) createChannelRoom(communityID, name string) error {
	room := &chatmodel.Room{
		Name:        name,
		IsGroup:     true,
		CommunityID: &communityID,
	}
	return s.channels.CreateRoom(room, nil)
}

// withTimeout runs fn bounded by the create/join deadline. The work runs
// to completion in its goroutine even on timeout, the caller just stops
// waiting.
func (s *communityService) withTimeout(ctx context.Context, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, createJoinTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ErrTimeout
	}
}
