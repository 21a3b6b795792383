package service

import (
	"context"
	"errors"

	"klaus/internal/domain/social/model"
	"klaus/internal/domain/social/repository"
	usermodel "klaus/internal/domain/user/model"

	"gorm.io/gorm"
)

var (
	ErrSelfFriend      = errors.New("cannot befriend yourself")
	ErrAlreadyFriends  = errors.New("already friends")
	ErrRequestExists   = errors.New("request already pending")
	ErrRequestNotFound = errors.New("request not found")
	ErrNotRecipient    = errors.New("only the recipient can act on this request")
	ErrSystemUser      = errors.New("the assistant does not take friend requests")
)

// ProfileResolver resolves public profiles for friend lists. Implemented
// by the user service.
type ProfileResolver interface {
	GetProfiles(ctx context.Context, ids []string) ([]usermodel.Profile, error)
}

// RequestView is a friend request joined with the other party's profile.
type RequestView struct {
	ID      string            `json:"id"`
	Profile usermodel.Profile `json:"profile"`
}

// FriendService manages the friend graph.
type FriendService interface {
	SendRequest(ctx context.Context, fromID, toID string) (*model.FriendRequest, error)
	AcceptRequest(ctx context.Context, callerID, requestID string) error
	DeclineRequest(ctx context.Context, callerID, requestID string) error
	CancelRequest(ctx context.Context, callerID, requestID string) error
	ListRequests(ctx context.Context, userID string) (incoming, outgoing []RequestView, err error)
	ListFriends(ctx context.Context, userID string) ([]usermodel.Profile, error)
	RemoveFriend(ctx context.Context, userID, otherID string) error
}

type friendService struct {
	repo     repository.FriendRepository
	profiles ProfileResolver
}

// NewFriendService creates the friend service.
func NewFriendService(repo repository.FriendRepository, profiles ProfileResolver) FriendService {
	return &friendService{repo: repo, profiles: profiles}
}

// SendRequest opens a pending request. When the other side already has a
// pending request toward the caller, the two are made friends instead of
// stacking mirrored requests.
func (s *friendService) SendRequest(ctx context.Context, fromID, toID string) (*model.FriendRequest, error) {
	if fromID == toID {
		return nil, ErrSelfFriend
	}
	if toID == usermodel.SystemUserID {
		return nil, ErrSystemUser
	}

	friends, err := s.repo.AreFriends(fromID, toID)
	if err != nil {
		return nil, err
	}
	if friends {
		return nil, ErrAlreadyFriends
	}

	if _, err := s.repo.GetPendingRequest(fromID, toID); err == nil {
		return nil, ErrRequestExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Mirrored request: the other side already asked, so accept theirs.
	if reverse, err := s.repo.GetPendingRequest(toID, fromID); err == nil {
		if err := s.repo.AcceptRequest(reverse); err != nil {
			return nil, err
		}
		reverse.Status = model.RequestAccepted
		return reverse, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	req := &model.FriendRequest{
		FromID: fromID,
		ToID:   toID,
		Status: model.RequestPending,
	}
	if err := s.repo.CreateRequest(req); err != nil {
		return nil, err
	}
	return req, nil
}

// AcceptRequest establishes the friendship. The repository runs the
// accept as a single transaction.
func (s *friendService) AcceptRequest(ctx context.Context, callerID, requestID string) error {
	req, err := s.loadPending(requestID)
	if err != nil {
		return err
	}
	if req.ToID != callerID {
		return ErrNotRecipient
	}
	return s.repo.AcceptRequest(req)
}

func (s *friendService) DeclineRequest(ctx context.Context, callerID, requestID string) error {
	req, err := s.loadPending(requestID)
	if err != nil {
		return err
	}
	if req.ToID != callerID {
		return ErrNotRecipient
	}
	return s.repo.DeleteRequest(req)
}

// CancelRequest withdraws an outgoing request.
func (s *friendService) CancelRequest(ctx context.Context, callerID, requestID string) error {
	req, err := s.loadPending(requestID)
	if err != nil {
		return err
	}
	if req.FromID != callerID {
		return ErrNotRecipient
	}
	return s.repo.DeleteRequest(req)
}

func (s *friendService) ListRequests(ctx context.Context, userID string) ([]RequestView, []RequestView, error) {
	in, err := s.repo.ListIncoming(userID)
	if err != nil {
		return nil, nil, err
	}
	out, err := s.repo.ListOutgoing(userID)
	if err != nil {
		return nil, nil, err
	}

	incoming, err := s.requestViews(ctx, in, true)
	if err != nil {
		return nil, nil, err
	}
	outgoing, err := s.requestViews(ctx, out, false)
	if err != nil {
		return nil, nil, err
	}
	return incoming, outgoing, nil
}

func (s *friendService) ListFriends(ctx context.Context, userID string) ([]usermodel.Profile, error) {
	ids, err := s.repo.ListFriendIDs(userID)
	if err != nil {
		return nil, err
	}
	return s.profiles.GetProfiles(ctx, ids)
}

func (s *friendService) RemoveFriend(ctx context.Context, userID, otherID string) error {
	friends, err := s.repo.AreFriends(userID, otherID)
	if err != nil {
		return err
	}
	if !friends {
		return ErrRequestNotFound
	}
	return s.repo.RemoveFriendship(userID, otherID)
}

func (s *friendService) loadPending(requestID string) (*model.FriendRequest, error) {
	req, err := s.repo.GetRequestByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if req.Status != model.RequestPending {
		return nil, ErrRequestNotFound
	}
	return req, nil
}

func (s *friendService) requestViews(ctx context.Context, reqs []model.FriendRequest, incoming bool) ([]RequestView, error) {
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		if incoming {
			ids = append(ids, r.FromID)
		} else {
			ids = append(ids, r.ToID)
		}
	}

	profiles, err := s.profiles.GetProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]usermodel.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	views := make([]RequestView, 0, len(reqs))
	for _, r := range reqs {
		otherID := r.FromID
		if !incoming {
			otherID = r.ToID
		}
		if p, ok := byID[otherID]; ok {
			views = append(views, RequestView{ID: r.ID, Profile: p})
		}
	}
	return views, nil
}
