package service

import (
	"context"
	"testing"

	"klaus/internal/domain/social/model"
	usermodel "klaus/internal/domain/user/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockFriendRepository is a mock of FriendRepository
type MockFriendRepository struct {
	mock.Mock
}

func (m *MockFriendRepository) CreateRequest(req *model.FriendRequest) error {
	args := m.Called(req)
	return args.Error(0)
}

func (m *MockFriendRepository) GetRequestByID(id string) (*model.FriendRequest, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FriendRequest), args.Error(1)
}

func (m *MockFriendRepository) GetPendingRequest(fromID, toID string) (*model.FriendRequest, error) {
	args := m.Called(fromID, toID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FriendRequest), args.Error(1)
}

func (m *MockFriendRepository) ListIncoming(userID string) ([]model.FriendRequest, error) {
	args := m.Called(userID)
	return args.Get(0).([]model.FriendRequest), args.Error(1)
}

func (m *MockFriendRepository) ListOutgoing(userID string) ([]model.FriendRequest, error) {
	args := m.Called(userID)
	return args.Get(0).([]model.FriendRequest), args.Error(1)
}

func (m *MockFriendRepository) DeleteRequest(req *model.FriendRequest) error {
	args := m.Called(req)
	return args.Error(0)
}

func (m *MockFriendRepository) AcceptRequest(req *model.FriendRequest) error {
	args := m.Called(req)
	return args.Error(0)
}

func (m *MockFriendRepository) AreFriends(userID, otherID string) (bool, error) {
	args := m.Called(userID, otherID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFriendRepository) ListFriendIDs(userID string) ([]string, error) {
	args := m.Called(userID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockFriendRepository) RemoveFriendship(userID, otherID string) error {
	args := m.Called(userID, otherID)
	return args.Error(0)
}

// MockProfileResolver is a mock of ProfileResolver
type MockProfileResolver struct {
	mock.Mock
}

func (m *MockProfileResolver) GetProfiles(ctx context.Context, ids []string) ([]usermodel.Profile, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]usermodel.Profile), args.Error(1)
}

func TestSendRequest_Self(t *testing.T) {
	repo := new(MockFriendRepository)
	svc := NewFriendService(repo, new(MockProfileResolver))

	_, err := svc.SendRequest(context.Background(), "u1", "u1")
	assert.ErrorIs(t, err, ErrSelfFriend)
}

func TestSendRequest_SystemUser(t *testing.T) {
	repo := new(MockFriendRepository)
	svc := NewFriendService(repo, new(MockProfileResolver))

	_, err := svc.SendRequest(context.Background(), "u1", usermodel.SystemUserID)
	assert.ErrorIs(t, err, ErrSystemUser)
}

func TestSendRequest_AlreadyFriends(t *testing.T) {
	repo := new(MockFriendRepository)
	svc := NewFriendService(repo, new(MockProfileResolver))

	repo.On("AreFriends", "u1", "u2").Return(true, nil)

	_, err := svc.SendRequest(context.Background(), "u1", "u2")
	assert.ErrorIs(t, err, ErrAlreadyFriends)
	repo.AssertNotCalled(t, "CreateRequest", mock.Anything)
}

func TestSendRequest_Duplicate(t *testing.T) {
	repo := new(MockFriendRepository)
	svc := NewFriendService(repo, new(MockProfileResolver))

	repo.On("AreFriends", "u1", "u2").Return(false, nil)
	repo.On("GetPendingRequest", "u1", "u2").Return(&model.FriendRequest{FromID: "u1", ToID: "u2"}, nil)

	_, err := svc.SendRequest(context.Background(), "u1", "u2")
	assert.ErrorIs(t, err, ErrRequestExists)
}

func TestSendRequest_MirroredRequestAccepts(t *testing.T) {
	repo := new(MockFriendRepository)
	svc := NewFriendService(repo, new(MockProfileResolver))

	reverse := &model.FriendRequest{FromID: "u2", ToID: "u1", Status: model.RequestPending}
	repo.On("AreFriends", "u1", "u2").Return(false, nil)
	repo.On("GetPendingRequest", "u1", "u2").Return(nil, gorm.ErrRecordNotFound)
	repo.On("GetPendingRequest", "u2", "u1").Return(reverse, nil)
	repo.On("AcceptRequest", reverse).Return(nil)

	req, err := svc.SendRequest(context.Background(), "u1", "u2")

	assert.NoError(t, err)
	assert.Equal(t, model.RequestAccepted, req.Status)
	repo.AssertNotCalled(t, "CreateRequest", mock.Anything)
}

func TestSendRequest_CreatesPending(t *testing.T) {
	repo := new(MockFriendRepository)
	svc := NewFriendService(repo, new(MockProfileResolver))

	repo.On("AreFriends", "u1", "u2").Return(false, nil)
	repo.On("GetPendingRequest", "u1", "u2").Return(nil, gorm.ErrRecordNotFound)
	repo.On("GetPendingRequest", "u2", "u1").Return(nil, gorm.ErrRecordNotFound)
	repo.On("CreateRequest", mock.AnythingOfType("*model.FriendRequest")).Return(nil)

	req, err := svc.SendRequest(context.Background(), "u1", "u2")

	assert.NoError(t, err)
	assert.Equal(t, model.RequestPending, req.Status)
	repo.AssertExpectations(t)
}

func TestAcceptRequest_OnlyRecipient(t *testing.T) {
	repo := new(MockFriendRepository)
	svc := NewFriendService(repo, new(MockProfileResolver))

	req := &model.FriendRequest{FromID: "u1", ToID: "u2", Status: model.RequestPending}
	repo.On("GetRequestByID", "r1").Return(req, nil)

	err := svc.AcceptRequest(context.Background(), "u1", "r1")
	assert.ErrorIs(t, err, ErrNotRecipient)
	repo.AssertNotCalled(t, "AcceptRequest", mock.Anything)
}

func TestAcceptRequest_AlreadyHandled(t *testing.T) {
	repo := new(MockFriendRepository)
	svc := NewFriendService(repo, new(MockProfileResolver))

	req := &model.FriendRequest{FromID: "u1", ToID: "u2", Status: model.RequestAccepted}
	repo.On("GetRequestByID", "r1").Return(req, nil)

	err := svc.AcceptRequest(context.Background(), "u2", "r1")
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestListFriends_ResolvesProfiles(t *testing.T) {
	repo := new(MockFriendRepository)
	profiles := new(MockProfileResolver)
	svc := NewFriendService(repo, profiles)

	repo.On("ListFriendIDs", "u1").Return([]string{"u2", "u3"}, nil)
	profiles.On("GetProfiles", mock.Anything, []string{"u2", "u3"}).Return([]usermodel.Profile{
		{ID: "u2", Handle: "@bob5678"},
		{ID: "u3", Handle: "@eve4321"},
	}, nil)

	list, err := svc.ListFriends(context.Background(), "u1")

	assert.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, "u2", list[0].ID)
}

func TestRemoveFriend_NotFriends(t *testing.T) {
	repo := new(MockFriendRepository)
	svc := NewFriendService(repo, new(MockProfileResolver))

	repo.On("AreFriends", "u1", "u2").Return(false, nil)

	err := svc.RemoveFriend(context.Background(), "u1", "u2")
	assert.ErrorIs(t, err, ErrRequestNotFound)
	repo.AssertNotCalled(t, "RemoveFriendship", mock.Anything, mock.Anything)
}
