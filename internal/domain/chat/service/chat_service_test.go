package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"klaus/internal/domain/chat/model"
	"klaus/pkg/cache"
	baseModel "klaus/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockRoomRepository is a mock of RoomRepository
type MockRoomRepository struct {
	mock.Mock
}

func (m *MockRoomRepository) CreateRoom(room *model.Room, participantIDs []string) error {
	args := m.Called(room, participantIDs)
	return args.Error(0)
}

func (m *MockRoomRepository) GetRoomByID(id string) (*model.Room, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Room), args.Error(1)
}

func (m *MockRoomRepository) GetRoomByPairKey(pairKey string) (*model.Room, error) {
	args := m.Called(pairKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Room), args.Error(1)
}

func (m *MockRoomRepository) ListRoomsForUser(userID string) ([]model.Room, error) {
	args := m.Called(userID)
	return args.Get(0).([]model.Room), args.Error(1)
}

func (m *MockRoomRepository) ListRoomsByCommunity(communityID string) ([]model.Room, error) {
	args := m.Called(communityID)
	return args.Get(0).([]model.Room), args.Error(1)
}

func (m *MockRoomRepository) DeleteRoom(roomID string) error {
	args := m.Called(roomID)
	return args.Error(0)
}

func (m *MockRoomRepository) IsParticipant(roomID, userID string) (bool, error) {
	args := m.Called(roomID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoomRepository) AddParticipant(roomID, userID string) error {
	args := m.Called(roomID, userID)
	return args.Error(0)
}

func (m *MockRoomRepository) RemoveParticipant(roomID, userID string) error {
	args := m.Called(roomID, userID)
	return args.Error(0)
}

func (m *MockRoomRepository) CountParticipants(roomID string) (int64, error) {
	args := m.Called(roomID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRoomRepository) ListParticipantIDs(roomID string) ([]string, error) {
	args := m.Called(roomID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRoomRepository) GetMessageByID(id string) (*model.Message, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MockRoomRepository) UpdateMessage(msg *model.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockRoomRepository) CreateMessage(msg *model.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockRoomRepository) ListMessages(roomID string, before time.Time, limit int) ([]model.Message, error) {
	args := m.Called(roomID, before, limit)
	return args.Get(0).([]model.Message), args.Error(1)
}

func roomWithID(id string) *model.Room {
	return &model.Room{BaseModel: baseModel.BaseModel{ID: id}}
}

func TestDirectPairKey_OrderIndependent(t *testing.T) {
	assert.Equal(t, model.DirectPairKey("b", "a"), model.DirectPairKey("a", "b"))
	assert.Equal(t, "a:b", model.DirectPairKey("b", "a"))
}

func TestOpenDirectRoom_ReturnsExisting(t *testing.T) {
	repo := new(MockRoomRepository)
	svc := NewChatService(repo, nil)

	existing := roomWithID("r1")
	repo.On("GetRoomByPairKey", "u1:u2").Return(existing, nil)

	room, err := svc.OpenDirectRoom(context.Background(), "u2", "u1")

	assert.NoError(t, err)
	assert.Equal(t, "r1", room.ID)
	repo.AssertNotCalled(t, "CreateRoom", mock.Anything, mock.Anything)
}

func TestOpenDirectRoom_CreatesOnFirstUse(t *testing.T) {
	repo := new(MockRoomRepository)
	svc := NewChatService(repo, nil)

	repo.On("GetRoomByPairKey", "u1:u2").Return(nil, gorm.ErrRecordNotFound)
	repo.On("CreateRoom", mock.AnythingOfType("*model.Room"), []string{"u1", "u2"}).Return(nil)

	room, err := svc.OpenDirectRoom(context.Background(), "u1", "u2")

	assert.NoError(t, err)
	assert.False(t, room.IsGroup)
	assert.Equal(t, "u1:u2", *room.PairKey)
	repo.AssertExpectations(t)
}

func TestOpenDirectRoom_CreationRaceFallsBackToWinner(t *testing.T) {
	repo := new(MockRoomRepository)
	svc := NewChatService(repo, nil)

	winner := roomWithID("winner")
	repo.On("GetRoomByPairKey", "u1:u2").Return(nil, gorm.ErrRecordNotFound).Once()
	repo.On("CreateRoom", mock.Anything, mock.Anything).Return(errors.New("duplicate key"))
	repo.On("GetRoomByPairKey", "u1:u2").Return(winner, nil).Once()

	room, err := svc.OpenDirectRoom(context.Background(), "u1", "u2")

	assert.NoError(t, err)
	assert.Equal(t, "winner", room.ID)
}

func TestOpenDirectRoom_Self(t *testing.T) {
	svc := NewChatService(new(MockRoomRepository), nil)

	_, err := svc.OpenDirectRoom(context.Background(), "u1", "u1")
	assert.ErrorIs(t, err, ErrSelfChat)
}

func TestCreateGroupRoom_DeduplicatesMembers(t *testing.T) {
	repo := new(MockRoomRepository)
	svc := NewChatService(repo, nil)

	repo.On("CreateRoom", mock.AnythingOfType("*model.Room"), []string{"u1", "u2", "u3"}).Return(nil)

	room, err := svc.CreateGroupRoom(context.Background(), "u1", "weekend crew", []string{"u2", "u1", "u3", "u2"})

	assert.NoError(t, err)
	assert.True(t, room.IsGroup)
	repo.AssertExpectations(t)
}

func TestSendMessage_RejectsEmptyBody(t *testing.T) {
	repo := new(MockRoomRepository)
	svc := NewChatService(repo, nil)

	_, err := svc.SendMessage(context.Background(), "r1", "u1", "   ", model.KindText, "")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	repo.AssertNotCalled(t, "CreateMessage", mock.Anything)
}

func TestSendMessage_RequiresParticipation(t *testing.T) {
	repo := new(MockRoomRepository)
	svc := NewChatService(repo, nil)

	repo.On("GetRoomByID", "r1").Return(roomWithID("r1"), nil)
	repo.On("IsParticipant", "r1", "intruder").Return(false, nil)

	_, err := svc.SendMessage(context.Background(), "r1", "intruder", "hey", model.KindText, "")
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestSidebar_ExcludesCommunityChannels(t *testing.T) {
	repo := new(MockRoomRepository)
	svc := NewChatService(repo, nil)

	communityID := "c1"
	repo.On("ListRoomsForUser", "u1").Return([]model.Room{
		*roomWithID("dm"),
		{BaseModel: baseModel.BaseModel{ID: "chan"}, CommunityID: &communityID},
		*roomWithID("group"),
	}, nil)

	rooms, err := svc.Sidebar(context.Background(), "u1")

	assert.NoError(t, err)
	assert.Len(t, rooms, 2)
	for _, r := range rooms {
		assert.Nil(t, r.CommunityID)
	}
}

func TestHideChat_DeletesEmptyRoom(t *testing.T) {
	repo := new(MockRoomRepository)
	svc := NewChatService(repo, nil)

	repo.On("GetRoomByID", "r1").Return(roomWithID("r1"), nil)
	repo.On("IsParticipant", "r1", "u1").Return(true, nil)
	repo.On("RemoveParticipant", "r1", "u1").Return(nil)
	repo.On("CountParticipants", "r1").Return(int64(0), nil)
	repo.On("DeleteRoom", "r1").Return(nil)

	err := svc.HideChat(context.Background(), "r1", "u1")

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestHideChat_KeepsRoomWithOthers(t *testing.T) {
	repo := new(MockRoomRepository)
	svc := NewChatService(repo, nil)

	repo.On("GetRoomByID", "r1").Return(roomWithID("r1"), nil)
	repo.On("IsParticipant", "r1", "u1").Return(true, nil)
	repo.On("RemoveParticipant", "r1", "u1").Return(nil)
	repo.On("CountParticipants", "r1").Return(int64(1), nil)

	err := svc.HideChat(context.Background(), "r1", "u1")

	assert.NoError(t, err)
	repo.AssertNotCalled(t, "DeleteRoom", mock.Anything)
}

func TestHideChat_RollsBackOnDeleteFailure(t *testing.T) {
	repo := new(MockRoomRepository)
	svc := NewChatService(repo, nil)

	repo.On("GetRoomByID", "r1").Return(roomWithID("r1"), nil)
	repo.On("IsParticipant", "r1", "u1").Return(true, nil)
	repo.On("RemoveParticipant", "r1", "u1").Return(nil)
	repo.On("CountParticipants", "r1").Return(int64(0), nil)
	repo.On("DeleteRoom", "r1").Return(errors.New("storage down"))
	repo.On("AddParticipant", "r1", "u1").Return(nil)

	err := svc.HideChat(context.Background(), "r1", "u1")

	assert.Error(t, err)
	repo.AssertCalled(t, "AddParticipant", "r1", "u1")
}

func TestActiveChat_RoundTripAndClear(t *testing.T) {
	repo := new(MockRoomRepository)
	svc := NewChatService(repo, cache.NewMemoryCache())
	ctx := context.Background()

	got, err := svc.GetActiveChat(ctx, "u1")
	assert.NoError(t, err)
	assert.Empty(t, got)

	assert.NoError(t, svc.SetActiveChat(ctx, "u1", "r1"))

	got, err = svc.GetActiveChat(ctx, "u1")
	assert.NoError(t, err)
	assert.Equal(t, "r1", got)

	assert.NoError(t, svc.SetActiveChat(ctx, "u1", ""))

	got, err = svc.GetActiveChat(ctx, "u1")
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestSendMessage_MediaKindAllowsEmptyBody(t *testing.T) {
	repo := new(MockRoomRepository)
	svc := NewChatService(repo, nil)

	room := &model.Room{BaseModel: baseModel.BaseModel{ID: "r1"}}
	repo.On("GetRoomByID", "r1").Return(room, nil)
	repo.On("IsParticipant", "r1", "u1").Return(true, nil)
	repo.On("CreateMessage", mock.MatchedBy(func(msg *model.Message) bool {
		return msg.Kind == model.KindGif && msg.MediaURL == "http://gif" &&
			len(msg.ReadBy) == 1 && msg.ReadBy[0] == "u1"
	})).Return(nil)

	msg, err := svc.SendMessage(context.Background(), "r1", "u1", "", model.KindGif, "http://gif")

	assert.NoError(t, err)
	assert.NotNil(t, msg)
	repo.AssertExpectations(t)
}

func TestOpenAssistantRoom_UsesSystemPairKey(t *testing.T) {
	repo := new(MockRoomRepository)
	svc := NewChatService(repo, nil)

	wantKey := model.DirectPairKey("u1", "klaus-ai")
	existing := &model.Room{BaseModel: baseModel.BaseModel{ID: "r-assist"}}
	repo.On("GetRoomByPairKey", wantKey).Return(existing, nil)

	room, err := svc.OpenAssistantRoom(context.Background(), "u1")

	assert.NoError(t, err)
	assert.Equal(t, "r-assist", room.ID)
}

func TestMarkRead_AppendsOnce(t *testing.T) {
	repo := new(MockRoomRepository)
	svc := NewChatService(repo, nil)

	msg := &model.Message{BaseModel: baseModel.BaseModel{ID: "m1"}, RoomID: "r1", ReadBy: []string{"u1"}}
	room := &model.Room{BaseModel: baseModel.BaseModel{ID: "r1"}}
	repo.On("GetMessageByID", "m1").Return(msg, nil)
	repo.On("GetRoomByID", "r1").Return(room, nil)
	repo.On("IsParticipant", "r1", "u2").Return(true, nil)
	repo.On("UpdateMessage", mock.Anything).Return(nil).Once()

	updated, err := svc.MarkRead(context.Background(), "m1", "u2")
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2"}, updated.ReadBy)

	// Second read by the same member does not write again.
	_, err = svc.MarkRead(context.Background(), "m1", "u2")
	assert.NoError(t, err)
	repo.AssertNumberOfCalls(t, "UpdateMessage", 1)
}

func TestToggleReaction_AddsThenRemoves(t *testing.T) {
	repo := new(MockRoomRepository)
	svc := NewChatService(repo, nil)

	msg := &model.Message{BaseModel: baseModel.BaseModel{ID: "m1"}, RoomID: "r1"}
	room := &model.Room{BaseModel: baseModel.BaseModel{ID: "r1"}}
	repo.On("GetMessageByID", "m1").Return(msg, nil)
	repo.On("GetRoomByID", "r1").Return(room, nil)
	repo.On("IsParticipant", "r1", "u1").Return(true, nil)
	repo.On("UpdateMessage", mock.Anything).Return(nil)

	updated, err := svc.ToggleReaction(context.Background(), "m1", "u1", "🔥")
	assert.NoError(t, err)
	assert.Equal(t, []string{"u1"}, updated.Reactions["🔥"])

	updated, err = svc.ToggleReaction(context.Background(), "m1", "u1", "🔥")
	assert.NoError(t, err)
	assert.NotContains(t, updated.Reactions, "🔥")
}

func TestSelection_Invariants(t *testing.T) {
	repo := new(MockRoomRepository)
	svc := NewChatService(repo, cache.NewMemoryCache())
	ctx := context.Background()

	err := svc.SetSelection(ctx, "u1", Selection{ChatID: "r1", CommunityID: "c1"})
	assert.ErrorIs(t, err, ErrInvalidSelection, "chat and community are mutually exclusive")

	err = svc.SetSelection(ctx, "u1", Selection{ChannelID: "ch1"})
	assert.ErrorIs(t, err, ErrInvalidSelection, "a channel needs its community")

	assert.NoError(t, svc.SetSelection(ctx, "u1", Selection{CommunityID: "c1", ChannelID: "ch1"}))
	sel, err := svc.GetSelection(ctx, "u1")
	assert.NoError(t, err)
	assert.Equal(t, Selection{CommunityID: "c1", ChannelID: "ch1"}, sel)

	// Selecting a chat replaces the community selection wholesale.
	assert.NoError(t, svc.SetActiveChat(ctx, "u1", "r1"))
	sel, err = svc.GetSelection(ctx, "u1")
	assert.NoError(t, err)
	assert.Equal(t, Selection{ChatID: "r1"}, sel)
}
