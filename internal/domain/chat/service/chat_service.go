package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"klaus/internal/domain/chat/model"
	"klaus/internal/domain/chat/repository"
	usermodel "klaus/internal/domain/user/model"
	"klaus/pkg/cache"

	"gorm.io/gorm"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrMessageNotFound  = errors.New("message not found")
	ErrNotParticipant   = errors.New("not a participant of this room")
	ErrEmptyMessage     = errors.New("message body is empty")
	ErrSelfChat         = errors.New("cannot open a chat with yourself")
	ErrInvalidSelection = errors.New("invalid selection")
)

// activeChatTTL bounds how long a selected conversation survives without
// activity. The selection is session state, not durable data.
const activeChatTTL = 12 * time.Hour

// Selection is what the member currently has open: nothing, a chat, a
// community, or a community plus one of its channels. Chat and community
// are mutually exclusive, and a channel only makes sense inside its
// community.
type Selection struct {
	ChatID      string `json:"chatId,omitempty"`
	CommunityID string `json:"communityId,omitempty"`
	ChannelID   string `json:"channelId,omitempty"`
}

// Valid rejects selections that mix a chat with a community, or name a
// channel without its community.
func (s Selection) Valid() bool {
	if s.ChatID != "" && (s.CommunityID != "" || s.ChannelID != "") {
		return false
	}
	if s.ChannelID != "" && s.CommunityID == "" {
		return false
	}
	return true
}

// ChatService manages conversations and messages.
type ChatService interface {
	OpenDirectRoom(ctx context.Context, userID, otherID string) (*model.Room, error)
	OpenAssistantRoom(ctx context.Context, userID string) (*model.Room, error)
	CreateGroupRoom(ctx context.Context, ownerID, name string, memberIDs []string) (*model.Room, error)
	GetRoom(ctx context.Context, roomID, userID string) (*model.Room, error)
	Sidebar(ctx context.Context, userID string) ([]model.Room, error)
	SendMessage(ctx context.Context, roomID, senderID, body, kind, mediaURL string) (*model.Message, error)
	ListMessages(ctx context.Context, roomID, userID string, before time.Time, limit int) ([]model.Message, error)
	MarkRead(ctx context.Context, messageID, userID string) (*model.Message, error)
	ToggleReaction(ctx context.Context, messageID, userID, emoji string) (*model.Message, error)
	HideChat(ctx context.Context, roomID, userID string) error
	SetActiveChat(ctx context.Context, userID, roomID string) error
	GetActiveChat(ctx context.Context, userID string) (string, error)
	SetSelection(ctx context.Context, userID string, sel Selection) error
	GetSelection(ctx context.Context, userID string) (Selection, error)
}

type chatService struct {
	repo  repository.RoomRepository
	cache cache.CacheService
}

// NewChatService creates the chat service.
func NewChatService(repo repository.RoomRepository, c cache.CacheService) ChatService {
	return &chatService{repo: repo, cache: c}
}

// OpenDirectRoom returns the direct room for the pair, creating it on
// first use. The pair key makes the operation idempotent: both sides
// resolve to the same room regardless of call order.
func (s *chatService) OpenDirectRoom(ctx context.Context, userID, otherID string) (*model.Room, error) {
	if userID == otherID {
		return nil, ErrSelfChat
	}

	pairKey := model.DirectPairKey(userID, otherID)
	room, err := s.repo.GetRoomByPairKey(pairKey)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	room = &model.Room{
		IsGroup: false,
		PairKey: &pairKey,
	}
	if err := s.repo.CreateRoom(room, []string{userID, otherID}); err != nil {
		// Lost a creation race: the unique pair key means the winner's
		// room is the one to use.
		if existing, lookupErr := s.repo.GetRoomByPairKey(pairKey); lookupErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return room, nil
}

// OpenAssistantRoom returns the member's 1:1 room with the built-in
// assistant, creating it on first use like any other direct room.
func (s *chatService) OpenAssistantRoom(ctx context.Context, userID string) (*model.Room, error) {
	return s.OpenDirectRoom(ctx, userID, usermodel.SystemUserID)
}

// CreateGroupRoom opens an ad-hoc group including the creator.
func (s *chatService) CreateGroupRoom(ctx context.Context, ownerID, name string, memberIDs []string) (*model.Room, error) {
	members := []string{ownerID}
	seen := map[string]bool{ownerID: true}
	for _, id := range memberIDs {
		if !seen[id] {
			members = append(members, id)
			seen[id] = true
		}
	}

	room := &model.Room{
		Name:    strings.TrimSpace(name),
		IsGroup: true,
	}
	if err := s.repo.CreateRoom(room, members); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *chatService) GetRoom(ctx context.Context, roomID, userID string) (*model.Room, error) {
	room, err := s.repo.GetRoomByID(roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	if err := s.requireAccess(room, userID); err != nil {
		return nil, err
	}
	return room, nil
}

// Sidebar lists the caller's conversations, newest activity first.
// Community channels are excluded: they live under their community.
func (s *chatService) Sidebar(ctx context.Context, userID string) ([]model.Room, error) {
	rooms, err := s.repo.ListRoomsForUser(userID)
	if err != nil {
		return nil, err
	}

	out := make([]model.Room, 0, len(rooms))
	for _, r := range rooms {
		if r.CommunityID != nil {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// SendMessage appends a message and refreshes the room snapshot. Media
// kinds carry their asset in mediaURL and may leave the body empty; a
// text message with nothing in it is rejected.
func (s *chatService) SendMessage(ctx context.Context, roomID, senderID, body, kind, mediaURL string) (*model.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" && mediaURL == "" {
		return nil, ErrEmptyMessage
	}
	if kind == "" {
		kind = model.KindText
	}

	room, err := s.repo.GetRoomByID(roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if err := s.requireAccess(room, senderID); err != nil {
		return nil, err
	}

	msg := &model.Message{
		RoomID:   roomID,
		SenderID: senderID,
		Body:     body,
		Kind:     kind,
		MediaURL: mediaURL,
		ReadBy:   []string{senderID},
	}
	if err := s.repo.CreateMessage(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// MarkRead records that the caller has seen a message.
func (s *chatService) MarkRead(ctx context.Context, messageID, userID string) (*model.Message, error) {
	msg, err := s.loadAccessibleMessage(messageID, userID)
	if err != nil {
		return nil, err
	}

	if !msg.MarkRead(userID) {
		return msg, nil
	}
	if err := s.repo.UpdateMessage(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ToggleReaction adds or removes the caller's reaction on a message.
func (s *chatService) ToggleReaction(ctx context.Context, messageID, userID, emoji string) (*model.Message, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return nil, ErrEmptyMessage
	}

	msg, err := s.loadAccessibleMessage(messageID, userID)
	if err != nil {
		return nil, err
	}

	msg.ToggleReaction(emoji, userID)
	if err := s.repo.UpdateMessage(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *chatService) loadAccessibleMessage(messageID, userID string) (*model.Message, error) {
	msg, err := s.repo.GetMessageByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}

	room, err := s.repo.GetRoomByID(msg.RoomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if err := s.requireAccess(room, userID); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *chatService) ListMessages(ctx context.Context, roomID, userID string, before time.Time, limit int) ([]model.Message, error) {
	room, err := s.repo.GetRoomByID(roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if err := s.requireAccess(room, userID); err != nil {
		return nil, err
	}

	if before.IsZero() {
		before = time.Now()
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListMessages(roomID, before, limit)
}

// HideChat removes the caller from a room, deleting the room once the
// last participant leaves. The steps run as a command with an undo so a
// failed delete puts the participant row back instead of leaving the
// caller detached from a room that still exists.
func (s *chatService) HideChat(ctx context.Context, roomID, userID string) error {
	room, err := s.repo.GetRoomByID(roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoomNotFound
		}
		return err
	}
	if room.CommunityID != nil {
		return ErrNotParticipant
	}
	if err := s.requireAccess(room, userID); err != nil {
		return err
	}

	cmd := &hideChatCommand{repo: s.repo, roomID: roomID, userID: userID}
	if err := cmd.Do(); err != nil {
		cmd.Undo()
		return err
	}

	// Drop the selection if the hidden room was active.
	if active, err := s.GetActiveChat(ctx, userID); err == nil && active == roomID {
		_ = s.SetActiveChat(ctx, userID, "")
	}
	return nil
}

// SetActiveChat records which conversation the user has open. An empty
// id clears the selection. Selecting a chat drops any community or
// channel selection.
func (s *chatService) SetActiveChat(ctx context.Context, userID, roomID string) error {
	if roomID == "" {
		return s.SetSelection(ctx, userID, Selection{})
	}
	return s.SetSelection(ctx, userID, Selection{ChatID: roomID})
}

// GetActiveChat returns the selected conversation, or empty when none
// (including when a community is selected instead).
func (s *chatService) GetActiveChat(ctx context.Context, userID string) (string, error) {
	sel, err := s.GetSelection(ctx, userID)
	if err != nil {
		return "", err
	}
	return sel.ChatID, nil
}

// SetSelection stores what the member has open. An empty selection
// clears it.
func (s *chatService) SetSelection(ctx context.Context, userID string, sel Selection) error {
	if !sel.Valid() {
		return ErrInvalidSelection
	}
	if s.cache == nil {
		return nil
	}

	key := "chat:selection:" + userID
	if sel == (Selection{}) {
		return s.cache.Delete(ctx, key)
	}
	return s.cache.Set(ctx, key, sel, activeChatTTL)
}

// GetSelection returns the stored selection, zero when none.
func (s *chatService) GetSelection(ctx context.Context, userID string) (Selection, error) {
	if s.cache == nil {
		return Selection{}, nil
	}

	var sel Selection
	err := s.cache.Get(ctx, "chat:selection:"+userID, &sel)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return Selection{}, nil
		}
		return Selection{}, err
	}
	return sel, nil
}

// requireAccess checks room membership. Community channels are open to
// everyone who can see the community; membership enforcement for those
// lives in the community module.
func (s *chatService) requireAccess(room *model.Room, userID string) error {
	if room.CommunityID != nil {
		return nil
	}

	ok, err := s.repo.IsParticipant(room.ID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotParticipant
	}
	return nil
}

// hideChatCommand is the two-step leave operation with rollback.
type hideChatCommand struct {
	repo   repository.RoomRepository
	roomID string
	userID string

	removed bool
}

func (c *hideChatCommand) Do() error {
	if err := c.repo.RemoveParticipant(c.roomID, c.userID); err != nil {
		return err
	}
	c.removed = true

	remaining, err := c.repo.CountParticipants(c.roomID)
	if err != nil {
		return err
	}
	if remaining == 0 {
		if err := c.repo.DeleteRoom(c.roomID); err != nil {
			return err
		}
	}
	return nil
}

func (c *hideChatCommand) Undo() {
	if c.removed {
		_ = c.repo.AddParticipant(c.roomID, c.userID)
	}
}
