package model

import (
	"sort"
	"strings"
	"time"

	baseModel "klaus/pkg/model"
)

// Message kinds.
const (
	KindText  = "text"
	KindGif   = "gif"
	KindImage = "image"
	KindAudio = "audio"
)

// Room is a conversation: a direct chat, an ad-hoc group, or a community
// channel. Direct rooms carry a PairKey derived from the sorted participant
// pair, which makes room creation idempotent for a given pair.
type Room struct {
	baseModel.BaseModel
	Name        string  `gorm:"size:128" json:"name"`
	IsGroup     bool    `gorm:"default:false" json:"isGroup"`
	CommunityID *string `gorm:"index;size:36" json:"communityId,omitempty"`
	PairKey     *string `gorm:"uniqueIndex;size:80" json:"-"`

	// Denormalized snapshot of the latest message for sidebar ordering.
	LastMessageBody   string     `gorm:"size:512" json:"lastMessageBody"`
	LastMessageSender string     `gorm:"size:36" json:"lastMessageSender"`
	LastMessageAt     *time.Time `gorm:"index" json:"lastMessageAt"`

	Participants []RoomParticipant `gorm:"foreignKey:RoomID" json:"participants,omitempty"`
}

// RoomParticipant links a member to a room. Community channels keep this
// empty and derive access from community membership.
type RoomParticipant struct {
	baseModel.BaseModel
	RoomID string `gorm:"index:idx_room_member,unique;size:36" json:"roomId"`
	UserID string `gorm:"index:idx_room_member,unique;size:36" json:"userId"`
}

// Message is one entry in a room. Media kinds carry the asset in
// MediaURL and may leave the body empty.
type Message struct {
	baseModel.BaseModel
	RoomID   string `gorm:"index;size:36" json:"roomId"`
	SenderID string `gorm:"size:36" json:"senderId"`
	Body     string `gorm:"size:4096" json:"body"`
	Kind     string `gorm:"size:16;default:text" json:"kind"`
	MediaURL string `gorm:"size:1024" json:"mediaUrl,omitempty"`

	ReadBy    []string            `gorm:"serializer:json" json:"readBy"`
	Reactions map[string][]string `gorm:"serializer:json" json:"reactions"`
}

// MarkRead records that a member has seen the message. Reports whether
// the set changed.
func (m *Message) MarkRead(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return false
		}
	}
	m.ReadBy = append(m.ReadBy, userID)
	return true
}

// ToggleReaction adds the member to the emoji's reactor set, or removes
// them when already present.
func (m *Message) ToggleReaction(emoji, userID string) {
	if m.Reactions == nil {
		m.Reactions = make(map[string][]string)
	}
	users := m.Reactions[emoji]
	for i, id := range users {
		if id == userID {
			users = append(users[:i], users[i+1:]...)
			if len(users) == 0 {
				delete(m.Reactions, emoji)
			} else {
				m.Reactions[emoji] = users
			}
			return
		}
	}
	m.Reactions[emoji] = append(users, userID)
}

// DirectPairKey builds the canonical key for a direct room. The two ids
// are sorted, so the key is identical no matter who opens the chat.
func DirectPairKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, ":")
}
