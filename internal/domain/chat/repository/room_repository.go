package repository

import (
	"time"

	"klaus/internal/domain/chat/model"

	"gorm.io/gorm"
)

// RoomRepository persists rooms, participants and messages.
type RoomRepository interface {
	CreateRoom(room *model.Room, participantIDs []string) error
	GetRoomByID(id string) (*model.Room, error)
	GetRoomByPairKey(pairKey string) (*model.Room, error)
	ListRoomsForUser(userID string) ([]model.Room, error)
	ListRoomsByCommunity(communityID string) ([]model.Room, error)
	DeleteRoom(roomID string) error

	IsParticipant(roomID, userID string) (bool, error)
	AddParticipant(roomID, userID string) error
	RemoveParticipant(roomID, userID string) error
	CountParticipants(roomID string) (int64, error)
	ListParticipantIDs(roomID string) ([]string, error)

	CreateMessage(msg *model.Message) error
	GetMessageByID(id string) (*model.Message, error)
	UpdateMessage(msg *model.Message) error
	ListMessages(roomID string, before time.Time, limit int) ([]model.Message, error)
}

type roomRepository struct {
	db *gorm.DB
}

// NewRoomRepository creates the gorm-backed repository.
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{db: db}
}

// CreateRoom writes the room and its participant rows in one transaction.
func (r *roomRepository) CreateRoom(room *model.Room, participantIDs []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return err
		}

		for _, userID := range participantIDs {
			p := model.RoomParticipant{RoomID: room.ID, UserID: userID}
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *roomRepository) GetRoomByID(id string) (*model.Room, error) {
	var room model.Room
	if err := r.db.Preload("Participants").Where("id = ?", id).First(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) GetRoomByPairKey(pairKey string) (*model.Room, error) {
	var room model.Room
	if err := r.db.Preload("Participants").Where("pair_key = ?", pairKey).First(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) ListRoomsForUser(userID string) ([]model.Room, error) {
	var rooms []model.Room
	err := r.db.
		Joins("JOIN room_participants ON room_participants.room_id = rooms.id").
		Where("room_participants.user_id = ? AND room_participants.deleted_at IS NULL", userID).
		Order("last_message_at DESC NULLS LAST").
		Find(&rooms).Error
	return rooms, err
}

func (r *roomRepository) ListRoomsByCommunity(communityID string) ([]model.Room, error) {
	var rooms []model.Room
	err := r.db.Where("community_id = ?", communityID).Order("created_at asc").Find(&rooms).Error
	return rooms, err
}

func (r *roomRepository) DeleteRoom(roomID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", roomID).Delete(&model.RoomParticipant{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", roomID).Delete(&model.Room{}).Error
	})
}

func (r *roomRepository) IsParticipant(roomID, userID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.RoomParticipant{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *roomRepository) AddParticipant(roomID, userID string) error {
	p := model.RoomParticipant{RoomID: roomID, UserID: userID}
	return r.db.Create(&p).Error
}

func (r *roomRepository) RemoveParticipant(roomID, userID string) error {
	return r.db.Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&model.RoomParticipant{}).Error
}

func (r *roomRepository) CountParticipants(roomID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.RoomParticipant{}).
		Where("room_id = ?", roomID).
		Count(&count).Error
	return count, err
}

func (r *roomRepository) ListParticipantIDs(roomID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&model.RoomParticipant{}).
		Where("room_id = ?", roomID).
		Pluck("user_id", &ids).Error
	return ids, err
}

// CreateMessage stores the message and refreshes the room snapshot in the
// same transaction, so sidebar ordering never drifts from the messages.
func (r *roomRepository) CreateMessage(msg *model.Message) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}

		now := time.Now()
		return tx.Model(&model.Room{}).
			Where("id = ?", msg.RoomID).
			Updates(map[string]interface{}{
				"last_message_body":   msg.Body,
				"last_message_sender": msg.SenderID,
				"last_message_at":     now,
			}).Error
	})
}

func (r *roomRepository) GetMessageByID(id string) (*model.Message, error) {
	var msg model.Message
	if err := r.db.Where("id = ?", id).First(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *roomRepository) UpdateMessage(msg *model.Message) error {
	return r.db.Model(msg).
		Select("read_by", "reactions").
		Updates(msg).Error
}

func (r *roomRepository) ListMessages(roomID string, before time.Time, limit int) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.Where("room_id = ? AND created_at < ?", roomID, before).
		Order("created_at desc").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}
