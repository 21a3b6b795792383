package repository

import (
	"klaus/internal/domain/social/model"

	"gorm.io/gorm"
)

// FriendRepository persists the friend graph.
type FriendRepository interface {
	CreateRequest(req *model.FriendRequest) error
	GetRequestByID(id string) (*model.FriendRequest, error)
	GetPendingRequest(fromID, toID string) (*model.FriendRequest, error)
	ListIncoming(userID string) ([]model.FriendRequest, error)
	ListOutgoing(userID string) ([]model.FriendRequest, error)
	DeleteRequest(req *model.FriendRequest) error
	AcceptRequest(req *model.FriendRequest) error
	AreFriends(userID, otherID string) (bool, error)
	ListFriendIDs(userID string) ([]string, error)
	RemoveFriendship(userID, otherID string) error
}

type friendRepository struct {
	db *gorm.DB
}

// NewFriendRepository creates the gorm-backed repository.
func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

func (r *friendRepository) CreateRequest(req *model.FriendRequest) error {
	return r.db.Create(req).Error
}

func (r *friendRepository) GetRequestByID(id string) (*model.FriendRequest, error) {
	var req model.FriendRequest
	if err := r.db.Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *friendRepository) GetPendingRequest(fromID, toID string) (*model.FriendRequest, error) {
	var req model.FriendRequest
	err := r.db.Where("from_id = ? AND to_id = ? AND status = ?", fromID, toID, model.RequestPending).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *friendRepository) ListIncoming(userID string) ([]model.FriendRequest, error) {
	var reqs []model.FriendRequest
	err := r.db.Where("to_id = ? AND status = ?", userID, model.RequestPending).
		Order("created_at desc").Find(&reqs).Error
	return reqs, err
}

func (r *friendRepository) ListOutgoing(userID string) ([]model.FriendRequest, error) {
	var reqs []model.FriendRequest
	err := r.db.Where("from_id = ? AND status = ?", userID, model.RequestPending).
		Order("created_at desc").Find(&reqs).Error
	return reqs, err
}

func (r *friendRepository) DeleteRequest(req *model.FriendRequest) error {
	return r.db.Delete(req).Error
}

// AcceptRequest removes the pending request and writes both friendship
// directions in one transaction. Either everything lands or nothing does,
// so no half-accepted state can be observed.
func (r *friendRepository) AcceptRequest(req *model.FriendRequest) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.FriendRequest{}).
			Where("id = ?", req.ID).
			Update("status", model.RequestAccepted).Error; err != nil {
			return err
		}

		edges := []model.Friendship{
			{UserID: req.FromID, FriendID: req.ToID},
			{UserID: req.ToID, FriendID: req.FromID},
		}
		if err := tx.Create(&edges).Error; err != nil {
			return err
		}

		return nil
	})
}

func (r *friendRepository) AreFriends(userID, otherID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Friendship{}).
		Where("user_id = ? AND friend_id = ?", userID, otherID).
		Count(&count).Error
	return count > 0, err
}

func (r *friendRepository) ListFriendIDs(userID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&model.Friendship{}).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Pluck("friend_id", &ids).Error
	return ids, err
}

func (r *friendRepository) RemoveFriendship(userID, otherID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Where(
			"(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			userID, otherID, otherID, userID,
		).Delete(&model.Friendship{}).Error
	})
}
