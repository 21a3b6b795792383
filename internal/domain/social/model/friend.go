package model

import (
	baseModel "klaus/pkg/model"
)

// Friend request statuses.
const (
	RequestPending  = 1
	RequestAccepted = 2
	RequestDeclined = 3
)

// FriendRequest is a pending invitation from one member to another.
// At most one open request exists per ordered pair.
type FriendRequest struct {
	baseModel.BaseModel
	FromID string `gorm:"index:idx_request_pair,unique;size:36" json:"fromId"`
	ToID   string `gorm:"index:idx_request_pair,unique;size:36" json:"toId"`
	Status int    `gorm:"default:1" json:"status"`
}

// Friendship is one direction of an established friendship. Accepting a
// request writes both directions in a single transaction, so the edge
// set is always symmetric.
type Friendship struct {
	baseModel.BaseModel
	UserID   string `gorm:"index:idx_friend_pair,unique;size:36" json:"userId"`
	FriendID string `gorm:"index:idx_friend_pair,unique;size:36" json:"friendId"`
}
