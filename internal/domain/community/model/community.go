package model

import (
	baseModel "klaus/pkg/model"
)

// OfficialName is the built-in community every member can join. It is
// created on first join rather than seeded at install time.
const OfficialName = "Official Klaus Community"

// Community is a public space with named channels.
type Community struct {
	baseModel.BaseModel
	Name        string `gorm:"size:128;index" json:"name"`
	Description string `gorm:"size:512" json:"description"`
	OwnerID     string `gorm:"index;size:36" json:"ownerId"`
	IconURL     string `gorm:"size:512" json:"iconUrl"`
	Official    bool   `gorm:"default:false" json:"official"`
}

// Membership links a member to a community. The owner always holds a
// membership row; leaving never removes the owner.
type Membership struct {
	baseModel.BaseModel
	CommunityID string `gorm:"index:idx_community_member,unique;size:36" json:"communityId"`
	UserID      string `gorm:"index:idx_community_member,unique;size:36" json:"userId"`
}
