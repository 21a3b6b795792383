package repository

import (
	"klaus/internal/domain/community/model"

	"gorm.io/gorm"
)

// CommunityRepository persists communities and memberships.
type CommunityRepository interface {
	Create(community *model.Community) error
	Update(community *model.Community) error
	GetByID(id string) (*model.Community, error)
	GetOfficial() (*model.Community, error)
	ListPublic(limit int) ([]model.Community, error)
	ListForUser(userID string) ([]model.Community, error)
	Delete(communityID string) error

	AddMember(communityID, userID string) error
	RemoveMember(communityID, userID string) error
	IsMember(communityID, userID string) (bool, error)
	ListMemberIDs(communityID string, limit int) ([]string, error)
	CountMembers(communityID string) (int64, error)
}

type communityRepository struct {
	db *gorm.DB
}

// NewCommunityRepository creates the gorm-backed repository.
func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

func (r *communityRepository) Create(community *model.Community) error {
	return r.db.Create(community).Error
}

func (r *communityRepository) Update(community *model.Community) error {
	return r.db.Model(community).
		Select("name", "description", "icon_url").
		Updates(community).Error
}

func (r *communityRepository) GetByID(id string) (*model.Community, error) {
	var c model.Community
	if err := r.db.Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *communityRepository) GetOfficial() (*model.Community, error) {
	var c model.Community
	if err := r.db.Where("official = ?", true).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *communityRepository) ListPublic(limit int) ([]model.Community, error) {
	var cs []model.Community
	err := r.db.Order("created_at desc").Limit(limit).Find(&cs).Error
	return cs, err
}

func (r *communityRepository) ListForUser(userID string) ([]model.Community, error) {
	var cs []model.Community
	err := r.db.
		Joins("JOIN memberships ON memberships.community_id = communities.id").
		Where("memberships.user_id = ? AND memberships.deleted_at IS NULL", userID).
		Order("communities.created_at asc").
		Find(&cs).Error
	return cs, err
}

// Delete removes the community and every membership in one transaction.
func (r *communityRepository) Delete(communityID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("community_id = ?", communityID).Delete(&model.Membership{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", communityID).Delete(&model.Community{}).Error
	})
}

func (r *communityRepository) AddMember(communityID, userID string) error {
	m := model.Membership{CommunityID: communityID, UserID: userID}
	return r.db.Create(&m).Error
}

func (r *communityRepository) RemoveMember(communityID, userID string) error {
	return r.db.Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&model.Membership{}).Error
}

func (r *communityRepository) IsMember(communityID, userID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Membership{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *communityRepository) ListMemberIDs(communityID string, limit int) ([]string, error) {
	var ids []string
	err := r.db.Model(&model.Membership{}).
		Where("community_id = ?", communityID).
		Order("created_at asc").
		Limit(limit).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *communityRepository) CountMembers(communityID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Membership{}).
		Where("community_id = ?", communityID).
		Count(&count).Error
	return count, err
}
