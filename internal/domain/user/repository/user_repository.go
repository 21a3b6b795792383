package repository

import (
	"klaus/internal/domain/user/model"

	"gorm.io/gorm"
)

// UserRepository defines persistence for accounts.
type UserRepository interface {
	Create(user *model.User) error
	GetByID(id string) (*model.User, error)
	GetByEmail(email string) (*model.User, error)
	GetByHandle(handle string) (*model.User, error)
	GetByIDs(ids []string) ([]model.User, error)
	GetList(offset, limit int) ([]model.User, int64, error)
	SearchByHandle(prefix string, limit int) ([]model.User, error)
	SearchSubstring(term string, limit int) ([]model.User, error)
	Suggested(excludeIDs []string, limit int) ([]model.User, error)
	HandleExists(handle string) (bool, error)
	Update(user *model.User) error
	Delete(user *model.User) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates the gorm-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

func (r *userRepository) GetByID(id string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByHandle(handle string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("handle = ?", handle).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByIDs(ids []string) ([]model.User, error) {
	var users []model.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) GetList(offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	if err := r.db.Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.Order("display_name asc").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepository) SearchByHandle(prefix string, limit int) ([]model.User, error) {
	var users []model.User
	if err := r.db.Where("handle LIKE ?", prefix+"%").Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) SearchSubstring(term string, limit int) ([]model.User, error) {
	var users []model.User
	pattern := "%" + term + "%"
	err := r.db.
		Where("handle LIKE ? OR search_name LIKE ? OR display_name LIKE ? OR email LIKE ?",
			pattern, pattern, pattern, pattern).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Suggested(excludeIDs []string, limit int) ([]model.User, error) {
	var users []model.User
	q := r.db.Order("RANDOM()").Limit(limit)
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) HandleExists(handle string) (bool, error) {
	var count int64
	if err := r.db.Model(&model.User{}).Where("handle = ?", handle).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) Update(user *model.User) error {
	return r.db.Save(user).Error
}

func (r *userRepository) Delete(user *model.User) error {
	return r.db.Delete(user).Error
}
