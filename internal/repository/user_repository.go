// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"inkdesk/internal/model"
)

// ErrEmailTaken 表示邮箱的唯一索引冲突，通常发生在并发注册同一邮箱时。
var ErrEmailTaken = errors.New("email already registered")

// UserRepository 接口定义了用户数据的持久化操作。
type UserRepository interface {
	// Create 写入新用户，邮箱冲突时返回 ErrEmailTaken。
	Create(ctx context.Context, user *model.User) error
	// FindByEmail 按规范化后的邮箱查找用户，不存在时返回 gorm.ErrRecordNotFound。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建一个新的 UserRepository 实例。
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrEmailTaken
	}
	return err
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user := new(model.User)
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}
