package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"inkdesk/internal/model"
)

// SessionRepository 定义了会话的持久化操作。
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	// FindByToken 按令牌查找会话并预加载所属用户。
	FindByToken(ctx context.Context, token string) (*model.Session, error)
	DeleteByID(ctx context.Context, id uint) error
	// DeleteByToken 删除令牌对应的会话，返回是否真的删除了记录。
	DeleteByToken(ctx context.Context, token string) (bool, error)
	// DeleteExpired 删除 expires_at 早于 before 的所有会话，返回删除条数。
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建一个新的 SessionRepository 实例。
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(session).Error
}

func (r *sessionRepository) FindByToken(ctx context.Context, token string) (*model.Session, error) {
	var session model.Session
	err := r.db.WithContext(ctx).Preload("User").Where("token = ?", token).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) DeleteByID(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Session{}, id).Error
}

func (r *sessionRepository) DeleteByToken(ctx context.Context, token string) (bool, error) {
	res := r.db.WithContext(ctx).Where("token = ?", token).Delete(&model.Session{})
	return res.RowsAffected > 0, res.Error
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", before.UTC()).Delete(&model.Session{})
	return res.RowsAffected, res.Error
}
