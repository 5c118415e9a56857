package repository

import (
	"context"

	"gorm.io/gorm"
	"inkdesk/internal/model"
)

// MessageRepository 定义了对话消息的持久化操作，消息只追加。
type MessageRepository interface {
	Create(ctx context.Context, message *model.Message) error
	// ListByArticle 按创建时间升序返回文章的全部消息。
	ListByArticle(ctx context.Context, articleID uint) ([]model.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建一个新的 MessageRepository 实例。
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *model.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *messageRepository) ListByArticle(ctx context.Context, articleID uint) ([]model.Message, error) {
	messages := make([]model.Message, 0)
	err := r.db.WithContext(ctx).
		Where("article_id = ?", articleID).
		Order("created_at ASC").Order("id ASC").
		Find(&messages).Error
	return messages, err
}
