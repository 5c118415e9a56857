package model

import "time"

// 消息角色。
const (
	RoleUser = "user"
	RoleAI   = "ai"
)

// Message 是某篇文章下对话中的一条消息，只追加不修改。
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Role      string    `gorm:"type:varchar(16);not null" json:"role"` // "user" 或 "ai"
	Context   *string   `gorm:"type:text" json:"context"`
	ArticleID uint      `gorm:"index;not null" json:"articleId"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (Message) TableName() string {
	return "messages"
}

// ChatExchange 是一次对话往返的结果。
type ChatExchange struct {
	UserMessage *Message `json:"userMessage"`
	AIMessage   *Message `json:"aiMessage"`
}
