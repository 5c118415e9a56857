package model

import "time"

// Session 记录一个不透明的会话令牌及其所属用户和过期时间。
// 一个用户可以同时持有多个会话。
type Session struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Token     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expiresAt"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`

	User User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Session) TableName() string {
	return "sessions"
}

// Expired 报告会话在 now 时刻是否已过期。
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}
