// Package model 包含了应用的数据模型定义。
package model

import "time"

// User 定义了 users 表的 ORM 模型。密码哈希永远不会被序列化到响应中。
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Name         *string   `gorm:"type:varchar(255)" json:"name"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// PublicUser 是返回给前端的用户信息。
type PublicUser struct {
	ID    uint    `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

// Public 返回不含敏感字段的用户信息。
func (u *User) Public() *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{ID: u.ID, Email: u.Email, Name: u.Name}
}
