package repository

import (
	"gorm.io/gorm"
	"inkdesk/internal/model"
)

// AutoMigrate 创建或更新所有业务表。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Session{},
		&model.Article{},
		&model.Message{},
	)
}
