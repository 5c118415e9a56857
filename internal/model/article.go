package model

import "time"

// Article 定义了 articles 表的 ORM 模型，只有所属用户可以读写。
type Article struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"type:varchar(256);not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Summary   *string   `gorm:"type:text" json:"summary"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index" json:"updatedAt"`
}

func (Article) TableName() string {
	return "articles"
}

// ArticleInput 是创建与更新文章时允许写入的字段。
type ArticleInput struct {
	Title   string
	Content string
	Summary *string
}

// ArticleSearchHit 是全文检索返回给前端的单条结果。
type ArticleSearchHit struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Summary   *string   `json:"summary"`
	UpdatedAt time.Time `json:"updatedAt"`
	Score     float64   `json:"score"`
	Highlight []string  `json:"highlight,omitempty"`
}
