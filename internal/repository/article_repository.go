package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"inkdesk/internal/model"
)

// ArticleRepository 定义了文章的持久化操作，所有读写都以所属用户为范围。
// 不属于 userID 的文章与不存在的文章一样返回 gorm.ErrRecordNotFound。
type ArticleRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]model.Article, error)
	FindOwned(ctx context.Context, id, userID uint) (*model.Article, error)
	Create(ctx context.Context, article *model.Article) error
	UpdateOwned(ctx context.Context, id, userID uint, input model.ArticleInput) (*model.Article, error)
	// DeleteOwned 删除文章及其所有对话消息，返回被删除的文章。
	DeleteOwned(ctx context.Context, id, userID uint) (*model.Article, error)
}

type articleRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewArticleRepository 创建一个新的 ArticleRepository 实例。
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db, now: db.Config.NowFunc}
}

// ListByUser 按更新时间倒序返回用户的所有文章。
func (r *articleRepository) ListByUser(ctx context.Context, userID uint) ([]model.Article, error) {
	articles := make([]model.Article, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").Order("id DESC").
		Find(&articles).Error
	return articles, err
}

func (r *articleRepository) FindOwned(ctx context.Context, id, userID uint) (*model.Article, error) {
	return findOwned(r.db.WithContext(ctx), id, userID)
}

func findOwned(db *gorm.DB, id, userID uint) (*model.Article, error) {
	var article model.Article
	err := db.Where("id = ? AND user_id = ?", id, userID).First(&article).Error
	if err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *articleRepository) Create(ctx context.Context, article *model.Article) error {
	return r.db.WithContext(ctx).Create(article).Error
}

// UpdateOwned 用一条带所属用户条件的 UPDATE 覆盖文章字段。
// updated_at 保证严格大于更新前的值，即使两次更新落在同一毫秒内。
func (r *articleRepository) UpdateOwned(ctx context.Context, id, userID uint, input model.ArticleInput) (*model.Article, error) {
	var updated *model.Article
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findOwned(tx, id, userID)
		if err != nil {
			return err
		}
		updatedAt := r.now()
		if !updatedAt.After(current.UpdatedAt) {
			updatedAt = current.UpdatedAt.Add(time.Millisecond)
		}
		res := tx.Model(&model.Article{}).
			Where("id = ? AND user_id = ?", id, userID).
			Updates(map[string]interface{}{
				"title":      input.Title,
				"content":    input.Content,
				"summary":    input.Summary,
				"updated_at": updatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		updated, err = findOwned(tx, id, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *articleRepository) DeleteOwned(ctx context.Context, id, userID uint) (*model.Article, error) {
	var deleted *model.Article
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		article, err := findOwned(tx, id, userID)
		if err != nil {
			return err
		}
		if err := tx.Where("article_id = ?", id).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Article{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		deleted = article
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}
