// Package pipeline 定义了文章搜索索引的处理流程。
package pipeline

import (
	"context"
	"fmt"

	"inkdesk/pkg/es"
	"inkdesk/pkg/log"
	"inkdesk/pkg/tasks"
)

// ArticleIndex 是 Indexer 写入的索引，由 es.ArticleIndex 实现。
type ArticleIndex interface {
	IndexArticle(ctx context.Context, doc es.ArticleDocument) error
	DeleteArticle(ctx context.Context, articleID uint) error
}

// Indexer 把文章变更任务应用到搜索索引，实现 tasks.Processor。
type Indexer struct {
	index ArticleIndex
}

// NewIndexer 创建一个新的 Indexer 实例。
func NewIndexer(index ArticleIndex) *Indexer {
	return &Indexer{index: index}
}

// Process 处理单个文章索引任务。
func (p *Indexer) Process(ctx context.Context, task tasks.ArticleIndexTask) error {
	log.Infof("[Indexer] 处理文章索引任务, action: %s, articleID: %d, userID: %d", task.Action, task.ArticleID, task.UserID)

	switch task.Action {
	case tasks.ActionUpsert:
		doc := es.ArticleDocument{
			ArticleID: task.ArticleID,
			UserID:    task.UserID,
			Title:     task.Title,
			Content:   task.Content,
			UpdatedAt: task.UpdatedAt,
		}
		if task.Summary != nil {
			doc.Summary = *task.Summary
		}
		if err := p.index.IndexArticle(ctx, doc); err != nil {
			return fmt.Errorf("写入文章索引失败: %w", err)
		}
	case tasks.ActionDelete:
		if err := p.index.DeleteArticle(ctx, task.ArticleID); err != nil {
			return fmt.Errorf("删除文章索引失败: %w", err)
		}
	default:
		return fmt.Errorf("未知的索引动作: %q", task.Action)
	}
	return nil
}
