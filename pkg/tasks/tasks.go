// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

import (
	"context"
	"time"
)

// 文章索引任务的动作类型。
const (
	ActionUpsert = "upsert"
	ActionDelete = "delete"
)

// ArticleIndexTask represents a change to an article that the search index must apply.
type ArticleIndexTask struct {
	Action    string    `json:"action"`
	ArticleID uint      `json:"article_id"`
	UserID    uint      `json:"user_id"`
	Title     string    `json:"title,omitempty"`
	Summary   *string   `json:"summary,omitempty"`
	Content   string    `json:"content,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Processor 是任何可以处理文章索引任务的组件。
type Processor interface {
	Process(ctx context.Context, task ArticleIndexTask) error
}

// Dispatcher 把任务交给下游（Kafka 或直接处理）。
type Dispatcher interface {
	Dispatch(ctx context.Context, task ArticleIndexTask) error
}

// InlineDispatcher 在当前 goroutine 中直接调用 Processor，用于未启用 Kafka 的部署。
type InlineDispatcher struct {
	Processor Processor
}

func (d InlineDispatcher) Dispatch(ctx context.Context, task ArticleIndexTask) error {
	return d.Processor.Process(ctx, task)
}

// NoopDispatcher 丢弃所有任务，用于未启用搜索的部署。
type NoopDispatcher struct{}

func (NoopDispatcher) Dispatch(context.Context, ArticleIndexTask) error { return nil }
