package service

import (
	"context"
	"fmt"
	"strings"

	"inkdesk/internal/apperr"
	"inkdesk/internal/model"
	"inkdesk/pkg/es"
	"inkdesk/pkg/log"
)

const (
	defaultSearchSize = 10
	maxSearchSize     = 50
)

// ArticleSearcher 是 SearchService 依赖的检索后端，由 es.ArticleIndex 实现。
type ArticleSearcher interface {
	Search(ctx context.Context, query string, userID uint, size int) ([]es.SearchHit, error)
}

// SearchService 接口定义了对当前用户文章的全文检索。
type SearchService interface {
	Search(ctx context.Context, userID uint, query string, size int) ([]model.ArticleSearchHit, error)
}

type searchService struct {
	searcher ArticleSearcher
}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService(searcher ArticleSearcher) SearchService {
	return &searchService{searcher: searcher}
}

func (s *searchService) Search(ctx context.Context, userID uint, query string, size int) ([]model.ArticleSearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.BadRequest("Query is required")
	}
	if size <= 0 {
		size = defaultSearchSize
	}
	if size > maxSearchSize {
		size = maxSearchSize
	}

	log.Infof("[SearchService] 开始检索, query: '%s', size: %d, userID: %d", query, size, userID)
	hits, err := s.searcher.Search(ctx, query, userID, size)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("检索文章失败: %w", err))
	}

	results := make([]model.ArticleSearchHit, 0, len(hits))
	for _, h := range hits {
		var summary *string
		if h.Document.Summary != "" {
			sm := h.Document.Summary
			summary = &sm
		}
		results = append(results, model.ArticleSearchHit{
			ID:        h.Document.ArticleID,
			Title:     h.Document.Title,
			Summary:   summary,
			UpdatedAt: h.Document.UpdatedAt,
			Score:     h.Score,
			Highlight: h.Highlight,
		})
	}
	return results, nil
}
