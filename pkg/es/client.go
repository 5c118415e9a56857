// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"inkdesk/internal/config"
	"inkdesk/pkg/log"
)

// ArticleDocument 是存储在 Elasticsearch 中的文章文档。
type ArticleDocument struct {
	ArticleID uint      `json:"article_id"`
	UserID    uint      `json:"user_id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchHit 是一条检索命中。
type SearchHit struct {
	Document  ArticleDocument
	Score     float64
	Highlight []string
}

// ArticleIndex 封装了一个文章索引。
type ArticleIndex struct {
	client    *elasticsearch.Client
	indexName string
}

// NewClient 根据配置创建 Elasticsearch 客户端。
func NewClient(esCfg config.ElasticsearchConfig) (*elasticsearch.Client, error) {
	var addresses []string
	for _, a := range strings.Split(esCfg.Addresses, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addresses = append(addresses, a)
		}
	}
	return elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addresses,
		Username:  esCfg.Username,
		Password:  esCfg.Password,
	})
}

// NewArticleIndex 创建 ArticleIndex。
func NewArticleIndex(client *elasticsearch.Client, indexName string) *ArticleIndex {
	return &ArticleIndex{client: client, indexName: indexName}
}

func documentID(articleID uint) string {
	return fmt.Sprintf("article-%d", articleID)
}

const articleMapping = `{
	"mappings": {
		"properties": {
			"article_id": { "type": "long" },
			"user_id": { "type": "long" },
			"title": { "type": "text" },
			"summary": { "type": "text" },
			"content": { "type": "text" },
			"updated_at": { "type": "date" }
		}
	}
}`

// EnsureIndex 检查索引是否存在，如果不存在则创建它
func (x *ArticleIndex) EnsureIndex(ctx context.Context) error {
	res, err := x.client.Indices.Exists([]string{x.indexName}, x.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("检查索引是否存在时出错: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", x.indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	res, err = x.client.Indices.Create(
		x.indexName,
		x.client.Indices.Create.WithContext(ctx),
		x.client.Indices.Create.WithBody(strings.NewReader(articleMapping)),
	)
	if err != nil {
		return fmt.Errorf("创建索引 '%s' 失败: %w", x.indexName, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("创建索引时 Elasticsearch 返回错误: %s", res.String())
	}
	log.Infof("索引 '%s' 创建成功", x.indexName)
	return nil
}

// IndexArticle 写入或覆盖一篇文章的文档。
func (x *ArticleIndex) IndexArticle(ctx context.Context, doc ArticleDocument) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      x.indexName,
		DocumentID: documentID(doc.ArticleID),
		Body:       bytes.NewReader(docBytes),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, x.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("failed to index article %d: %s", doc.ArticleID, res.String())
	}
	return nil
}

// DeleteArticle 删除一篇文章的文档，文档不存在时视为成功。
func (x *ArticleIndex) DeleteArticle(ctx context.Context, articleID uint) error {
	req := esapi.DeleteRequest{
		Index:      x.indexName,
		DocumentID: documentID(articleID),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, x.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("failed to delete article %d: %s", articleID, res.String())
	}
	return nil
}

// BuildSearchQuery 构建只在 userID 名下文章中检索的查询。
func BuildSearchQuery(query string, userID uint, size int) map[string]interface{} {
	return map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":  query,
						"fields": []string{"title^3", "summary^2", "content"},
					},
				},
				"filter": []map[string]interface{}{
					{"term": map[string]interface{}{"user_id": userID}},
				},
			},
		},
		"highlight": map[string]interface{}{
			"fields": map[string]interface{}{
				"content": map[string]interface{}{"fragment_size": 150, "number_of_fragments": 3},
			},
		},
	}
}

// Search 执行检索，只返回 userID 名下的文章。
func (x *ArticleIndex) Search(ctx context.Context, query string, userID uint, size int) ([]SearchHit, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(BuildSearchQuery(query, userID, size)); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := x.client.Search(
		x.client.Search.WithContext(ctx),
		x.client.Search.WithIndex(x.indexName),
		x.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch returned an error: %s, body: %s", res.Status(), string(bodyBytes))
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source    ArticleDocument     `json:"_source"`
				Score     float64             `json:"_score"`
				Highlight map[string][]string `json:"highlight"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}

	hits := make([]SearchHit, 0, len(esResponse.Hits.Hits))
	for _, h := range esResponse.Hits.Hits {
		// 过滤条件已经限定了 user_id，这里再校验一次
		if h.Source.UserID != userID {
			continue
		}
		hits = append(hits, SearchHit{Document: h.Source, Score: h.Score, Highlight: h.Highlight["content"]})
	}
	return hits, nil
}
