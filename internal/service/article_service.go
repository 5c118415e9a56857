package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"inkdesk/internal/apperr"
	"inkdesk/internal/model"
	"inkdesk/internal/repository"
	"inkdesk/pkg/log"
	"inkdesk/pkg/tasks"
)

// errArticleNotFound 同时表示文章不存在和文章不属于当前用户。
var errArticleNotFound = apperr.NotFound("Article not found")

// ArticleService 定义了以所属用户为范围的文章增删改查。
type ArticleService interface {
	List(ctx context.Context, userID uint) ([]model.Article, error)
	Get(ctx context.Context, id, userID uint) (*model.Article, error)
	Create(ctx context.Context, userID uint, input model.ArticleInput) (*model.Article, error)
	Update(ctx context.Context, id, userID uint, input model.ArticleInput) (*model.Article, error)
	Delete(ctx context.Context, id, userID uint) (*model.Article, error)
}

type articleService struct {
	articleRepo repository.ArticleRepository
	dispatcher  tasks.Dispatcher
}

// NewArticleService 创建一个新的 ArticleService。dispatcher 接收文章变更以更新搜索索引。
func NewArticleService(articleRepo repository.ArticleRepository, dispatcher tasks.Dispatcher) ArticleService {
	if dispatcher == nil {
		dispatcher = tasks.NoopDispatcher{}
	}
	return &articleService{articleRepo: articleRepo, dispatcher: dispatcher}
}

func mapArticleErr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errArticleNotFound
	}
	return apperr.Internal(fmt.Errorf("%s: %w", op, err))
}

func (s *articleService) List(ctx context.Context, userID uint) ([]model.Article, error) {
	articles, err := s.articleRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, mapArticleErr(err, "查询文章列表失败")
	}
	return articles, nil
}

func (s *articleService) Get(ctx context.Context, id, userID uint) (*model.Article, error) {
	article, err := s.articleRepo.FindOwned(ctx, id, userID)
	if err != nil {
		return nil, mapArticleErr(err, "查询文章失败")
	}
	return article, nil
}

func (s *articleService) Create(ctx context.Context, userID uint, input model.ArticleInput) (*model.Article, error) {
	article := &model.Article{
		Title:   input.Title,
		Content: input.Content,
		Summary: input.Summary,
		UserID:  userID,
	}
	if err := s.articleRepo.Create(ctx, article); err != nil {
		return nil, apperr.Internal(fmt.Errorf("创建文章失败: %w", err))
	}
	s.dispatch(ctx, upsertTask(article))
	return article, nil
}

func (s *articleService) Update(ctx context.Context, id, userID uint, input model.ArticleInput) (*model.Article, error) {
	article, err := s.articleRepo.UpdateOwned(ctx, id, userID, input)
	if err != nil {
		return nil, mapArticleErr(err, "更新文章失败")
	}
	s.dispatch(ctx, upsertTask(article))
	return article, nil
}

func (s *articleService) Delete(ctx context.Context, id, userID uint) (*model.Article, error) {
	article, err := s.articleRepo.DeleteOwned(ctx, id, userID)
	if err != nil {
		return nil, mapArticleErr(err, "删除文章失败")
	}
	s.dispatch(ctx, tasks.ArticleIndexTask{
		Action:    tasks.ActionDelete,
		ArticleID: article.ID,
		UserID:    article.UserID,
		UpdatedAt: article.UpdatedAt,
	})
	return article, nil
}

func upsertTask(a *model.Article) tasks.ArticleIndexTask {
	return tasks.ArticleIndexTask{
		Action:    tasks.ActionUpsert,
		ArticleID: a.ID,
		UserID:    a.UserID,
		Title:     a.Title,
		Summary:   a.Summary,
		Content:   a.Content,
		UpdatedAt: a.UpdatedAt,
	}
}

// dispatch 投递索引任务。失败只记录日志，不影响文章本身的写入结果。
func (s *articleService) dispatch(ctx context.Context, task tasks.ArticleIndexTask) {
	if err := s.dispatcher.Dispatch(ctx, task); err != nil {
		log.Errorf("[ArticleService] 投递索引任务失败, action: %s, articleID: %d, error: %v", task.Action, task.ArticleID, err)
	}
}
