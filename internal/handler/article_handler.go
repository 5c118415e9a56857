package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"inkdesk/internal/apperr"
	"inkdesk/internal/middleware"
	"inkdesk/internal/model"
	"inkdesk/internal/service"
)

// ArticleHandler 负责当前用户文章的增删改查。
type ArticleHandler struct {
	articleService service.ArticleService
}

// NewArticleHandler 创建一个新的 ArticleHandler 实例。
func NewArticleHandler(articleService service.ArticleService) *ArticleHandler {
	return &ArticleHandler{articleService: articleService}
}

// ArticleRequest 定义了创建和更新文章的请求体结构。
type ArticleRequest struct {
	Title   string  `json:"title" binding:"required,max=256"`
	Content string  `json:"content"`
	Summary *string `json:"summary"`
}

func (r ArticleRequest) input() model.ArticleInput {
	return model.ArticleInput{Title: r.Title, Content: r.Content, Summary: r.Summary}
}

// parseArticleID 解析路径中的文章 ID。非法 ID 与不存在的文章一样返回 404。
func parseArticleID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		middleware.RespondError(c, apperr.NotFound("Article not found"))
		return 0, false
	}
	return uint(id), true
}

// mustUser 取出当前用户。路由未挂载认证中间件时返回 401。
func mustUser(c *gin.Context) (*model.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.RespondError(c, apperr.ErrUnauthenticated)
		return nil, false
	}
	return user, true
}

// List 返回当前用户的全部文章，最近更新的在前。
func (h *ArticleHandler) List(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	articles, err := h.articleService.List(c.Request.Context(), user.ID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, articles)
}

func (h *ArticleHandler) Get(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	id, ok := parseArticleID(c, "id")
	if !ok {
		return
	}
	article, err := h.articleService.Get(c.Request.Context(), id, user.ID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

func (h *ArticleHandler) Create(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	var req ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apperr.BadRequest("Title is required and must be at most 256 characters"))
		return
	}
	article, err := h.articleService.Create(c.Request.Context(), user.ID, req.input())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// Update 覆盖文章的标题、内容与摘要。先校验所属关系，再校验请求体。
func (h *ArticleHandler) Update(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	id, ok := parseArticleID(c, "id")
	if !ok {
		return
	}
	if _, err := h.articleService.Get(c.Request.Context(), id, user.ID); err != nil {
		middleware.RespondError(c, err)
		return
	}
	var req ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apperr.BadRequest("Title is required and must be at most 256 characters"))
		return
	}
	article, err := h.articleService.Update(c.Request.Context(), id, user.ID, req.input())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

func (h *ArticleHandler) Delete(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	id, ok := parseArticleID(c, "id")
	if !ok {
		return
	}
	article, err := h.articleService.Delete(c.Request.Context(), id, user.ID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}
