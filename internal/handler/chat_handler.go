package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"inkdesk/internal/apperr"
	"inkdesk/internal/middleware"
	"inkdesk/internal/service"
	"inkdesk/pkg/log"
)

// ChatHandler 负责文章内的 AI 对话。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ChatRequest 定义了对话 API 的请求体结构。
type ChatRequest struct {
	Message   string  `json:"message"`
	ArticleID uint    `json:"articleId"`
	Context   *string `json:"context"`
}

// Chat 同步调用补全服务，返回本轮的用户消息和助手回复。
func (h *ChatHandler) Chat(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Chat: Invalid request payload, error: %v", err)
		middleware.RespondError(c, apperr.BadRequest("Message and articleId are required"))
		return
	}

	exchange, err := h.chatService.Send(c.Request.Context(), user.ID, service.ChatRequest{
		ArticleID: req.ArticleID,
		Message:   req.Message,
		Context:   req.Context,
	})
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, exchange)
}

// ArticleChatRequest 是 POST /api/ai/chat/:articleId 的请求体，文章 ID 取自路径。
type ArticleChatRequest struct {
	Content string  `json:"content"`
	Context *string `json:"context"`
}

// ChatForArticle 兼容旧前端的对话接口，语义与 Chat 相同。
func (h *ChatHandler) ChatForArticle(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	articleID, ok := articleParam(c)
	if !ok {
		return
	}
	var req ArticleChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("ChatForArticle: Invalid request payload, error: %v", err)
		middleware.RespondError(c, apperr.BadRequest("Message and articleId are required"))
		return
	}

	exchange, err := h.chatService.Send(c.Request.Context(), user.ID, service.ChatRequest{
		ArticleID: articleID,
		Message:   req.Content,
		Context:   req.Context,
	})
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, exchange)
}

func articleParam(c *gin.Context) (uint, bool) {
	articleID, err := strconv.ParseUint(c.Param("articleId"), 10, 64)
	if err != nil || articleID == 0 {
		middleware.RespondError(c, apperr.NotFound("Article not found"))
		return 0, false
	}
	return uint(articleID), true
}

// ListMessages 返回文章下的全部消息，按时间升序。
func (h *ChatHandler) ListMessages(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	articleID, ok := articleParam(c)
	if !ok {
		return
	}
	messages, err := h.chatService.ListMessages(c.Request.Context(), user.ID, articleID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}
