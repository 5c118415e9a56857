package service

import (
	"context"
	"fmt"
	"strings"

	"inkdesk/internal/apperr"
	"inkdesk/internal/config"
	"inkdesk/internal/model"
	"inkdesk/internal/repository"
	"inkdesk/pkg/llm"
	"inkdesk/pkg/log"
)

// ChatRequest 是用户针对某篇文章发送的一条消息。
type ChatRequest struct {
	ArticleID uint
	Message   string
	Context   *string // 用户选中的文章片段（可选）
}

// ChatService 定义了文章对话的接口。
type ChatService interface {
	// Send 持久化用户消息，调用补全服务并持久化回复。
	// 补全失败时用户消息仍然保留。
	Send(ctx context.Context, userID uint, req ChatRequest) (*model.ChatExchange, error)
	// ListMessages 按创建时间升序返回文章下的全部消息。
	ListMessages(ctx context.Context, userID, articleID uint) ([]model.Message, error)
}

type chatService struct {
	articleRepo repository.ArticleRepository
	messageRepo repository.MessageRepository
	llmClient   llm.Client
	prompt      config.LLMPromptConfig
	gen         *llm.GenerationParams
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(articleRepo repository.ArticleRepository, messageRepo repository.MessageRepository, llmClient llm.Client, llmCfg config.LLMConfig) ChatService {
	return &chatService{
		articleRepo: articleRepo,
		messageRepo: messageRepo,
		llmClient:   llmClient,
		prompt:      llmCfg.Prompt,
		gen:         llm.GenerationFromConfig(llmCfg.Generation),
	}
}

func (s *chatService) Send(ctx context.Context, userID uint, req ChatRequest) (*model.ChatExchange, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" || req.ArticleID == 0 {
		return nil, apperr.BadRequest("Message and articleId are required")
	}
	if req.Context != nil && strings.TrimSpace(*req.Context) == "" {
		req.Context = nil
	}

	// 1. 只能在自己的文章下对话
	article, err := s.articleRepo.FindOwned(ctx, req.ArticleID, userID)
	if err != nil {
		return nil, mapArticleErr(err, "查询文章失败")
	}

	// 2. 先持久化用户消息，之后的失败不回滚
	userMsg := &model.Message{
		Content:   text,
		Role:      model.RoleUser,
		Context:   req.Context,
		ArticleID: article.ID,
	}
	if err := s.messageRepo.Create(ctx, userMsg); err != nil {
		return nil, apperr.Internal(fmt.Errorf("保存用户消息失败: %w", err))
	}

	// 3. 组装对话历史
	history, err := s.messageRepo.ListByArticle(ctx, article.ID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("查询对话历史失败: %w", err))
	}
	messages := s.composeMessages(article, history, userMsg)

	// 4. 同步调用补全服务
	reply, err := s.llmClient.Chat(ctx, messages, s.gen)
	if err != nil {
		log.Errorf("[ChatService] 调用补全服务失败, articleID: %d, error: %v", article.ID, err)
		return nil, apperr.Internal(fmt.Errorf("调用补全服务失败: %w", err))
	}

	// 5. 持久化助手回复
	aiMsg := &model.Message{
		Content:   reply,
		Role:      model.RoleAI,
		ArticleID: article.ID,
	}
	if err := s.messageRepo.Create(ctx, aiMsg); err != nil {
		return nil, apperr.Internal(fmt.Errorf("保存助手消息失败: %w", err))
	}

	return &model.ChatExchange{UserMessage: userMsg, AIMessage: aiMsg}, nil
}

func (s *chatService) ListMessages(ctx context.Context, userID, articleID uint) ([]model.Message, error) {
	if _, err := s.articleRepo.FindOwned(ctx, articleID, userID); err != nil {
		return nil, mapArticleErr(err, "查询文章失败")
	}
	messages, err := s.messageRepo.ListByArticle(ctx, articleID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("查询对话历史失败: %w", err))
	}
	return messages, nil
}

func (s *chatService) buildSystemMessage(article *model.Article) string {
	var sys strings.Builder
	sys.WriteString(s.prompt.System)
	if s.prompt.IncludeArticle {
		if sys.Len() > 0 {
			sys.WriteString("\n\n")
		}
		sys.WriteString("Article title: ")
		sys.WriteString(article.Title)
		sys.WriteString("\nArticle content (markdown):\n")
		sys.WriteString(article.Content)
	}
	return sys.String()
}

func (s *chatService) buildContextNote(snippet string) string {
	prefix := s.prompt.ContextPrefix
	if prefix == "" {
		prefix = "The user is asking about this part of the article:"
	}
	return prefix + "\n\"\"\"\n" + snippet + "\n\"\"\""
}

// composeMessages 依次拼接 system 指令、历史消息、可选的片段说明以及新的用户消息。
func (s *chatService) composeMessages(article *model.Article, history []model.Message, current *model.Message) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+3)
	if sys := s.buildSystemMessage(article); sys != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: sys})
	}
	for _, m := range history {
		if m.ID == current.ID {
			continue
		}
		msgs = append(msgs, llm.Message{Role: providerRole(m.Role), Content: m.Content})
	}
	if current.Context != nil {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: s.buildContextNote(*current.Context)})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: current.Content})
	return msgs
}

func providerRole(role string) string {
	if role == model.RoleAI {
		return llm.RoleAssistant
	}
	return llm.RoleUser
}
