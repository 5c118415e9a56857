// Package router 负责组装 Gin 引擎和全部路由。
package router

import (
	"github.com/gin-gonic/gin"
	"inkdesk/internal/handler"
	"inkdesk/internal/middleware"
	"inkdesk/internal/service"
)

// Services 汇总了路由需要的业务服务。SearchService 与 UploadService 可以为 nil，
// 为 nil 时对应路由不注册。
type Services struct {
	UserService    service.UserService
	ArticleService service.ArticleService
	ChatService    service.ChatService
	SearchService  service.SearchService
	UploadService  service.UploadService
}

// Options 控制 cookie 与前端资源的行为。
type Options struct {
	Cookie      middleware.CookieConfig
	StaticDir   string
	DevAssetURL string
}

// New 创建路由引擎并注册所有路由。
func New(svc Services, opts Options) (*gin.Engine, error) {
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery())

	authHandler := handler.NewAuthHandler(svc.UserService, opts.Cookie)
	articleHandler := handler.NewArticleHandler(svc.ArticleService)
	chatHandler := handler.NewChatHandler(svc.ChatService)
	requireAuth := middleware.AuthMiddleware(svc.UserService, opts.Cookie)

	api := r.Group("/api")
	{
		api.GET("/health", handler.Health)

		// Auth 路由组，无需认证
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.SignUp)
			auth.POST("/signin", authHandler.SignIn)
			auth.POST("/signout", authHandler.SignOut)
			auth.GET("/me", authHandler.Me)
		}

		// Article 路由组，需要认证
		articles := api.Group("/articles")
		articles.Use(requireAuth)
		{
			articles.GET("", articleHandler.List)
			if svc.SearchService != nil {
				// 静态路径优先于 /:id 匹配
				articles.GET("/search", handler.NewSearchHandler(svc.SearchService).Search)
			}
			articles.GET("/:id", articleHandler.Get)
			articles.POST("", articleHandler.Create)
			articles.PUT("/:id", articleHandler.Update)
			articles.DELETE("/:id", articleHandler.Delete)
		}

		// AI 对话路由组，需要认证
		ai := api.Group("/ai")
		ai.Use(requireAuth)
		{
			ai.POST("/chat", chatHandler.Chat)
			ai.POST("/chat/:articleId", chatHandler.ChatForArticle)
			ai.GET("/messages/:articleId", chatHandler.ListMessages)
		}

		if svc.UploadService != nil {
			uploadHandler := handler.NewUploadHandler(svc.UploadService)
			uploads := api.Group("/uploads")
			uploads.Use(requireAuth)
			{
				uploads.POST("/images", uploadHandler.UploadImage)
				uploads.GET("/images/:name", uploadHandler.GetImage)
			}
		}
	}

	frontend, err := handler.NewFrontendHandler(opts.StaticDir, opts.DevAssetURL)
	if err != nil {
		return nil, err
	}
	r.NoRoute(frontend)
	return r, nil
}
