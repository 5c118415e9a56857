// Package main 是应用程序的入口点。
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"inkdesk/internal/config"
	"inkdesk/internal/middleware"
	"inkdesk/internal/pipeline"
	"inkdesk/internal/repository"
	"inkdesk/internal/router"
	"inkdesk/internal/service"
	"inkdesk/pkg/database"
	"inkdesk/pkg/es"
	"inkdesk/pkg/kafka"
	"inkdesk/pkg/llm"
	"inkdesk/pkg/log"
	"inkdesk/pkg/storage"
	"inkdesk/pkg/tasks"
)

func configPath() string {
	def := "./configs/config.yaml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		def = p
	}
	path := flag.String("config", def, "path to config.yaml")
	flag.Parse()
	return *path
}

func main() {
	// 1. 初始化配置
	config.Init(configPath())
	cfg := config.Conf

	// 2. 初始化日志记录器
	if err := log.Init(cfg.Log); err != nil {
		panic(err)
	}
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 后台任务共享的根 context，停机时取消
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. 初始化数据库和 Redis
	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatal("数据库初始化失败", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal("数据库迁移失败", err)
	}
	log.Infof("数据库连接成功, driver: %s", cfg.Database.Driver)

	var rdb *redis.Client
	if cfg.Database.Redis.Addr != "" {
		rdb, err = database.NewRedis(ctx, cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
		if err != nil {
			log.Fatal("Redis 初始化失败", err)
		}
		defer rdb.Close()
		log.Info("Redis 连接成功")
	} else {
		log.Warnf("未配置 Redis，会话缓存已禁用")
	}

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	sessionCache := repository.NewSessionCache(rdb, cfg.Session.CacheTTL)
	articleRepo := repository.NewArticleRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// 5. 初始化检索与索引管道
	var dispatcher tasks.Dispatcher = tasks.NoopDispatcher{}
	var searchService service.SearchService
	var producer *kafka.Producer
	if cfg.Elasticsearch.Enabled {
		esClient, err := es.NewClient(cfg.Elasticsearch)
		if err != nil {
			log.Fatal("Elasticsearch 初始化失败", err)
		}
		index := es.NewArticleIndex(esClient, cfg.Elasticsearch.IndexName)
		if err := index.EnsureIndex(ctx); err != nil {
			log.Fatal("创建 Elasticsearch 索引失败", err)
		}
		indexer := pipeline.NewIndexer(index)
		searchService = service.NewSearchService(index)
		dispatcher = tasks.InlineDispatcher{Processor: indexer}

		// 启动后台 Kafka 消费者
		if cfg.Kafka.Enabled {
			producer = kafka.NewProducer(cfg.Kafka)
			dispatcher = producer
			go kafka.NewConsumer(cfg.Kafka, indexer, rdb).Run(ctx)
		}
	} else if cfg.Kafka.Enabled {
		log.Warnf("Kafka 已启用但 Elasticsearch 未启用，索引任务将被丢弃")
	}

	var uploadService service.UploadService
	if cfg.MinIO.Enabled {
		store, err := storage.NewMinIOStore(ctx, cfg.MinIO)
		if err != nil {
			log.Fatal("MinIO 初始化失败", err)
		}
		uploadService = service.NewUploadService(store)
	}

	// 6. 初始化 Service (依赖注入)
	userService := service.NewUserService(userRepo, sessionRepo, sessionCache, cfg.Session.TTL())
	articleService := service.NewArticleService(articleRepo, dispatcher)
	chatService := service.NewChatService(articleRepo, messageRepo, llm.NewClient(cfg.LLM), cfg.LLM)

	go service.NewSessionSweeper(sessionRepo, cfg.Session.SweepInterval).Run(ctx)

	// 7. 设置 Gin 模式并注册路由
	gin.SetMode(cfg.Server.Mode)
	devAssetURL := ""
	if cfg.Server.IsDevelopment() {
		devAssetURL = cfg.Server.DevAssetURL
	}
	r, err := router.New(router.Services{
		UserService:    userService,
		ArticleService: articleService,
		ChatService:    chatService,
		SearchService:  searchService,
		UploadService:  uploadService,
	}, router.Options{
		Cookie: middleware.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: !cfg.Server.IsDevelopment(),
		},
		StaticDir:   cfg.Server.StaticDir,
		DevAssetURL: devAssetURL,
	})
	if err != nil {
		log.Fatal("路由初始化失败", err)
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}

	// 停止消费者与会话清理任务
	cancel()
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Errorf("关闭 Kafka 生产者失败: %v", err)
		}
	}
	log.Info("服务已优雅关闭")
}
