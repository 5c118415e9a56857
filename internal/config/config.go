// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// 全局配置变量，只在启动时由 Init 写入。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Session       SessionConfig       `mapstructure:"session"`
	Log           LogConfig           `mapstructure:"log"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin 模式: debug / release / test
	// Env 为 development 时 cookie 不带 Secure，且非 API 请求可代理到前端开发服务器。
	Env         string `mapstructure:"env"`
	StaticDir   string `mapstructure:"static_dir"`
	DevAssetURL string `mapstructure:"dev_asset_url"`
}

// IsDevelopment 报告当前是否运行在本地开发环境。
func (s ServerConfig) IsDevelopment() bool {
	return s.Env == "" || s.Env == "development" || s.Env == "local"
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	Driver string      `mapstructure:"driver"` // mysql 或 sqlite
	DSN    string      `mapstructure:"dsn"`
	Redis  RedisConfig `mapstructure:"redis"`
}

// RedisConfig 存储 Redis 的配置，Addr 为空时不启用会话缓存。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SessionConfig 存储会话与 cookie 相关的配置。
type SessionConfig struct {
	TTLDays       int           `mapstructure:"ttl_days"`
	CookieName    string        `mapstructure:"cookie_name"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"` // 0 表示不做定期清理
}

// TTL 返回会话有效期。
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLDays) * 24 * time.Hour
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// LLMConfig 存储对话补全服务相关的配置。
type LLMConfig struct {
	APIKey     string              `mapstructure:"api_key"`
	BaseURL    string              `mapstructure:"base_url"`
	Model      string              `mapstructure:"model"`
	Timeout    time.Duration       `mapstructure:"timeout"` // 0 表示不设置客户端超时
	Generation LLMGenerationConfig `mapstructure:"generation"`
	Prompt     LLMPromptConfig     `mapstructure:"prompt"`
}

// LLMGenerationConfig 配置生成相关参数（可选，零值表示不下发）。
type LLMGenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// LLMPromptConfig 配置系统提示以及文章、引用片段的拼接方式。
type LLMPromptConfig struct {
	System         string `mapstructure:"system"`
	IncludeArticle bool   `mapstructure:"include_article"`
	ContextPrefix  string `mapstructure:"context_prefix"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// ElasticsearchConfig 存储 Elasticsearch 相关的配置。
type ElasticsearchConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.static_dir", "./dist")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("session.ttl_days", 30)
	v.SetDefault("session.cookie_name", "session")
	v.SetDefault("session.cache_ttl", 10*time.Minute)
	v.SetDefault("session.sweep_interval", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-3.5-turbo")
	v.SetDefault("llm.prompt.system", "You are a helpful writing assistant. Help the user draft and improve their markdown article.")
	v.SetDefault("llm.prompt.include_article", true)
	v.SetDefault("llm.prompt.context_prefix", "The user is asking about this part of the article:")
	v.SetDefault("kafka.topic", "article-index")
	v.SetDefault("kafka.group_id", "inkdesk-indexer")
	v.SetDefault("elasticsearch.index_name", "articles")
	v.SetDefault("minio.bucket_name", "inkdesk-images")
}

// Load 从指定路径读取 YAML 文件，环境变量可以覆盖任意键（llm.api_key -> LLM_API_KEY）。
func Load(configPath string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	return cfg, nil
}

// Init 加载配置并写入全局变量 Conf，失败时直接 panic。
func Init(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	Conf = cfg
}
