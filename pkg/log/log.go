// Package log 封装了 zap，提供全局的结构化日志函数。
package log

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"inkdesk/internal/config"
)

// Init 之前使用 no-op logger，测试中无需初始化日志。
var sugar = zap.NewNop().Sugar()

// Init 按配置构建 zap logger 并替换全局 logger。
// format 为 console 时使用彩色的开发者输出，其余情况输出 JSON。
func Init(cfg config.LogConfig) error {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}

	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zc.Level = level
	zc.OutputPaths = []string{"stdout"}
	zc.ErrorOutputPaths = []string{"stderr"}
	if cfg.OutputPath != "" {
		if err := os.MkdirAll(cfg.OutputPath, 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		zc.OutputPaths = append(zc.OutputPaths, filepath.Join(cfg.OutputPath, "app.log"))
	}

	logger, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	SetLogger(logger)
	return nil
}

// SetLogger 替换全局 logger，测试中可以注入 observer。
func SetLogger(logger *zap.Logger) {
	sugar = logger.Sugar()
}

func Debugf(template string, args ...interface{}) { sugar.Debugf(template, args...) }

func Info(msg string) { sugar.Info(msg) }

func Infof(template string, args ...interface{}) { sugar.Infof(template, args...) }

// Infow 使用键值对记录一条结构化日志。
func Infow(msg string, keysAndValues ...interface{}) { sugar.Infow(msg, keysAndValues...) }

func Warnf(template string, args ...interface{}) { sugar.Warnf(template, args...) }

func Warnw(msg string, keysAndValues ...interface{}) { sugar.Warnw(msg, keysAndValues...) }

// Error 记录一条 error 级别的日志，并把 err 作为 error 字段。
func Error(msg string, err error) { sugar.Errorw(msg, "error", err) }

func Errorf(template string, args ...interface{}) { sugar.Errorf(template, args...) }

func Errorw(msg string, keysAndValues ...interface{}) { sugar.Errorw(msg, keysAndValues...) }

// Fatal 记录日志后以状态码 1 退出。
func Fatal(msg string, err error) { sugar.Fatalw(msg, "error", err) }

func Fatalf(template string, args ...interface{}) { sugar.Fatalf(template, args...) }

// Sync 将缓冲区中的日志刷新到底层 Writer。
func Sync() { _ = sugar.Sync() }
