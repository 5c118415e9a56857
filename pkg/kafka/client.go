// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"inkdesk/internal/config"
	"inkdesk/pkg/log"
	"inkdesk/pkg/tasks"
)

// maxAttempts 是单条消息处理失败后允许的最大尝试次数，超过后提交 offset 放弃该消息。
const maxAttempts = 3

// Producer 把文章索引任务写入 Kafka，实现 tasks.Dispatcher。
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 创建 Kafka 生产者。写入发生在请求链路上，因此不等待攒批。
func NewProducer(cfg config.KafkaConfig) *Producer {
	return &Producer{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers(cfg)...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
	}}
}

func brokers(cfg config.KafkaConfig) []string {
	var out []string
	for _, b := range strings.Split(cfg.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Dispatch 发送一个文章索引任务。以文章 ID 作为 key，保证同一文章的任务有序。
func (p *Producer) Dispatch(ctx context.Context, task tasks.ArticleIndexTask) error {
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(task.ArticleID), 10)),
		Value: taskBytes,
	})
}

// Close 关闭生产者。
func (p *Producer) Close() error {
	return p.writer.Close()
}

// messageReader 是 Consumer 依赖的 kafka.Reader 方法子集。
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer 消费文章索引任务并交给 Processor 处理。
// 失败的任务在当前消息上重试，累计次数记录在 Redis 中，重启后继续计数。
type Consumer struct {
	reader       messageReader
	processor    tasks.Processor
	rdb          *redis.Client
	retryBackoff time.Duration
	fetchBackoff time.Duration
}

// NewConsumer 创建 Kafka 消费者。
func NewConsumer(cfg config.KafkaConfig, processor tasks.Processor, rdb *redis.Client) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers(cfg),
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{
		reader:       r,
		processor:    processor,
		rdb:          rdb,
		retryBackoff: 500 * time.Millisecond,
		fetchBackoff: time.Second,
	}
}

// Run 循环消费直到 ctx 被取消。读取失败时等待 fetchBackoff 后继续。
func (c *Consumer) Run(ctx context.Context) {
	log.Info("Kafka 消费者已启动")
	defer func() {
		if err := c.reader.Close(); err != nil {
			log.Errorf("关闭 Kafka 消费者失败: %v", err)
		}
	}()

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				log.Info("Kafka 消费者已停止")
				return
			}
			log.Error("从 Kafka 读取消息失败", err)
			if !sleep(ctx, c.fetchBackoff) {
				log.Info("Kafka 消费者已停止")
				return
			}
			continue
		}
		c.handle(ctx, m)
	}
}

// sleep 等待 d，ctx 先结束时返回 false。
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func attemptsKey(m kafka.Message) string {
	return fmt.Sprintf("kafka:attempts:%s:%d:%d", m.Topic, m.Partition, m.Offset)
}

// handle 处理单条消息，失败时在原地重试，直到成功或累计失败 maxAttempts 次后提交 offset。
// 后续消息在此之前不会被读取，失败的 offset 不会被后面的提交越过。
func (c *Consumer) handle(ctx context.Context, m kafka.Message) {
	var task tasks.ArticleIndexTask
	if err := json.Unmarshal(m.Value, &task); err != nil {
		log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
		// 消息格式错误，直接提交，避免阻塞队列
		c.commit(ctx, m)
		return
	}

	for local := 1; ; local++ {
		err := c.processor.Process(ctx, task)
		if err == nil {
			log.Infof("文章索引任务处理成功: action=%s, articleID=%d", task.Action, task.ArticleID)
			c.clearAttempts(ctx, m)
			c.commit(ctx, m)
			return
		}

		attempts := c.recordFailure(ctx, m, local)
		log.Errorf("处理文章索引任务失败(%d/%d): action=%s, articleID=%d, error: %v", attempts, maxAttempts, task.Action, task.ArticleID, err)
		if attempts >= maxAttempts {
			log.Errorf("文章索引任务多次失败(>=%d)，提交 offset 终止重试: articleID=%d", maxAttempts, task.ArticleID)
			c.clearAttempts(ctx, m)
			c.commit(ctx, m)
			return
		}
		// 停机时不提交，重启后由 Kafka 重投并沿用 Redis 中的计数
		if !sleep(ctx, c.retryBackoff*time.Duration(attempts)) {
			return
		}
	}
}

// recordFailure 返回包括本次在内的累计失败次数。Redis 不可用时退化为本进程内的计数。
func (c *Consumer) recordFailure(ctx context.Context, m kafka.Message, local int) int {
	if c.rdb == nil {
		return local
	}
	key := attemptsKey(m)
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		log.Warnf("记录重试次数失败: %v", err)
		return local
	}
	_ = c.rdb.Expire(ctx, key, 24*time.Hour).Err()
	if int(n) < local {
		return local
	}
	return int(n)
}

func (c *Consumer) clearAttempts(ctx context.Context, m kafka.Message) {
	if c.rdb != nil {
		_ = c.rdb.Del(ctx, attemptsKey(m)).Err()
	}
}

func (c *Consumer) commit(ctx context.Context, m kafka.Message) {
	if err := c.reader.CommitMessages(ctx, m); err != nil {
		log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
	}
}
