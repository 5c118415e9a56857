package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"inkdesk/internal/model"
)

// CachedSession 是缓存在 Redis 中的会话快照。
type CachedSession struct {
	SessionID uint      `json:"sessionId"`
	UserID    uint      `json:"userId"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Session 把快照还原为带用户信息的会话。
func (c *CachedSession) Session(token string) *model.Session {
	return &model.Session{
		ID:        c.SessionID,
		Token:     token,
		UserID:    c.UserID,
		ExpiresAt: c.ExpiresAt,
		User:      model.User{ID: c.UserID, Email: c.Email, Name: c.Name},
	}
}

// SessionCache 定义了会话查找缓存。未命中时 Get 返回 (nil, nil)。
type SessionCache interface {
	Get(ctx context.Context, token string) (*CachedSession, error)
	Set(ctx context.Context, token string, session *model.Session) error
	Delete(ctx context.Context, token string) error
}

type redisSessionCache struct {
	redisClient *redis.Client
	ttl         time.Duration
	now         func() time.Time
}

// NewSessionCache 创建基于 Redis 的会话缓存，redisClient 为 nil 时返回不缓存的实现。
func NewSessionCache(redisClient *redis.Client, ttl time.Duration) SessionCache {
	if redisClient == nil {
		return noopSessionCache{}
	}
	return &redisSessionCache{redisClient: redisClient, ttl: ttl, now: time.Now}
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

func (r *redisSessionCache) Get(ctx context.Context, token string) (*CachedSession, error) {
	data, err := r.redisClient.Get(ctx, sessionKey(token)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached session: %w", err)
	}
	var cached CachedSession
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached session: %w", err)
	}
	return &cached, nil
}

// Set 缓存会话，TTL 取 cache_ttl 与剩余有效期中较小者；已过期的会话不缓存。
func (r *redisSessionCache) Set(ctx context.Context, token string, session *model.Session) error {
	ttl := session.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if r.ttl > 0 && r.ttl < ttl {
		ttl = r.ttl
	}
	data, err := json.Marshal(CachedSession{
		SessionID: session.ID,
		UserID:    session.UserID,
		Email:     session.User.Email,
		Name:      session.User.Name,
		ExpiresAt: session.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cached session: %w", err)
	}
	if err := r.redisClient.Set(ctx, sessionKey(token), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cached session: %w", err)
	}
	return nil
}

func (r *redisSessionCache) Delete(ctx context.Context, token string) error {
	if err := r.redisClient.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete cached session: %w", err)
	}
	return nil
}

type noopSessionCache struct{}

func (noopSessionCache) Get(context.Context, string) (*CachedSession, error) { return nil, nil }

func (noopSessionCache) Set(context.Context, string, *model.Session) error { return nil }

func (noopSessionCache) Delete(context.Context, string) error { return nil }
