package service

import (
	"context"
	"time"

	"inkdesk/internal/repository"
	"inkdesk/pkg/database"
	"inkdesk/pkg/log"
)

// SessionSweeper 定期删除已经过期但从未再被使用的会话。
type SessionSweeper struct {
	sessionRepo repository.SessionRepository
	interval    time.Duration
	now         func() time.Time
}

// NewSessionSweeper 创建一个新的 SessionSweeper。
func NewSessionSweeper(sessionRepo repository.SessionRepository, interval time.Duration) *SessionSweeper {
	return &SessionSweeper{sessionRepo: sessionRepo, interval: interval, now: database.NowFunc}
}

// SweepOnce 执行一次清理，返回删除的会话数量。
func (s *SessionSweeper) SweepOnce(ctx context.Context) (int64, error) {
	return s.sessionRepo.DeleteExpired(ctx, s.now())
}

// Run 按固定间隔清理，直到 ctx 被取消。interval <= 0 时立即返回。
func (s *SessionSweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	log.Infof("会话清理任务已启动, 间隔: %s", s.interval)

	for {
		select {
		case <-ctx.Done():
			log.Info("会话清理任务已停止")
			return
		case <-ticker.C:
			n, err := s.SweepOnce(ctx)
			if err != nil {
				log.Error("清理过期会话失败", err)
				continue
			}
			if n > 0 {
				log.Infof("已清理 %d 个过期会话", n)
			}
		}
	}
}
