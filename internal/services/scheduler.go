package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"onebite/internal/logger"
)

// NextResetAt 计算 now 之后（不含 now）的下一个 hour:minute 本地时间
func NextResetAt(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// ResetScheduler 独立的后台 goroutine，每天固定时刻清空发帖计数。
// 进程不在运行时错过的时刻不会补执行。
type ResetScheduler struct {
	limiter   *RateLimiter
	persister *Persister
	hour      int
	minute    int

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

func NewResetScheduler(limiter *RateLimiter, persister *Persister, hour, minute int) *ResetScheduler {
	return &ResetScheduler{
		limiter:   limiter,
		persister: persister,
		hour:      hour,
		minute:    minute,
		now:       time.Now,
		after:     time.After,
	}
}

// Start 启动定时任务，ctx 取消后退出；返回的 channel 在 goroutine 结束时关闭
func (s *ResetScheduler) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			now := s.now()
			next := NextResetAt(now, s.hour, s.minute)
			select {
			case <-ctx.Done():
				return
			case <-s.after(next.Sub(now)):
			}

			s.runOnce(ctx)
		}
	}()
	return done
}

func (s *ResetScheduler) runOnce(ctx context.Context) {
	logger.Info("resetting daily post counters")
	if err := s.limiter.ResetPeriod(ctx); err != nil {
		logger.Error("reset post counters failed", zap.Error(err))
		return
	}
	if s.persister != nil {
		s.persister.Persist(ctx)
	}
}
