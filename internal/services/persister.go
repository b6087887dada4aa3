package services

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"onebite/internal/logger"
	"onebite/internal/models"
)

// Gateway 持久化接口，格式对核心逻辑透明
type Gateway interface {
	Load(ctx context.Context) ([]models.Post, map[string]int, error)
	Save(ctx context.Context, posts []models.Post, counters map[string]int) error
}

// Snapshotter 提供帖子快照（store.Store 实现）
type Snapshotter interface {
	Snapshot() []models.Post
}

// Loader 接收启动时读出的帖子（store.Store 实现）
type Loader interface {
	Load(posts []models.Post)
}

// LoadState 启动时读取历史数据。读取失败直接返回错误，不能带着空数据启动，
// 否则第一次保存就会覆盖掉原来的文件。
// restoreCounters 为 false 时（计数本身已持久化，如 Redis）不用快照覆盖计数
func LoadState(ctx context.Context, gateway Gateway, posts Loader, limiter *RateLimiter, restoreCounters bool) (int, error) {
	loaded, counters, err := gateway.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load data: %w", err)
	}
	posts.Load(loaded)
	if restoreCounters {
		if err := limiter.Restore(ctx, counters); err != nil {
			logger.Warn("restore post counters failed", zap.Error(err))
		}
	}
	return len(loaded), nil
}

// Persister 每次成功修改后同步保存一次完整快照。
// 保存互相串行，快照在拿到 mu 之后才生成，所以最后一次保存总是最新状态。
// 保存失败只记日志，内存状态仍然是权威数据。
type Persister struct {
	mu      sync.Mutex
	gateway Gateway
	posts   Snapshotter
	limiter *RateLimiter
}

func NewPersister(gateway Gateway, posts Snapshotter, limiter *RateLimiter) *Persister {
	return &Persister{gateway: gateway, posts: posts, limiter: limiter}
}

// Persist 保存当前状态，返回错误仅供调用方记录
func (p *Persister) Persist(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	posts := p.posts.Snapshot()
	counters, err := p.limiter.Snapshot(ctx)
	if err != nil {
		logger.Error("snapshot post counters failed", zap.Error(err))
		return err
	}
	if err := p.gateway.Save(ctx, posts, counters); err != nil {
		logger.Error("data save error", zap.Error(err))
		return err
	}
	return nil
}
