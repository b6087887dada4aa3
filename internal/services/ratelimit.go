package services

import (
	"context"
	"sync"
)

// DefaultDailyPostLimit 每个身份每天最多发帖数
const DefaultDailyPostLimit = 3

type Decision int

const (
	Denied Decision = iota
	Allowed
)

func (d Decision) String() string {
	if d == Allowed {
		return "allowed"
	}
	return "denied"
}

// CounterStore 保存当前周期内每个身份的发帖计数。实现必须并发安全，
// Consume 的"检查 + 自增"必须是原子的。
type CounterStore interface {
	Consume(ctx context.Context, identity string, limit int) (bool, error)
	Reset(ctx context.Context) error
	Snapshot(ctx context.Context) (map[string]int, error)
	Restore(ctx context.Context, counts map[string]int) error
}

// RateLimiter 按身份限制每个周期的发帖次数，周期由 ResetScheduler 定时清零
type RateLimiter struct {
	limit    int
	counters CounterStore
}

func NewRateLimiter(limit int, counters CounterStore) *RateLimiter {
	if limit < 1 {
		limit = DefaultDailyPostLimit
	}
	return &RateLimiter{limit: limit, counters: counters}
}

func (l *RateLimiter) Limit() int { return l.limit }

// CheckAndConsume 未达上限则计数 +1 并放行；达到上限拒绝且不计数
func (l *RateLimiter) CheckAndConsume(ctx context.Context, identity string) (Decision, error) {
	ok, err := l.counters.Consume(ctx, identity, l.limit)
	if err != nil {
		return Denied, err
	}
	if ok {
		return Allowed, nil
	}
	return Denied, nil
}

// ResetPeriod 清空全部计数
func (l *RateLimiter) ResetPeriod(ctx context.Context) error {
	return l.counters.Reset(ctx)
}

func (l *RateLimiter) Snapshot(ctx context.Context) (map[string]int, error) {
	return l.counters.Snapshot(ctx)
}

func (l *RateLimiter) Restore(ctx context.Context, counts map[string]int) error {
	return l.counters.Restore(ctx, counts)
}

// MemoryCounters 进程内计数，一把锁保护整个 map，定时清零与请求共用这把锁
type MemoryCounters struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewMemoryCounters() *MemoryCounters {
	return &MemoryCounters{counts: make(map[string]int)}
}

func (m *MemoryCounters) Consume(_ context.Context, identity string, limit int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count, exists := m.counts[identity]
	if !exists {
		m.counts[identity] = 1
		return true, nil
	}
	if count >= limit {
		return false, nil
	}
	m.counts[identity] = count + 1
	return true, nil
}

func (m *MemoryCounters) Reset(context.Context) error {
	m.mu.Lock()
	m.counts = make(map[string]int)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCounters) Snapshot(context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]int, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryCounters) Restore(_ context.Context, counts map[string]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counts = make(map[string]int, len(counts))
	for k, v := range counts {
		m.counts[k] = v
	}
	return nil
}
