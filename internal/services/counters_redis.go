package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// consumeScript 在一个哈希里做原子的"检查 + 自增"
// KEYS[1] = hash, ARGV[1] = identity, ARGV[2] = limit
var consumeScript = redis.NewScript(`
local current = tonumber(redis.call('HGET', KEYS[1], ARGV[1]) or '0')
if current >= tonumber(ARGV[2]) then
  return 0
end
redis.call('HINCRBY', KEYS[1], ARGV[1], 1)
return 1
`)

// RedisCounters 多实例部署时共享的计数，全部计数放在一个哈希里，清零即删除该键
type RedisCounters struct {
	rdb *redis.Client
	key string
}

func NewRedisCounters(rdb *redis.Client, key string) *RedisCounters {
	return &RedisCounters{rdb: rdb, key: key}
}

func (r *RedisCounters) Consume(ctx context.Context, identity string, limit int) (bool, error) {
	n, err := consumeScript.Run(ctx, r.rdb, []string{r.key}, identity, limit).Int()
	if err != nil {
		return false, fmt.Errorf("redis consume: %w", err)
	}
	return n == 1, nil
}

func (r *RedisCounters) Reset(ctx context.Context) error {
	return r.rdb.Del(ctx, r.key).Err()
}

func (r *RedisCounters) Snapshot(ctx context.Context) (map[string]int, error) {
	vals, err := r.rdb.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis snapshot: %w", err)
	}
	out := make(map[string]int, len(vals))
	for k, v := range vals {
		n, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		out[k] = n
	}
	return out, nil
}

// Restore 用持久化快照覆盖 Redis 中的计数
func (r *RedisCounters) Restore(ctx context.Context, counts map[string]int) error {
	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, r.key)
	if len(counts) > 0 {
		fields := make(map[string]interface{}, len(counts))
		for k, v := range counts {
			fields[k] = v
		}
		pipe.HSet(ctx, r.key, fields)
	}
	_, err := pipe.Exec(ctx)
	return err
}
