package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss key 不存在（与故障区分开，故障另有错误）
var ErrMiss = errors.New("cache: miss")

// Store 旁路缓存的最小能力集。实现必须把"查无"与"故障"分开返回，
// 上层对故障一律降级为 miss。
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Healthy(ctx context.Context) error
}
