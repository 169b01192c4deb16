package cache

import (
	"context"
	"encoding/json"
	"time"
)

// GetJSON 读 key 并反序列化。miss / 故障 / 脏数据统一返回 (nil, err)，
// 调用方按 miss 处理即可
func GetJSON[T any](ctx context.Context, s Store, key string) (*T, error) {
	b, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var out T
	if e := json.Unmarshal(b, &out); e != nil {
		return nil, e
	}
	return &out, nil
}

func SetJSON[T any](ctx context.Context, s Store, key string, v *T, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, b, ttl)
}
