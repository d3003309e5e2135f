package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ExclusionSet 记录"分析已被删除、允许重新进入候选列表"的日志ID集合。
// 按用户维度存储，删除分析和重新分析可能并发发生，
// 实现必须保证集合更新是原子的，不能基于快照做读改写。
type ExclusionSet interface {
	Add(ctx context.Context, uid, otayoriID string) error
	Members(ctx context.Context, uid string) ([]string, error)
	Remove(ctx context.Context, uid, otayoriID string) error
}

// redisExclusionSet 基于Redis集合的实现。
// SADD/SREM 本身是原子操作；key带会话级TTL，
// 因此重新进入候选列表的状态可以在应用重启后保留。
type redisExclusionSet struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisExclusionSet 创建Redis实现，ttl<=0时默认24小时
func NewRedisExclusionSet(client *redis.Client, ttl time.Duration) ExclusionSet {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisExclusionSet{client: client, ttl: ttl}
}

func exclusionKey(uid string) string {
	return fmt.Sprintf("analysis:readmit:%s", uid)
}

func (s *redisExclusionSet) Add(ctx context.Context, uid, otayoriID string) error {
	key := exclusionKey(uid)
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, key, otayoriID)
	pipe.Expire(ctx, key, s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisExclusionSet) Members(ctx context.Context, uid string) ([]string, error) {
	return s.client.SMembers(ctx, exclusionKey(uid)).Result()
}

func (s *redisExclusionSet) Remove(ctx context.Context, uid, otayoriID string) error {
	return s.client.SRem(ctx, exclusionKey(uid), otayoriID).Err()
}
