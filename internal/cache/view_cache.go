package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// 浏览计数的两个 key 命名空间。去重标记与待冲刷计数
// 分属不同前缀，Reconciler 的 SCAN 只会扫到后者。
const (
	dedupKeyPrefix   = "post:view:dedup:"
	pendingKeyPrefix = "post:view:pending:"

	// PendingKeyPattern 供 Reconciler 做游标扫描
	PendingKeyPattern = pendingKeyPrefix + "*"
)

// ViewCache 浏览计数缓存：去重标记 + 待冲刷增量
type ViewCache struct {
	rdb      *redis.Client
	dedupTTL time.Duration
}

func NewViewCache(rdb *redis.Client, dedupTTL time.Duration) *ViewCache {
	if dedupTTL <= 0 {
		dedupTTL = 24 * time.Hour
	}
	return &ViewCache{rdb: rdb, dedupTTL: dedupTTL}
}

// MarkViewed 尝试写入 (post, viewer) 去重标记。
// 返回 true 表示窗口内首次浏览，计数应当 +1。
func (c *ViewCache) MarkViewed(ctx context.Context, postID, viewer string) (bool, error) {
	key := dedupKeyPrefix + postID + ":" + viewer
	ok, err := c.rdb.SetNX(ctx, key, 1, c.dedupTTL).Result()
	if err != nil {
		return false, fmt.Errorf("view dedup setnx: %w", err)
	}
	return ok, nil
}

// IncrPending 原子递增待冲刷计数，key 不存在时自动从 0 创建
func (c *ViewCache) IncrPending(ctx context.Context, postID string) (int64, error) {
	n, err := c.rdb.Incr(ctx, pendingKeyPrefix+postID).Result()
	if err != nil {
		return 0, fmt.Errorf("pending incr: %w", err)
	}
	return n, nil
}

// ScanPending 按游标扫描一页待冲刷 key
func (c *ViewCache) ScanPending(ctx context.Context, cursor uint64, count int64) ([]string, uint64, error) {
	keys, next, err := c.rdb.Scan(ctx, cursor, PendingKeyPattern, count).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("pending scan: %w", err)
	}
	return keys, next, nil
}

// PendingValues 批量读取一组 key 的当前值（单次 MGET）
func (c *ViewCache) PendingValues(ctx context.Context, keys []string) ([]interface{}, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("pending mget: %w", err)
	}
	return vals, nil
}

// DeleteKeys 批量删除；只应在对应的落库事务提交后调用
func (c *ViewCache) DeleteKeys(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("pending del: %w", err)
	}
	return nil
}

// PostIDFromPendingKey 从待冲刷 key 中解出 postID
func PostIDFromPendingKey(key string) (string, bool) {
	id, ok := strings.CutPrefix(key, pendingKeyPrefix)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
