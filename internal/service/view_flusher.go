package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/community/internal/cache"
	"github.com/d60-Lab/community/internal/model"
	"github.com/d60-Lab/community/pkg/database"
	"github.com/d60-Lab/community/pkg/logger"
)

type viewDelta struct {
	postID string
	delta  int64
}

// ViewFlusher 定时把缓存里的待冲刷浏览增量落到帖子表。
// 每个 chunk 一个事务，缓存 key 只在事务提交后删除，
// 失败的 chunk 留给下一轮重试（at-least-once，增量可交换可结合）。
type ViewFlusher struct {
	db        *gorm.DB
	cache     *cache.ViewCache
	chunkSize int
}

func NewViewFlusher(db *gorm.DB, c *cache.ViewCache, chunkSize int) *ViewFlusher {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	return &ViewFlusher{db: db, cache: c, chunkSize: chunkSize}
}

// Flush 游标扫描全部待冲刷 key，按 chunk 依次处理。
// 仅在调度器的不重叠保证下调用（SCAN 游标不可共享）。
func (f *ViewFlusher) Flush(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := f.cache.ScanPending(ctx, cursor, int64(f.chunkSize))
		if err != nil {
			return fmt.Errorf("flush views: %w", err)
		}
		if len(keys) > 0 {
			if err := f.flushChunk(ctx, keys); err != nil {
				return fmt.Errorf("flush views: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (f *ViewFlusher) flushChunk(ctx context.Context, keys []string) error {
	vals, err := f.cache.PendingValues(ctx, keys)
	if err != nil {
		return err
	}

	deltas := make([]viewDelta, 0, len(keys))
	for i, key := range keys {
		postID, ok := cache.PostIDFromPendingKey(key)
		if !ok {
			logger.Warn("skip unparsable pending key", zap.String("key", key))
			continue
		}
		if vals[i] == nil {
			// key 在扫描与读取之间消失（如 TTL 淘汰），照常删除
			logger.Warn("pending key missing value", zap.String("key", key))
			continue
		}
		raw, _ := vals[i].(string)
		n, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil || n < 0 {
			logger.Warn("skip unparsable pending value",
				zap.String("key", key), zap.String("value", raw))
			continue
		}
		deltas = append(deltas, viewDelta{postID: postID, delta: n})
	}

	// 本 chunk 没有可用增量也不能阻塞 key 清理
	if len(deltas) == 0 {
		return f.cache.DeleteKeys(ctx, keys)
	}

	chunk := append([]string(nil), keys...)
	return database.RunInTx(ctx, f.db, func(tx *database.Tx) error {
		for _, d := range deltas {
			// 帖子已被墓碑化时 update 为空操作，增量照常消费
			err := tx.Model(&model.Post{}).
				Where("id = ?", d.postID).
				UpdateColumn("view_count", gorm.Expr("view_count + ?", d.delta)).Error
			if err != nil {
				return err
			}
		}
		tx.AfterCommit(func() {
			if err := f.cache.DeleteKeys(context.Background(), chunk); err != nil {
				// 删除失败下一轮会重放同一增量，记日志观察
				logger.Error("delete flushed pending keys", zap.Error(err), zap.Int("keys", len(chunk)))
			}
		})
		return nil
	})
}
