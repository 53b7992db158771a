package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/community/internal/repository"
	"github.com/d60-Lab/community/internal/search"
	"github.com/d60-Lab/community/pkg/logger"
)

// ErrMalformedRecord 数据完整性错误：坏行必须让本轮失败并留下 key，
// 绝不自动重试，也绝不静默跳过。用 errors.Is 与瞬时 I/O 错误区分。
var ErrMalformedRecord = errors.New("malformed record")

// ReindexJob 批量重建：从水位之后的全部帖子变更追平搜索索引。
// 快路径丢失的通知（崩溃、投递失败、冷启动）都由它补上。
type ReindexJob struct {
	posts      repository.PostRepository
	watermarks repository.WatermarkRepository
	index      search.Index
	pageSize   int
}

func NewReindexJob(posts repository.PostRepository, watermarks repository.WatermarkRepository, index search.Index, pageSize int) *ReindexJob {
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &ReindexJob{posts: posts, watermarks: watermarks, index: index, pageSize: pageSize}
}

// Run 执行一轮追平。失败不推水位，下次从同一断点重跑（幂等 upsert）。
// 成功后水位推到本轮的开始时间，避免漏掉运行期间的新变更。
func (j *ReindexJob) Run(ctx context.Context, jobName string) error {
	wm, err := j.watermarks.Get(ctx, jobName)
	if err != nil {
		// 含 ErrWatermarkNotFound：水位行必须先在带外预置
		return fmt.Errorf("reindex %s: %w", jobName, err)
	}

	startedAt := time.Now()
	var (
		afterID  string
		upserted int
		removed  int
	)
	for {
		rows, err := j.posts.PageUpdatedAfter(ctx, wm.LastRunAt, afterID, j.pageSize)
		if err != nil {
			return fmt.Errorf("reindex %s: page read: %w", jobName, err)
		}
		if len(rows) == 0 {
			break
		}

		docs := make([]*search.Document, 0, len(rows))
		deletes := make([]string, 0)
		for i := range rows {
			row := &rows[i]
			if err := validateRow(row); err != nil {
				return fmt.Errorf("reindex %s: %w", jobName, err)
			}
			if row.IsDeleted {
				// 兜底回收：DELETED 通知丢失时由这里撤下文档
				deletes = append(deletes, row.ID)
				continue
			}
			docs = append(docs, documentFromRow(row))
		}

		if err := j.index.BulkUpsert(docs); err != nil {
			return fmt.Errorf("reindex %s: bulk upsert: %w", jobName, err)
		}
		if err := j.index.BulkDelete(deletes); err != nil {
			return fmt.Errorf("reindex %s: bulk delete: %w", jobName, err)
		}
		upserted += len(docs)
		removed += len(deletes)

		afterID = rows[len(rows)-1].ID
		if len(rows) < j.pageSize {
			break
		}
	}

	if err := j.watermarks.Advance(ctx, jobName, startedAt, wm.Version); err != nil {
		// 含 ErrWatermarkConflict：按设计任务不应与自身并发，拒绝并留给下一轮
		return fmt.Errorf("reindex %s: advance watermark: %w", jobName, err)
	}

	logger.Info("reindex run finished",
		zap.String("job", jobName),
		zap.Time("watermark_from", wm.LastRunAt),
		zap.Time("watermark_to", startedAt),
		zap.Int("upserted", upserted),
		zap.Int("removed", removed))
	return nil
}

func validateRow(r *repository.PostRow) error {
	if r.ID == "" {
		return fmt.Errorf("post row with empty id: %w", ErrMalformedRecord)
	}
	if r.UpdatedAt.IsZero() {
		return fmt.Errorf("post row %s with zero updated_at: %w", r.ID, ErrMalformedRecord)
	}
	if !r.IsDeleted && r.Title == "" {
		return fmt.Errorf("post row %s with empty title: %w", r.ID, ErrMalformedRecord)
	}
	return nil
}
