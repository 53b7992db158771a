package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/community/internal/model"
)

var (
	// ErrWatermarkNotFound 水位行未预置，任务必须快速失败
	ErrWatermarkNotFound = errors.New("sync watermark not provisioned for job")
	// ErrWatermarkConflict 版本不匹配，推进被拒绝
	ErrWatermarkConflict = errors.New("sync watermark version conflict")
)

// WatermarkRepository 同步水位存取：读取 + 乐观锁推进
type WatermarkRepository interface {
	Get(ctx context.Context, jobName string) (*model.SyncWatermark, error)
	// Advance 比较并交换：expectedVersion 不匹配时返回 ErrWatermarkConflict
	Advance(ctx context.Context, jobName string, newTime time.Time, expectedVersion int64) error
	// Provision 幂等创建初始水位行（首次运行前的外部前置条件）
	Provision(ctx context.Context, jobName string, initial time.Time) error
}

type watermarkRepository struct {
	db *gorm.DB
}

func NewWatermarkRepository(db *gorm.DB) WatermarkRepository {
	return &watermarkRepository{db: db}
}

func (r *watermarkRepository) Get(ctx context.Context, jobName string) (*model.SyncWatermark, error) {
	var wm model.SyncWatermark
	err := r.db.WithContext(ctx).Where("job_name = ?", jobName).First(&wm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWatermarkNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wm, nil
}

func (r *watermarkRepository) Advance(ctx context.Context, jobName string, newTime time.Time, expectedVersion int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.SyncWatermark{}).
		Where("job_name = ? AND version = ?", jobName, expectedVersion).
		Updates(map[string]any{
			"last_run_at": newTime,
			"version":     gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrWatermarkConflict
	}
	return nil
}

func (r *watermarkRepository) Provision(ctx context.Context, jobName string, initial time.Time) error {
	wm := &model.SyncWatermark{JobName: jobName, LastRunAt: initial}
	// 幂等：已存在时不覆盖
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(wm).Error
}
