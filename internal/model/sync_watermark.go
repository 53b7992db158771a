package model

import "time"

// SyncWatermark 增量同步水位：每个任务一行，记录索引已完全追平的时间点。
// Version 为乐观锁字段，推进水位必须带上期望版本。
type SyncWatermark struct {
	JobName   string    `gorm:"primaryKey;type:varchar(64)"`
	LastRunAt time.Time `gorm:"not null"`
	Version   int64     `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (SyncWatermark) TableName() string { return "sync_watermarks" }
