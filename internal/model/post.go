package model

import "time"

// Post 帖子主体
type Post struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	WriterID     string `gorm:"type:varchar(36);index:idx_post_writer"`
	Title        string `gorm:"type:varchar(200)"`
	Content      string `gorm:"type:text"`
	ViewCount    int64  `gorm:"not null;default:0"`
	LikeCount    int64  `gorm:"not null;default:0"`
	CommentCount int64  `gorm:"not null;default:0"`
	IsDeleted    bool   `gorm:"not null;default:false;index"`
	DeletedAt    *time.Time
	CreatedAt    time.Time
	// UpdatedAt 是批量重建任务的变更游标：任何需要进入索引的写都必须刷新它
	UpdatedAt time.Time `gorm:"index"`
}

func (Post) TableName() string { return "posts" }
