package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/community/internal/model"
)

// PostRow 批量同步用的扁平传输记录（帖子 + 作者展示名）
type PostRow struct {
	ID             string
	WriterID       string
	Title          string
	Content        string
	ViewCount      int64
	LikeCount      int64
	CommentCount   int64
	IsDeleted      bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	WriterNickname string
}

// PostRepository 同步管线消费的帖子读取口
type PostRepository interface {
	GetByID(ctx context.Context, id string) (*model.Post, error)
	// FindActiveRow 读取未删除的帖子及作者展示名；不存在时返回 (nil, nil)
	FindActiveRow(ctx context.Context, id string) (*PostRow, error)
	// PageUpdatedAfter 键集分页：updated_at > after 且 id > afterID，按 id 升序
	PageUpdatedAfter(ctx context.Context, after time.Time, afterID string, limit int) ([]PostRow, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

const postRowSelect = "posts.id, posts.writer_id, posts.title, posts.content, " +
	"posts.view_count, posts.like_count, posts.comment_count, posts.is_deleted, " +
	"posts.created_at, posts.updated_at, users.nickname AS writer_nickname"

func (r *postRepository) FindActiveRow(ctx context.Context, id string) (*PostRow, error) {
	var row PostRow
	err := r.db.WithContext(ctx).
		Table("posts").
		Select(postRowSelect).
		Joins("LEFT JOIN users ON users.id = posts.writer_id").
		Where("posts.id = ? AND posts.is_deleted = ?", id, false).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *postRepository) PageUpdatedAfter(ctx context.Context, after time.Time, afterID string, limit int) ([]PostRow, error) {
	var rows []PostRow
	err := r.db.WithContext(ctx).
		Table("posts").
		Select(postRowSelect).
		Joins("LEFT JOIN users ON users.id = posts.writer_id").
		Where("posts.updated_at > ? AND posts.id > ?", after, afterID).
		Order("posts.id").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
