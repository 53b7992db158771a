package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/community/internal/model"
	"github.com/d60-Lab/community/pkg/database"
)

// CommentRepository 评论写入口。调用方负责事务边界，
// 计数与 updated_at 在同一事务内维护，保证变更能被索引游标看到。
type CommentRepository interface {
	Add(tx *database.Tx, postID, writerID, content string) (*model.Comment, error)
	Remove(tx *database.Tx, commentID string) (postID string, err error)
}

type commentRepository struct{}

func NewCommentRepository() CommentRepository { return &commentRepository{} }

func (r *commentRepository) Add(tx *database.Tx, postID, writerID, content string) (*model.Comment, error) {
	c := &model.Comment{
		ID:       uuid.New().String(),
		PostID:   postID,
		WriterID: writerID,
		Content:  content,
	}
	if err := tx.Create(c).Error; err != nil {
		return nil, err
	}
	err := tx.Model(&model.Post{}).
		Where("id = ? AND is_deleted = ?", postID, false).
		Updates(map[string]any{
			"comment_count": gorm.Expr("comment_count + 1"),
			"updated_at":    time.Now(),
		}).Error
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *commentRepository) Remove(tx *database.Tx, commentID string) (string, error) {
	var c model.Comment
	if err := tx.Where("id = ?", commentID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	if err := tx.Delete(&model.Comment{}, "id = ?", commentID).Error; err != nil {
		return "", err
	}
	err := tx.Model(&model.Post{}).
		Where("id = ? AND comment_count > 0", c.PostID).
		Updates(map[string]any{
			"comment_count": gorm.Expr("comment_count - 1"),
			"updated_at":    time.Now(),
		}).Error
	if err != nil {
		return "", err
	}
	return c.PostID, nil
}
