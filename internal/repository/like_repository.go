package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/community/internal/model"
	"github.com/d60-Lab/community/pkg/database"
)

// LikeRepository 点赞写入口，Add/Remove 均幂等
type LikeRepository interface {
	// Add 返回是否真正新增（重复点赞不报错也不重复计数）
	Add(tx *database.Tx, postID, userID string) (bool, error)
	Remove(tx *database.Tx, postID, userID string) (bool, error)
}

type likeRepository struct{}

func NewLikeRepository() LikeRepository { return &likeRepository{} }

func (r *likeRepository) Add(tx *database.Tx, postID, userID string) (bool, error) {
	l := &model.Like{ID: uuid.New().String(), PostID: postID, UserID: userID}
	// 幂等：重复点赞不报错
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(l)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	err := tx.Model(&model.Post{}).
		Where("id = ? AND is_deleted = ?", postID, false).
		Updates(map[string]any{
			"like_count": gorm.Expr("like_count + 1"),
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *likeRepository) Remove(tx *database.Tx, postID, userID string) (bool, error) {
	res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&model.Like{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	err := tx.Model(&model.Post{}).
		Where("id = ? AND like_count > 0", postID).
		Updates(map[string]any{
			"like_count": gorm.Expr("like_count - 1"),
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return false, err
	}
	return true, nil
}
