package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/community/internal/model"
	"github.com/d60-Lab/community/internal/repository"
	"github.com/d60-Lab/community/pkg/database"
)

var ErrPostNotFound = errors.New("post not found")

// PostService 帖子写路径。每个变更在单个事务内落库，
// 变更通知通过 AfterCommit 注册，只在提交成功后投递。
// 下游同步的任何故障都不会让写路径失败。
type PostService struct {
	db       *gorm.DB
	notifier *Notifier
	comments repository.CommentRepository
	likes    repository.LikeRepository
}

func NewPostService(db *gorm.DB, notifier *Notifier, comments repository.CommentRepository, likes repository.LikeRepository) *PostService {
	return &PostService{db: db, notifier: notifier, comments: comments, likes: likes}
}

func (s *PostService) Create(ctx context.Context, writerID, title, content string) (*model.Post, error) {
	post := &model.Post{
		ID:       uuid.New().String(),
		WriterID: writerID,
		Title:    title,
		Content:  content,
	}
	err := database.RunInTx(ctx, s.db, func(tx *database.Tx) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		s.notifyAfterCommit(tx, post.ID, ChangeCreated)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) Update(ctx context.Context, postID, title, content string) error {
	return database.RunInTx(ctx, s.db, func(tx *database.Tx) error {
		res := tx.Model(&model.Post{}).
			Where("id = ? AND is_deleted = ?", postID, false).
			Updates(map[string]any{
				"title":      title,
				"content":    content,
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPostNotFound
		}
		s.notifyAfterCommit(tx, postID, ChangeUpdated)
		return nil
	})
}

// SoftDelete 墓碑化帖子；行保留，updated_at 刷新以便批量同步能看到删除
func (s *PostService) SoftDelete(ctx context.Context, postID string) error {
	return database.RunInTx(ctx, s.db, func(tx *database.Tx) error {
		now := time.Now()
		res := tx.Model(&model.Post{}).
			Where("id = ? AND is_deleted = ?", postID, false).
			Updates(map[string]any{
				"is_deleted": true,
				"deleted_at": now,
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPostNotFound
		}
		s.notifyAfterCommit(tx, postID, ChangeDeleted)
		return nil
	})
}

func (s *PostService) AddComment(ctx context.Context, postID, writerID, content string) (*model.Comment, error) {
	var c *model.Comment
	err := database.RunInTx(ctx, s.db, func(tx *database.Tx) error {
		var err error
		c, err = s.comments.Add(tx, postID, writerID, content)
		if err != nil {
			return err
		}
		s.notifyAfterCommit(tx, postID, ChangeUpdated)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *PostService) RemoveComment(ctx context.Context, commentID string) error {
	return database.RunInTx(ctx, s.db, func(tx *database.Tx) error {
		postID, err := s.comments.Remove(tx, commentID)
		if err != nil {
			return err
		}
		if postID != "" {
			s.notifyAfterCommit(tx, postID, ChangeUpdated)
		}
		return nil
	})
}

func (s *PostService) Like(ctx context.Context, postID, userID string) error {
	return database.RunInTx(ctx, s.db, func(tx *database.Tx) error {
		added, err := s.likes.Add(tx, postID, userID)
		if err != nil {
			return err
		}
		if added {
			s.notifyAfterCommit(tx, postID, ChangeUpdated)
		}
		return nil
	})
}

func (s *PostService) Unlike(ctx context.Context, postID, userID string) error {
	return database.RunInTx(ctx, s.db, func(tx *database.Tx) error {
		removed, err := s.likes.Remove(tx, postID, userID)
		if err != nil {
			return err
		}
		if removed {
			s.notifyAfterCommit(tx, postID, ChangeUpdated)
		}
		return nil
	})
}

func (s *PostService) notifyAfterCommit(tx *database.Tx, postID string, kind ChangeKind) {
	tx.AfterCommit(func() {
		// 投递不挂在请求生命周期上
		s.notifier.Publish(context.Background(), ChangeNotification{PostID: postID, Kind: kind})
	})
}
