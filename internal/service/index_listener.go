package service

import (
	"context"

	"github.com/d60-Lab/community/internal/repository"
	"github.com/d60-Lab/community/internal/search"
)

// IndexSyncListener 变更通知的快路径消费者：单文档 upsert/delete。
// 至多尝试一次，失败由 Notifier 记日志后丢弃，批量重建任务兜底。
type IndexSyncListener struct {
	posts repository.PostRepository
	index search.Index
}

func NewIndexSyncListener(posts repository.PostRepository, index search.Index) *IndexSyncListener {
	return &IndexSyncListener{posts: posts, index: index}
}

func (l *IndexSyncListener) OnPostChanged(ctx context.Context, n ChangeNotification) error {
	if n.Kind == ChangeDeleted {
		// 删除不存在的文档不算错误
		return l.index.Delete(n.PostID)
	}

	// 重读当前已提交状态：通知只携带 id，不携带内容快照
	row, err := l.posts.FindActiveRow(ctx, n.PostID)
	if err != nil {
		return err
	}
	if row == nil {
		// 并发删除/硬移除，什么都不做
		return nil
	}
	return l.index.Upsert(documentFromRow(row))
}

// documentFromRow 纯转换：扁平行 → 索引文档
func documentFromRow(r *repository.PostRow) *search.Document {
	return &search.Document{
		ID:             r.ID,
		Title:          r.Title,
		Content:        r.Content,
		WriterID:       r.WriterID,
		WriterNickname: r.WriterNickname,
		ViewCount:      r.ViewCount,
		LikeCount:      r.LikeCount,
		CommentCount:   r.CommentCount,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
