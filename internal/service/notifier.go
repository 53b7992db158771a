package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/d60-Lab/community/pkg/logger"
)

// ChangeKind 帖子变更类型
type ChangeKind int

const (
	ChangeCreated ChangeKind = iota + 1
	ChangeUpdated
	ChangeDeleted
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeCreated:
		return "CREATED"
	case ChangeUpdated:
		return "UPDATED"
	case ChangeDeleted:
		return "DELETED"
	default:
		return "UNKNOWN"
	}
}

// ChangeNotification 进程内变更消息。不落盘：进程在投递前崩溃即丢失，
// 由批量重建任务兜底。
type ChangeNotification struct {
	PostID string
	Kind   ChangeKind
}

// ChangeListener 变更通知的消费方
type ChangeListener interface {
	OnPostChanged(ctx context.Context, n ChangeNotification) error
}

// Notifier 同步分发变更通知。投递必须发生在写事务提交之后
// （通过 database.Tx 的 AfterCommit 注册），监听方的失败只记日志，
// 绝不影响发起写入的调用方。
type Notifier struct {
	listeners []ChangeListener
}

func NewNotifier() *Notifier { return &Notifier{} }

func (nf *Notifier) Register(l ChangeListener) {
	nf.listeners = append(nf.listeners, l)
}

// Publish 逐个同步投递；单个监听方失败或 panic 不影响其余监听方
func (nf *Notifier) Publish(ctx context.Context, n ChangeNotification) {
	for _, l := range nf.listeners {
		nf.deliver(ctx, l, n)
	}
}

func (nf *Notifier) deliver(ctx context.Context, l ChangeListener, n ChangeNotification) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("change listener panicked",
				zap.String("post_id", n.PostID),
				zap.String("kind", n.Kind.String()),
				zap.Any("panic", r))
		}
	}()
	if err := l.OnPostChanged(ctx, n); err != nil {
		logger.Error("change listener failed",
			zap.String("post_id", n.PostID),
			zap.String("kind", n.Kind.String()),
			zap.Error(err))
	}
}
