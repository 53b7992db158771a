package database

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/community/pkg/logger"
)

// Tx 事务载体：除 *gorm.DB 外还收集提交后回调
type Tx struct {
	*gorm.DB
	hooks []func()
}

// AfterCommit 注册一个仅在事务成功提交后执行的回调。
// 回滚时回调被丢弃；回调内的 panic 被吞掉并记日志，不影响调用方。
func (t *Tx) AfterCommit(fn func()) {
	t.hooks = append(t.hooks, fn)
}

// RunInTx 在单个事务中执行 fn，提交成功后同步触发注册的回调
func RunInTx(ctx context.Context, db *gorm.DB, fn func(tx *Tx) error) error {
	var hooks []func()
	err := db.WithContext(ctx).Transaction(func(g *gorm.DB) error {
		t := &Tx{DB: g}
		if err := fn(t); err != nil {
			return err
		}
		hooks = t.hooks
		return nil
	})
	if err != nil {
		return err
	}
	for _, h := range hooks {
		runHook(h)
	}
	return nil
}

func runHook(h func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("after-commit hook panicked", zap.Any("panic", r))
		}
	}()
	h()
}
