package service

import (
	"context"
	"fmt"

	"github.com/d60-Lab/community/internal/cache"
)

// ViewService 浏览记录聚合：热路径只碰缓存，绝不触达关系库
type ViewService struct {
	cache *cache.ViewCache
}

func NewViewService(c *cache.ViewCache) *ViewService {
	return &ViewService{cache: c}
}

// RecordView 记录一次浏览。同一 (post, viewer) 在去重窗口内只计一次。
// 缓存不可用时直接报错，由调用方决定是否吞掉；没有本地兜底队列，
// 未记上的浏览就是丢了。
func (s *ViewService) RecordView(ctx context.Context, postID, viewer string) error {
	first, err := s.cache.MarkViewed(ctx, postID, viewer)
	if err != nil {
		return fmt.Errorf("record view: %w", err)
	}
	if !first {
		// 窗口内重复浏览，不重复计数
		return nil
	}
	if _, err := s.cache.IncrPending(ctx, postID); err != nil {
		return fmt.Errorf("record view: %w", err)
	}
	return nil
}
