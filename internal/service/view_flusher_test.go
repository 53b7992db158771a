package service

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/community/internal/model"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Post{}, &model.Comment{}, &model.Like{}, &model.SyncWatermark{},
	))
	return db
}

func pendingKeys(mr *miniredis.Miniredis) []string {
	var out []string
	for _, k := range mr.Keys() {
		if strings.HasPrefix(k, "post:view:pending:") {
			out = append(out, k)
		}
	}
	return out
}

func seedPost(t *testing.T, db *gorm.DB, id string, viewCount int64) {
	t.Helper()
	require.NoError(t, db.Create(&model.Post{
		ID: id, WriterID: "w1", Title: "t", Content: "c", ViewCount: viewCount,
	}).Error)
}

func viewCountOf(t *testing.T, db *gorm.DB, id string) int64 {
	t.Helper()
	var p model.Post
	require.NoError(t, db.Where("id = ?", id).First(&p).Error)
	return p.ViewCount
}

func TestFlush_AppliesDeltasAndCleansKeys(t *testing.T) {
	vc, mr := setupViewCache(t)
	db := setupDB(t)
	svc := NewViewService(vc)
	flusher := NewViewFlusher(db, vc, 100)
	ctx := context.Background()

	seedPost(t, db, "p1", 10)
	seedPost(t, db, "p2", 0)

	// p1：同一 viewer 三连刷 → 增量 1；p2：两个 viewer → 增量 2
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.RecordView(ctx, "p1", "1.2.3.4"))
	}
	require.NoError(t, svc.RecordView(ctx, "p2", "u1"))
	require.NoError(t, svc.RecordView(ctx, "p2", "u2"))

	require.NoError(t, flusher.Flush(ctx))

	assert.Equal(t, int64(11), viewCountOf(t, db, "p1"))
	assert.Equal(t, int64(2), viewCountOf(t, db, "p2"))
	assert.Empty(t, pendingKeys(mr), "pending keys must be consumed")
}

func TestFlush_SecondRunIsNoop(t *testing.T) {
	vc, mr := setupViewCache(t)
	db := setupDB(t)
	svc := NewViewService(vc)
	flusher := NewViewFlusher(db, vc, 100)
	ctx := context.Background()

	seedPost(t, db, "p1", 10)
	require.NoError(t, svc.RecordView(ctx, "p1", "u1"))
	require.NoError(t, flusher.Flush(ctx))
	require.Equal(t, int64(11), viewCountOf(t, db, "p1"))

	// 无新增浏览时再次冲刷不改变计数
	require.NoError(t, flusher.Flush(ctx))
	assert.Equal(t, int64(11), viewCountOf(t, db, "p1"))
	assert.Empty(t, pendingKeys(mr))
}

func TestFlush_UnparsableValueSkippedKeysCleaned(t *testing.T) {
	vc, mr := setupViewCache(t)
	db := setupDB(t)
	flusher := NewViewFlusher(db, vc, 100)
	ctx := context.Background()

	seedPost(t, db, "p1", 0)
	mr.Set("post:view:pending:p1", "3")
	mr.Set("post:view:pending:p2", "not-a-number")

	require.NoError(t, flusher.Flush(ctx))

	// 坏值被跳过但 key 照样清理；好值正常落库
	assert.Equal(t, int64(3), viewCountOf(t, db, "p1"))
	assert.Empty(t, pendingKeys(mr))
}

func TestFlush_DeltaForTombstonedPostIsNoop(t *testing.T) {
	vc, mr := setupViewCache(t)
	db := setupDB(t)
	flusher := NewViewFlusher(db, vc, 100)
	ctx := context.Background()

	// 帖子已被硬移除：update 空转，key 仍被消费
	mr.Set("post:view:pending:ghost", "7")
	require.NoError(t, flusher.Flush(ctx))
	assert.Empty(t, pendingKeys(mr))
}

func TestFlush_ChunkedScanCoversAllKeys(t *testing.T) {
	vc, mr := setupViewCache(t)
	db := setupDB(t)
	svc := NewViewService(vc)
	flusher := NewViewFlusher(db, vc, 3) // 小 chunk 强制多轮
	ctx := context.Background()

	var want int64
	for i := 0; i < 10; i++ {
		id := string(rune('a' + i))
		seedPost(t, db, id, 0)
		require.NoError(t, svc.RecordView(ctx, id, "u1"))
		want++
	}
	require.NoError(t, flusher.Flush(ctx))

	var total int64
	require.NoError(t, db.Model(&model.Post{}).Select("COALESCE(SUM(view_count),0)").Scan(&total).Error)
	assert.Equal(t, want, total)
	assert.Empty(t, pendingKeys(mr))
}

func TestFlush_ConservationAcrossMixedActivity(t *testing.T) {
	vc, _ := setupViewCache(t)
	db := setupDB(t)
	svc := NewViewService(vc)
	flusher := NewViewFlusher(db, vc, 100)
	ctx := context.Background()

	seedPost(t, db, "p1", 5)
	before := viewCountOf(t, db, "p1")

	// 4 个独立 viewer + 1 个重复 viewer
	for _, v := range []string{"a", "b", "c", "d", "a"} {
		require.NoError(t, svc.RecordView(ctx, "p1", v))
	}
	require.NoError(t, flusher.Flush(ctx))

	assert.Equal(t, before+4, viewCountOf(t, db, "p1"))
}
