package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/community/internal/model"
)

func seedWriter(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	u := &model.User{ID: "u1", Nickname: "素还真"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedPost(t *testing.T, db *gorm.DB, id, writerID string, updatedAt time.Time) {
	t.Helper()
	p := &model.Post{ID: id, WriterID: writerID, Title: "title-" + id, Content: "body"}
	require.NoError(t, db.Create(p).Error)
	require.NoError(t, db.Model(p).UpdateColumn("updated_at", updatedAt).Error)
}

func TestFindActiveRow(t *testing.T) {
	db := setupDB(t)
	u := seedWriter(t, db)
	seedPost(t, db, "p1", u.ID, time.Now())
	repo := NewPostRepository(db)
	ctx := context.Background()

	row, err := repo.FindActiveRow(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "title-p1", row.Title)
	assert.Equal(t, "素还真", row.WriterNickname)

	// 不存在与已删除一视同仁：(nil, nil)
	row, err = repo.FindActiveRow(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, row)

	require.NoError(t, db.Model(&model.Post{ID: "p1"}).UpdateColumn("is_deleted", true).Error)
	row, err = repo.FindActiveRow(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestFindActiveRow_WriterGone(t *testing.T) {
	db := setupDB(t)
	seedPost(t, db, "p1", "missing-writer", time.Now())
	repo := NewPostRepository(db)

	row, err := repo.FindActiveRow(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Empty(t, row.WriterNickname)
}

func TestPageUpdatedAfter_Keyset(t *testing.T) {
	db := setupDB(t)
	u := seedWriter(t, db)
	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		seedPost(t, db, fmt.Sprintf("p%02d", i), u.ID, base.Add(time.Duration(i)*time.Minute))
	}
	repo := NewPostRepository(db)
	ctx := context.Background()

	// 水位卡在 p02 之后：只剩 p03..p06
	after := base.Add(2 * time.Minute)
	var got []string
	cursor := ""
	for {
		rows, err := repo.PageUpdatedAfter(ctx, after, cursor, 2)
		require.NoError(t, err)
		if len(rows) == 0 {
			break
		}
		for _, r := range rows {
			got = append(got, r.ID)
		}
		cursor = rows[len(rows)-1].ID
	}
	assert.Equal(t, []string{"p03", "p04", "p05", "p06"}, got)
}

func TestPageUpdatedAfter_IncludesTombstones(t *testing.T) {
	db := setupDB(t)
	u := seedWriter(t, db)
	now := time.Now()
	seedPost(t, db, "p1", u.ID, now)
	require.NoError(t, db.Model(&model.Post{ID: "p1"}).UpdateColumn("is_deleted", true).Error)

	rows, err := NewPostRepository(db).PageUpdatedAfter(context.Background(), now.Add(-time.Hour), "", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsDeleted, "soft-deleted rows must flow through so the index can retract them")
}
