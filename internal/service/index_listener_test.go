package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/community/internal/model"
	"github.com/d60-Lab/community/internal/repository"
	"github.com/d60-Lab/community/internal/search"
)

func newMemIndex(t *testing.T) search.Index {
	t.Helper()
	idx, err := search.NewBleveIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func searchIDs(t *testing.T, idx search.Index, q string) []string {
	t.Helper()
	ids, _, err := idx.Search(q, 1, 50)
	require.NoError(t, err)
	return ids
}

func TestIndexListener_UpsertOnCreate(t *testing.T) {
	db := setupDB(t)
	idx := newMemIndex(t)
	listener := NewIndexSyncListener(repository.NewPostRepository(db), idx)
	ctx := context.Background()

	require.NoError(t, db.Create(&model.User{ID: "w1", Username: "neo", Email: "neo@x", Nickname: "Neo"}).Error)
	require.NoError(t, db.Create(&model.Post{ID: "p1", WriterID: "w1", Title: "gopher talk", Content: "channels"}).Error)

	require.NoError(t, listener.OnPostChanged(ctx, ChangeNotification{PostID: "p1", Kind: ChangeCreated}))
	assert.Equal(t, []string{"p1"}, searchIDs(t, idx, "gopher"))
}

func TestIndexListener_DeleteRemovesDocument(t *testing.T) {
	db := setupDB(t)
	idx := newMemIndex(t)
	listener := NewIndexSyncListener(repository.NewPostRepository(db), idx)
	ctx := context.Background()

	require.NoError(t, db.Create(&model.Post{ID: "p1", WriterID: "w1", Title: "gopher", Content: "x"}).Error)
	require.NoError(t, listener.OnPostChanged(ctx, ChangeNotification{PostID: "p1", Kind: ChangeCreated}))
	require.NotEmpty(t, searchIDs(t, idx, "gopher"))

	require.NoError(t, listener.OnPostChanged(ctx, ChangeNotification{PostID: "p1", Kind: ChangeDeleted}))
	assert.Empty(t, searchIDs(t, idx, "gopher"))

	// 删除不存在的文档不报错
	assert.NoError(t, listener.OnPostChanged(ctx, ChangeNotification{PostID: "ghost", Kind: ChangeDeleted}))
}

func TestIndexListener_MissingPostIsNoop(t *testing.T) {
	db := setupDB(t)
	idx := newMemIndex(t)
	listener := NewIndexSyncListener(repository.NewPostRepository(db), idx)

	assert.NoError(t, listener.OnPostChanged(context.Background(), ChangeNotification{PostID: "ghost", Kind: ChangeUpdated}))
}

func TestIndexListener_TombstonedPostNotIndexed(t *testing.T) {
	db := setupDB(t)
	idx := newMemIndex(t)
	listener := NewIndexSyncListener(repository.NewPostRepository(db), idx)

	require.NoError(t, db.Create(&model.Post{ID: "p1", WriterID: "w1", Title: "gopher", Content: "x", IsDeleted: true}).Error)
	require.NoError(t, listener.OnPostChanged(context.Background(), ChangeNotification{PostID: "p1", Kind: ChangeUpdated}))
	assert.Empty(t, searchIDs(t, idx, "gopher"))
}
