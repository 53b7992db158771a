package search

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) Index {
	t.Helper()
	idx, err := NewBleveIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func doc(id, title string) *Document {
	return &Document{ID: id, Title: title, Content: "content of " + id, WriterNickname: "writer"}
}

func TestUpsertAndSearch(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Upsert(doc("p1", "gopher proverbs")))
	require.NoError(t, idx.Upsert(doc("p2", "cooking notes")))

	ids, total, err := idx.Search("gopher", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, []string{"p1"}, ids)
}

func TestUpsertLastWriteWins(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Upsert(doc("p1", "gopher proverbs")))
	require.NoError(t, idx.Upsert(doc("p1", "rust proverbs")))

	_, total, err := idx.Search("gopher", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total, "overwritten field must not match anymore")

	ids, _, err := idx.Search("rust", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids)
}

func TestDelete(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Upsert(doc("p1", "gopher proverbs")))
	require.NoError(t, idx.Delete("p1"))

	_, total, err := idx.Search("gopher", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)

	// 删除不存在的文档不报错
	assert.NoError(t, idx.Delete("ghost"))
}

func TestBulkUpsertAndBulkDelete(t *testing.T) {
	idx := newTestIndex(t)

	docs := make([]*Document, 0, 10)
	for i := 0; i < 10; i++ {
		docs = append(docs, doc(fmt.Sprintf("p%d", i), fmt.Sprintf("gopher post %d", i)))
	}
	require.NoError(t, idx.BulkUpsert(docs))

	_, total, err := idx.Search("gopher", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 10, total)

	require.NoError(t, idx.BulkDelete([]string{"p0", "p1", "p2"}))
	_, total, err = idx.Search("gopher", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 7, total)

	// 空批次是空操作
	assert.NoError(t, idx.BulkUpsert(nil))
	assert.NoError(t, idx.BulkDelete(nil))
}

func TestSearchPagination(t *testing.T) {
	idx := newTestIndex(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, idx.Upsert(doc(fmt.Sprintf("p%d", i), "gopher")))
	}

	seen := make(map[string]bool)
	for page := 1; page <= 3; page++ {
		ids, total, err := idx.Search("gopher", page, 2)
		require.NoError(t, err)
		assert.EqualValues(t, 5, total)
		for _, id := range ids {
			assert.False(t, seen[id], "page overlap on %s", id)
			seen[id] = true
		}
	}
	assert.Len(t, seen, 5)
}

func TestSearchMatchesNickname(t *testing.T) {
	idx := newTestIndex(t)
	d := doc("p1", "untitled")
	d.WriterNickname = "sanmao"
	require.NoError(t, idx.Upsert(d))

	ids, _, err := idx.Search("sanmao", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids)
}
