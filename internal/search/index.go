package search

import (
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Index is the search-index contract the sync pipeline consumes:
// upsert by explicit id, delete by id, and batched variants that cost
// one index operation per chunk regardless of chunk size.
type Index interface {
	Upsert(doc *Document) error
	Delete(id string) error
	BulkUpsert(docs []*Document) error
	BulkDelete(ids []string) error
	Search(q string, page, size int) (ids []string, total uint64, err error)
	Close() error
}

type bleveIndex struct {
	idx bleve.Index
}

// NewBleveIndex opens (or creates) a bleve index at path.
// An empty path yields an in-memory index for local runs and tests.
func NewBleveIndex(path string) (Index, error) {
	m := buildMapping()
	if path == "" {
		idx, err := bleve.NewMemOnly(m)
		if err != nil {
			return nil, err
		}
		return &bleveIndex{idx: idx}, nil
	}
	if _, err := os.Stat(path); err == nil {
		idx, err := bleve.Open(path)
		if err != nil {
			return nil, err
		}
		return &bleveIndex{idx: idx}, nil
	}
	idx, err := bleve.New(path, m)
	if err != nil {
		return nil, err
	}
	return &bleveIndex{idx: idx}, nil
}

func buildMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	text := bleve.NewTextFieldMapping()
	docMapping.AddFieldMappingsAt("title", text)
	docMapping.AddFieldMappingsAt("content", text)
	docMapping.AddFieldMappingsAt("writer_nickname", text)

	kw := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("writer_id", kw)

	num := bleve.NewNumericFieldMapping()
	docMapping.AddFieldMappingsAt("view_count", num)
	docMapping.AddFieldMappingsAt("like_count", num)
	docMapping.AddFieldMappingsAt("comment_count", num)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = docMapping
	return m
}

// Upsert overwrites the document with the given id. Last write wins.
func (b *bleveIndex) Upsert(doc *Document) error {
	return b.idx.Index(doc.ID, doc)
}

// Delete removes a document. Deleting an absent id is not an error.
func (b *bleveIndex) Delete(id string) error {
	return b.idx.Delete(id)
}

func (b *bleveIndex) BulkUpsert(docs []*Document) error {
	if len(docs) == 0 {
		return nil
	}
	batch := b.idx.NewBatch()
	for _, d := range docs {
		if err := batch.Index(d.ID, d); err != nil {
			return err
		}
	}
	return b.idx.Batch(batch)
}

func (b *bleveIndex) BulkDelete(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	batch := b.idx.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	return b.idx.Batch(batch)
}

// Search runs a match query over title/content/nickname and returns ids.
// Relevance tuning is deliberately absent.
func (b *bleveIndex) Search(q string, page, size int) ([]string, uint64, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 10
	}
	var mq query.Query = bleve.NewMatchQuery(q)
	req := bleve.NewSearchRequestOptions(mq, size, (page-1)*size, false)
	res, err := b.idx.Search(req)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.ID)
	}
	return ids, res.Total, nil
}

func (b *bleveIndex) Close() error { return b.idx.Close() }
