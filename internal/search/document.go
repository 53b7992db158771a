package search

import (
	"time"

	"github.com/d60-Lab/community/internal/model"
)

// Document is the denormalized post projection stored in the search index.
// It is keyed by the post id and never authoritative: the relational row wins.
type Document struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	WriterID       string    `json:"writer_id"`
	WriterNickname string    `json:"writer_nickname"`
	ViewCount      int64     `json:"view_count"`
	LikeCount      int64     `json:"like_count"`
	CommentCount   int64     `json:"comment_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FromPost maps a post row plus its writer's display name into a Document.
// Pure transform, no I/O.
func FromPost(p *model.Post, writerNickname string) *Document {
	return &Document{
		ID:             p.ID,
		Title:          p.Title,
		Content:        p.Content,
		WriterID:       p.WriterID,
		WriterNickname: writerNickname,
		ViewCount:      p.ViewCount,
		LikeCount:      p.LikeCount,
		CommentCount:   p.CommentCount,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
