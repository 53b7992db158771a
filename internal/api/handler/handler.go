package handler

import (
	"github.com/d60-Lab/community/internal/repository"
	"github.com/d60-Lab/community/internal/search"
	"github.com/d60-Lab/community/internal/service"
)

// Handler HTTP 处理器集合
type Handler struct {
	postService *service.PostService
	viewService *service.ViewService
	postRepo    repository.PostRepository
	index       search.Index
	scheduler   *service.Scheduler
	syncJobName string
}

func New(
	postService *service.PostService,
	viewService *service.ViewService,
	postRepo repository.PostRepository,
	index search.Index,
	scheduler *service.Scheduler,
	syncJobName string,
) *Handler {
	return &Handler{
		postService: postService,
		viewService: viewService,
		postRepo:    postRepo,
		index:       index,
		scheduler:   scheduler,
		syncJobName: syncJobName,
	}
}
