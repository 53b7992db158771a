package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/d60-Lab/community/internal/service"
	"github.com/d60-Lab/community/pkg/response"
)

type createPostRequest struct {
	WriterID string `json:"writer_id" binding:"required"`
	Title    string `json:"title" binding:"required,max=200"`
	Content  string `json:"content" binding:"required"`
}

// CreatePost 发帖
// @Summary 创建帖子
// @Tags 帖子
// @Accept json
// @Produce json
// @Param request body createPostRequest true "帖子内容"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	post, err := h.postService.Create(c.Request.Context(), req.WriterID, req.Title, req.Content)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"id": post.ID})
}

type updatePostRequest struct {
	Title   string `json:"title" binding:"required,max=200"`
	Content string `json:"content" binding:"required"`
}

// UpdatePost 改帖
// @Summary 更新帖子
// @Tags 帖子
// @Accept json
// @Produce json
// @Param id path string true "帖子ID"
// @Param request body updatePostRequest true "帖子内容"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{id} [put]
func (h *Handler) UpdatePost(c *gin.Context) {
	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	err := h.postService.Update(c.Request.Context(), c.Param("id"), req.Title, req.Content)
	if errors.Is(err, service.ErrPostNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

// DeletePost 删帖（软删除）
// @Summary 删除帖子
// @Tags 帖子
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{id} [delete]
func (h *Handler) DeletePost(c *gin.Context) {
	err := h.postService.SoftDelete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrPostNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

// GetPost 读帖
// @Summary 查询帖子
// @Tags 帖子
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{id} [get]
func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.postRepo.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.NotFound(c, "post not found")
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, post)
}

// RecordView 记一次浏览。浏览者身份取登录用户，未登录取客户端 IP；
// 去重窗口内的重复浏览静默归一。
// @Summary 记录浏览
// @Tags 帖子
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/posts/{id}/view [post]
func (h *Handler) RecordView(c *gin.Context) {
	viewer := c.GetString("user_id")
	if viewer == "" {
		viewer = c.ClientIP()
	}
	if err := h.viewService.RecordView(c.Request.Context(), c.Param("id"), viewer); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

type addCommentRequest struct {
	WriterID string `json:"writer_id" binding:"required"`
	Content  string `json:"content" binding:"required"`
}

// AddComment 评论
// @Summary 发表评论
// @Tags 评论
// @Accept json
// @Produce json
// @Param id path string true "帖子ID"
// @Param request body addCommentRequest true "评论内容"
// @Success 200 {object} response.Response
// @Router /api/v1/posts/{id}/comments [post]
func (h *Handler) AddComment(c *gin.Context) {
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	comment, err := h.postService.AddComment(c.Request.Context(), c.Param("id"), req.WriterID, req.Content)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"id": comment.ID})
}

// RemoveComment 删评论
// @Summary 删除评论
// @Tags 评论
// @Param id path string true "评论ID"
// @Success 200 {object} response.Response
// @Router /api/v1/comments/{id} [delete]
func (h *Handler) RemoveComment(c *gin.Context) {
	if err := h.postService.RemoveComment(c.Request.Context(), c.Param("id")); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

type likeRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// LikePost 点赞（幂等）
// @Summary 点赞帖子
// @Tags 点赞
// @Accept json
// @Param id path string true "帖子ID"
// @Param request body likeRequest true "点赞用户"
// @Success 200 {object} response.Response
// @Router /api/v1/posts/{id}/like [post]
func (h *Handler) LikePost(c *gin.Context) {
	var req likeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	if err := h.postService.Like(c.Request.Context(), c.Param("id"), req.UserID); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

// UnlikePost 取消点赞
// @Summary 取消点赞
// @Tags 点赞
// @Accept json
// @Param id path string true "帖子ID"
// @Param request body likeRequest true "点赞用户"
// @Success 200 {object} response.Response
// @Router /api/v1/posts/{id}/like [delete]
func (h *Handler) UnlikePost(c *gin.Context) {
	var req likeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	if err := h.postService.Unlike(c.Request.Context(), c.Param("id"), req.UserID); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

// SearchPosts 全文检索
// @Summary 搜索帖子
// @Tags 搜索
// @Param q query string true "关键词"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/search [get]
func (h *Handler) SearchPosts(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.BadRequest(c, "q is required")
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	ids, total, err := h.index.Search(q, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "total": total, "ids": ids})
}
