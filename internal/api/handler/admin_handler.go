package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/community/internal/service"
	"github.com/d60-Lab/community/pkg/response"
)

// TriggerReindex 按需触发批量重建，立即返回不等结果。
// 上一轮还在跑时拒绝（409），不排队。
// @Summary 触发搜索索引批量重建
// @Tags 管理
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/admin/search/reindex [post]
func (h *Handler) TriggerReindex(c *gin.Context) {
	err := h.scheduler.Trigger(h.syncJobName)
	if errors.Is(err, service.ErrJobRunning) {
		response.Conflict(c, "reindex already running")
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"job": h.syncJobName, "status": "started"})
}
