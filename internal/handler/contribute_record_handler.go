package handler

import (
	"net/http"

	"github.com/Joshua-Coded/rootrise-ledger/internal/repository"
	"github.com/gin-gonic/gin"
)

// ContributeRecordHandler 贡献记录查询
type ContributeRecordHandler struct {
	repo *repository.Repository
}

// NewContributeRecordHandler 创建贡献记录处理器
func NewContributeRecordHandler(repo *repository.Repository) *ContributeRecordHandler {
	return &ContributeRecordHandler{repo: repo}
}

// GetProjectContributeRecords 获取项目贡献记录
func (h *ContributeRecordHandler) GetProjectContributeRecords(c *gin.Context) {
	id, ok := projectIDParam(c)
	if !ok {
		return
	}
	var page repository.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	records, total, err := h.repo.ListContributions(int64(id), page)
	if err != nil {
		QueryErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取项目贡献记录成功", GetProjectContributeRecordsResponse{
		Records:    ToContributeRecordResponseList(records),
		Pagination: newPagination(page.Page, page.PageSize, total),
	})
}

// GetContributeStats 获取贡献统计信息
func (h *ContributeRecordHandler) GetContributeStats(c *gin.Context) {
	id, ok := projectIDParam(c)
	if !ok {
		return
	}
	stats, err := h.repo.GetContributionStats(int64(id))
	if err != nil {
		QueryErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取贡献统计信息成功", stats)
}
