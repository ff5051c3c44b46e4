package handler

import (
	"net/http"

	"github.com/Joshua-Coded/rootrise-ledger/internal/repository"
	"github.com/gin-gonic/gin"
)

// RefundRecordHandler 退款记录查询
type RefundRecordHandler struct {
	repo *repository.Repository
}

// NewRefundRecordHandler 创建退款记录处理器
func NewRefundRecordHandler(repo *repository.Repository) *RefundRecordHandler {
	return &RefundRecordHandler{repo: repo}
}

// GetProjectRefunds 获取项目退款记录
func (h *RefundRecordHandler) GetProjectRefunds(c *gin.Context) {
	id, ok := projectIDParam(c)
	if !ok {
		return
	}
	var page repository.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	refunds, total, err := h.repo.ListRefunds(int64(id), page)
	if err != nil {
		QueryErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取项目退款记录成功", GetProjectRefundsResponse{
		Refunds:    ToRefundRecordResponseList(refunds),
		Pagination: newPagination(page.Page, page.PageSize, total),
	})
}
