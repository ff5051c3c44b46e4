package handler

import (
	"net/http"

	"github.com/Joshua-Coded/rootrise-ledger/internal/logic"
	"github.com/Joshua-Coded/rootrise-ledger/internal/repository"
	"github.com/gin-gonic/gin"
)

// SettlementHandler 放款与结算记录
type SettlementHandler struct {
	engine *logic.Engine
	repo   *repository.Repository
}

// NewSettlementHandler 创建结算处理器
func NewSettlementHandler(engine *logic.Engine, repo *repository.Repository) *SettlementHandler {
	return &SettlementHandler{engine: engine, repo: repo}
}

// ReleaseFunds 向农户放款
func (h *SettlementHandler) ReleaseFunds(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	id, ok := projectIDParam(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.engine.ReleaseFunds(ctx, caller, id); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	view, err := projectView(ctx, h.engine, id)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "放款成功", view)
}

// GetSettlements 获取结算记录，可按项目过滤
func (h *SettlementHandler) GetSettlements(c *gin.Context) {
	var q struct {
		repository.Page
		ProjectId int64 `form:"project_id"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	settlements, total, err := h.repo.ListSettlements(q.ProjectId, q.Page)
	if err != nil {
		QueryErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取结算记录成功", GetSettlementsResponse{
		Settlements: ToSettlementRecordResponseList(settlements),
		Pagination:  newPagination(q.Page.Page, q.Page.PageSize, total),
	})
}
