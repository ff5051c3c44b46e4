package handler

import (
	"net/http"

	"github.com/Joshua-Coded/rootrise-ledger/internal/logic"
	"github.com/gin-gonic/gin"
)

// RefundHandler 失败项目退款
type RefundHandler struct {
	engine *logic.Engine
}

// NewRefundHandler 创建退款处理器
func NewRefundHandler(engine *logic.Engine) *RefundHandler {
	return &RefundHandler{engine: engine}
}

// ClaimRefund 调用者领取自己的退款
func (h *RefundHandler) ClaimRefund(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	id, ok := projectIDParam(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	amount := h.engine.Contribution(ctx, id, caller)
	if err := h.engine.ClaimRefund(ctx, caller, id); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "退款成功", gin.H{"projectId": id, "contributor": caller, "amount": amount})
}

// RefundContributor Admin/Government 为指定贡献者退款
func (h *RefundHandler) RefundContributor(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	id, ok := projectIDParam(c)
	if !ok {
		return
	}
	contributor, ok := addressParam(c, "address")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	amount := h.engine.Contribution(ctx, id, contributor)
	if err := h.engine.RefundContributor(ctx, caller, id, contributor); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "退款成功", gin.H{"projectId": id, "contributor": contributor, "amount": amount})
}
