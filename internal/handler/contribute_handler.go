package handler

import (
	"net/http"

	"github.com/Joshua-Coded/rootrise-ledger/internal/logic"
	"github.com/gin-gonic/gin"
)

// ContributeHandler 出资与出资账本查询
type ContributeHandler struct {
	engine *logic.Engine
}

// NewContributeHandler 创建出资处理器
func NewContributeHandler(engine *logic.Engine) *ContributeHandler {
	return &ContributeHandler{engine: engine}
}

// Contribute 调用者向项目出资，需事先对托管账户授权
func (h *ContributeHandler) Contribute(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	id, ok := projectIDParam(c)
	if !ok {
		return
	}
	var req ContributeRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if err := h.engine.Contribute(ctx, caller, id, req.Amount); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "出资成功", gin.H{
		"projectId":   id,
		"contributor": caller,
		"amount":      req.Amount,
		"total":       h.engine.Contribution(ctx, id, caller),
	})
}

// GetContributors 项目出资名册及当前余额
func (h *ContributeHandler) GetContributors(c *gin.Context) {
	id, ok := projectIDParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.engine.Project(ctx, id); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取出资名册成功", gin.H{
		"projectId":     id,
		"contributions": h.engine.ProjectContributions(ctx, id),
	})
}

// GetContribution 单个贡献者在项目上的出资余额
func (h *ContributeHandler) GetContribution(c *gin.Context) {
	id, ok := projectIDParam(c)
	if !ok {
		return
	}
	contributor, ok := addressParam(c, "address")
	if !ok {
		return
	}
	SuccessResponse(c, http.StatusOK, "查询成功", gin.H{
		"projectId":   id,
		"contributor": contributor,
		"amount":      h.engine.Contribution(c.Request.Context(), id, contributor),
	})
}

// GetTotalContributions 贡献者累计出资
func (h *ContributeHandler) GetTotalContributions(c *gin.Context) {
	contributor, ok := addressParam(c, "address")
	if !ok {
		return
	}
	SuccessResponse(c, http.StatusOK, "查询成功", gin.H{
		"contributor": contributor,
		"total":       h.engine.TotalContributions(c.Request.Context(), contributor),
	})
}
