package handler

import (
	"net/http"

	"github.com/Joshua-Coded/rootrise-ledger/internal/logic"
	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
	"github.com/Joshua-Coded/rootrise-ledger/internal/repository"
	"github.com/gin-gonic/gin"
)

// FarmerHandler 农户审核
type FarmerHandler struct {
	engine *logic.Engine
	repo   *repository.Repository
}

// NewFarmerHandler 创建农户处理器
func NewFarmerHandler(engine *logic.Engine, repo *repository.Repository) *FarmerHandler {
	return &FarmerHandler{engine: engine, repo: repo}
}

// SubmitApplication 调用者提交审核申请
func (h *FarmerHandler) SubmitApplication(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	var req ApplicationRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if err := h.engine.SubmitApplication(ctx, caller, req.EvidenceReference, req.PayoutReference); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	app, _ := h.engine.FarmerApplication(ctx, caller)
	SuccessResponse(c, http.StatusCreated, "申请提交成功", app)
}

// ApproveFarmer 通过申请
func (h *FarmerHandler) ApproveFarmer(c *gin.Context) {
	h.review(c, h.engine.ApproveFarmer, "申请已通过")
}

// RejectFarmer 拒绝申请
func (h *FarmerHandler) RejectFarmer(c *gin.Context) {
	h.review(c, h.engine.RejectFarmer, "申请已拒绝")
}

func (h *FarmerHandler) review(c *gin.Context, op accountOp, message string) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	farmer, ok := addressParam(c, "address")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := op(ctx, caller, farmer); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	app, _ := h.engine.FarmerApplication(ctx, farmer)
	SuccessResponse(c, http.StatusOK, message, app)
}

// GetApplication 获取农户当前申请
func (h *FarmerHandler) GetApplication(c *gin.Context) {
	farmer, ok := addressParam(c, "address")
	if !ok {
		return
	}
	app, found := h.engine.FarmerApplication(c.Request.Context(), farmer)
	if !found {
		ErrorResponse(c, http.StatusNotFound, "申请不存在")
		return
	}
	SuccessResponse(c, http.StatusOK, "获取申请成功", app)
}

// GetApplications 按状态分页获取申请记录
func (h *FarmerHandler) GetApplications(c *gin.Context) {
	var q struct {
		repository.Page
		Status model.ApplicationStatus `form:"status"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	apps, total, err := h.repo.ListFarmerApplications(q.Status, q.Page)
	if err != nil {
		QueryErrorResponse(c, err)
		return
	}

	result := make([]FarmerApplicationResponse, len(apps))
	for i := range apps {
		result[i] = ToFarmerApplicationResponse(&apps[i])
	}
	SuccessResponse(c, http.StatusOK, "获取申请列表成功", GetFarmerApplicationsResponse{
		Applications: result,
		Pagination:   newPagination(q.Page.Page, q.Page.PageSize, total),
	})
}

// IsFarmerApproved 农户是否可以提交项目
func (h *FarmerHandler) IsFarmerApproved(c *gin.Context) {
	farmer, ok := addressParam(c, "address")
	if !ok {
		return
	}
	SuccessResponse(c, http.StatusOK, "查询成功", gin.H{
		"farmer":   farmer,
		"approved": h.engine.IsFarmerApproved(c.Request.Context(), farmer),
	})
}
