package handler

import (
	"context"
	"net/http"

	"github.com/Joshua-Coded/rootrise-ledger/internal/logic"
	"github.com/Joshua-Coded/rootrise-ledger/internal/repository"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

type projectOp func(ctx context.Context, caller common.Address, projectID uint64) error

// ProjectHandler 项目生命周期
type ProjectHandler struct {
	engine *logic.Engine
	repo   *repository.Repository
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(engine *logic.Engine, repo *repository.Repository) *ProjectHandler {
	return &ProjectHandler{engine: engine, repo: repo}
}

// SubmitProject 农户提交项目
func (h *ProjectHandler) SubmitProject(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	var req logic.ProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	id, err := h.engine.SubmitProject(c.Request.Context(), caller, req)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	h.respondProject(c, http.StatusCreated, "项目创建成功", id)
}

// CreateProjectForFarmer Admin 代农户提交项目
func (h *ProjectHandler) CreateProjectForFarmer(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	farmer, ok := addressParam(c, "address")
	if !ok {
		return
	}
	var req logic.ProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	id, err := h.engine.CreateProjectForFarmer(c.Request.Context(), caller, farmer, req)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	h.respondProject(c, http.StatusCreated, "项目创建成功", id)
}

// ApproveProject 审批项目上线
func (h *ProjectHandler) ApproveProject(c *gin.Context) {
	h.projectAction(c, h.engine.ApproveProject, "项目审批成功")
}

// CloseFailedProject 关闭截止后未达标的项目
func (h *ProjectHandler) CloseFailedProject(c *gin.Context) {
	h.projectAction(c, h.engine.CloseFailedProject, "项目已关闭")
}

func (h *ProjectHandler) projectAction(c *gin.Context, op projectOp, message string) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	id, ok := projectIDParam(c)
	if !ok {
		return
	}

	if err := op(c.Request.Context(), caller, id); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	h.respondProject(c, http.StatusOK, message, id)
}

// GetProject 获取项目当前状态
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, ok := projectIDParam(c)
	if !ok {
		return
	}
	h.respondProject(c, http.StatusOK, "获取项目成功", id)
}

// GetProjects 分页获取项目列表
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	var q repository.ProjectQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	projects, total, err := h.repo.ListProjects(q)
	if err != nil {
		QueryErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取项目列表成功", GetProjectsResponse{
		Projects:   ToProjectResponseList(projects),
		Pagination: newPagination(q.Page.Page, q.Page.PageSize, total),
	})
}

func (h *ProjectHandler) respondProject(c *gin.Context, status int, message string, id uint64) {
	view, err := projectView(c.Request.Context(), h.engine, id)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, status, message, view)
}

func projectView(ctx context.Context, engine *logic.Engine, id uint64) (ProjectView, error) {
	p, err := engine.Project(ctx, id)
	if err != nil {
		return ProjectView{}, err
	}
	return ProjectView{
		Project:        p,
		DisplayStatus:  p.DisplayStatus(),
		GoalReached:    p.GoalReached(),
		DeadlinePassed: p.DeadlinePassed(engine.Now()),
		Contributors:   len(engine.Contributors(ctx, id)),
	}, nil
}

