package handler

import (
	"context"
	"net/http"

	"github.com/Joshua-Coded/rootrise-ledger/internal/logic"
	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

type roleOp func(ctx context.Context, caller common.Address, role model.Role, account common.Address) error

type accountOp func(ctx context.Context, caller, account common.Address) error

// RoleHandler 角色管理
type RoleHandler struct {
	engine *logic.Engine
}

// NewRoleHandler 创建角色处理器
func NewRoleHandler(engine *logic.Engine) *RoleHandler {
	return &RoleHandler{engine: engine}
}

// GrantRole 授予角色
func (h *RoleHandler) GrantRole(c *gin.Context) {
	h.changeRole(c, h.engine.GrantRole, "角色授予成功")
}

// RevokeRole 撤销角色
func (h *RoleHandler) RevokeRole(c *gin.Context) {
	h.changeRole(c, h.engine.RevokeRole, "角色撤销成功")
}

func (h *RoleHandler) changeRole(c *gin.Context, op roleOp, message string) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	var req RoleRequest
	if !bindJSON(c, &req) {
		return
	}
	account, ok := parseAddress(req.Account)
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "无效的账户地址")
		return
	}

	if err := op(c.Request.Context(), caller, req.Role, account); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, message, gin.H{"role": req.Role, "account": account})
}

// RenounceRole 放弃调用者自己的角色
func (h *RoleHandler) RenounceRole(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	var req RenounceRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.engine.RenounceRole(c.Request.Context(), caller, req.Role); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "角色已放弃", gin.H{"role": req.Role, "account": caller})
}

// AddGovernmentOfficial 添加政府监管账户
func (h *RoleHandler) AddGovernmentOfficial(c *gin.Context) {
	h.accountAction(c, h.engine.AddGovernmentOfficial, "监管账户添加成功")
}

// AddFarmer 白名单方式添加农户
func (h *RoleHandler) AddFarmer(c *gin.Context) {
	h.accountAction(c, h.engine.AddFarmer, "农户添加成功")
}

func (h *RoleHandler) accountAction(c *gin.Context, op accountOp, message string) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	var req AccountRequest
	if !bindJSON(c, &req) {
		return
	}
	account, ok := parseAddress(req.Account)
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "无效的账户地址")
		return
	}

	if err := op(c.Request.Context(), caller, account); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, message, gin.H{"account": account})
}

// RemoveFarmer 移除农户角色
func (h *RoleHandler) RemoveFarmer(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	farmer, ok := addressParam(c, "address")
	if !ok {
		return
	}

	if err := h.engine.RemoveFarmer(c.Request.Context(), caller, farmer); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "农户已移除", gin.H{"account": farmer})
}

// GetRoleMembers 获取角色成员
func (h *RoleHandler) GetRoleMembers(c *gin.Context) {
	role, ok := roleParam(c)
	if !ok {
		return
	}
	SuccessResponse(c, http.StatusOK, "获取角色成员成功", gin.H{
		"role":    role,
		"members": h.engine.RoleMembers(c.Request.Context(), role),
	})
}

// HasRole 查询账户是否持有角色
func (h *RoleHandler) HasRole(c *gin.Context) {
	role, ok := roleParam(c)
	if !ok {
		return
	}
	account, ok := addressParam(c, "address")
	if !ok {
		return
	}
	SuccessResponse(c, http.StatusOK, "查询成功", gin.H{
		"role":    role,
		"account": account,
		"hasRole": h.engine.HasRole(c.Request.Context(), role, account),
	})
}

func roleParam(c *gin.Context) (model.Role, bool) {
	role, err := model.ParseRole(c.Param("role"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的角色")
		return 0, false
	}
	return role, true
}
