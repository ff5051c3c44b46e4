package handler

import (
	"context"
	"net/http"

	"github.com/Joshua-Coded/rootrise-ledger/internal/logic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

type callerOp func(ctx context.Context, caller common.Address) error

// EmergencyHandler 暂停控制、紧急提取与全局状态
type EmergencyHandler struct {
	engine *logic.Engine
}

// NewEmergencyHandler 创建紧急操作处理器
func NewEmergencyHandler(engine *logic.Engine) *EmergencyHandler {
	return &EmergencyHandler{engine: engine}
}

// Pause 暂停账本
func (h *EmergencyHandler) Pause(c *gin.Context) {
	h.run(c, h.engine.Pause, "账本已暂停")
}

// Unpause 恢复账本
func (h *EmergencyHandler) Unpause(c *gin.Context) {
	h.run(c, h.engine.Unpause, "账本已恢复")
}

// EmergencyWithdraw 暂停期间提取全部托管余额
func (h *EmergencyHandler) EmergencyWithdraw(c *gin.Context) {
	h.run(c, h.engine.EmergencyWithdraw, "紧急提取成功")
}

func (h *EmergencyHandler) run(c *gin.Context, op callerOp, message string) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	if err := op(c.Request.Context(), caller); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	h.respondState(c, message)
}

// GetState 获取账本全局状态
func (h *EmergencyHandler) GetState(c *gin.Context) {
	h.respondState(c, "获取状态成功")
}

func (h *EmergencyHandler) respondState(c *gin.Context, message string) {
	ctx := c.Request.Context()
	balance, err := h.engine.EscrowBalance(ctx)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	settings := h.engine.Settings()
	SuccessResponse(c, http.StatusOK, message, StateView{
		EngineState:         h.engine.State(ctx),
		EscrowBalance:       balance,
		MaximumFundingGoal:  settings.MaximumFundingGoal,
		LastEventSeq:        h.engine.LastSeq(ctx),
		RequiresApplication: settings.RequireApplication,
	})
}
