package handler

import (
	"net/http"

	"github.com/Joshua-Coded/rootrise-ledger/internal/logic"
	"github.com/Joshua-Coded/rootrise-ledger/internal/repository"
	"github.com/gin-gonic/gin"
)

const maxLedgerEvents = 500

// EventHandler 审计事件查询
type EventHandler struct {
	engine *logic.Engine
	repo   *repository.Repository
}

// NewEventHandler 创建事件处理器
func NewEventHandler(engine *logic.Engine, repo *repository.Repository) *EventHandler {
	return &EventHandler{engine: engine, repo: repo}
}

// GetEvents 分页获取已落库的审计事件
func (h *EventHandler) GetEvents(c *gin.Context) {
	var q repository.EventQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	events, total, err := h.repo.ListEvents(q)
	if err != nil {
		QueryErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取事件成功", GetEventsResponse{
		Events:     ToEventResponseList(events),
		Pagination: newPagination(q.Page.Page, q.Page.PageSize, total),
	})
}

// GetLedgerEvents 直接从引擎读取序号大于 after 的事件
func (h *EventHandler) GetLedgerEvents(c *gin.Context) {
	var q struct {
		After uint64 `form:"after"`
		Limit int    `form:"limit"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if q.Limit <= 0 || q.Limit > maxLedgerEvents {
		q.Limit = maxLedgerEvents
	}

	ctx := c.Request.Context()
	SuccessResponse(c, http.StatusOK, "获取事件成功", gin.H{
		"events":  h.engine.Events(ctx, q.After, q.Limit),
		"lastSeq": h.engine.LastSeq(ctx),
	})
}
