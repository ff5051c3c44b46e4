package handler

import (
	"errors"
	"net/http"

	"github.com/Joshua-Coded/rootrise-ledger/internal/logger"
	"github.com/Joshua-Coded/rootrise-ledger/internal/logic"
	"github.com/Joshua-Coded/rootrise-ledger/internal/repository"
	"github.com/gin-gonic/gin"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// errorStatus 错误分类对应的 HTTP 状态码
var errorStatus = map[string]int{
	"Unauthorized":              http.StatusForbidden,
	"InvalidArgument":           http.StatusBadRequest,
	"ProjectNotFound":           http.StatusNotFound,
	"InvalidState":              http.StatusConflict,
	"NoPendingApplication":      http.StatusConflict,
	"AlreadyApproved":           http.StatusConflict,
	"AlreadyReleased":           http.StatusConflict,
	"NothingToRefund":           http.StatusConflict,
	"DeadlineNotReached":        http.StatusConflict,
	"DeadlinePassed":            http.StatusConflict,
	"GoalNotMet":                http.StatusConflict,
	"ContractPaused":            http.StatusServiceUnavailable,
	"SelfContributionForbidden": http.StatusUnprocessableEntity,
	"BelowMinimumContribution":  http.StatusUnprocessableEntity,
	"InsufficientAllowance":     http.StatusUnprocessableEntity,
	"InsufficientBalance":       http.StatusUnprocessableEntity,
	"AmountOverflow":            http.StatusUnprocessableEntity,
	"TransferFailed":            http.StatusBadGateway,
	"TransferPending":           http.StatusAccepted,
}

// StatusOf 引擎错误对应的 HTTP 状态码
func StatusOf(err error) int {
	if status, ok := errorStatus[logic.Code(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// EngineErrorResponse 引擎操作失败响应，Code 为错误分类
func EngineErrorResponse(c *gin.Context, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request %s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, Response{
		Success: false,
		Message: err.Error(),
		Code:    logic.Code(err),
	})
}

// QueryErrorResponse 读模型查询失败响应
func QueryErrorResponse(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		ErrorResponse(c, http.StatusNotFound, "记录不存在")
		return
	}
	logger.Error("Query %s failed: %v", c.FullPath(), err)
	ErrorResponse(c, http.StatusInternalServerError, err.Error())
}
