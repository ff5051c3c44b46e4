package handler

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// CallerHeader 上游认证网关写入的调用者地址
const CallerHeader = "X-Caller-Address"

const callerKey = "caller"

// CallerMiddleware 解析调用者地址；请求头存在但不是合法地址时拒绝请求
func CallerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(CallerHeader)
		if raw == "" {
			c.Next()
			return
		}
		addr, ok := parseAddress(raw)
		if !ok {
			ErrorResponse(c, http.StatusBadRequest, "无效的调用者地址")
			c.Abort()
			return
		}
		c.Set(callerKey, addr)
		c.Next()
	}
}

// requireCaller 写操作必须带调用者身份
func requireCaller(c *gin.Context) (common.Address, bool) {
	if v, ok := c.Get(callerKey); ok {
		if addr, ok := v.(common.Address); ok {
			return addr, true
		}
	}
	ErrorResponse(c, http.StatusUnauthorized, "缺少调用者身份")
	return common.Address{}, false
}

func parseAddress(s string) (common.Address, bool) {
	if !common.IsHexAddress(s) {
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}

// addressParam 解析路径中的地址参数
func addressParam(c *gin.Context, name string) (common.Address, bool) {
	addr, ok := parseAddress(c.Param(name))
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "无效的地址")
	}
	return addr, ok
}

// projectIDParam 解析路径中的项目 ID
func projectIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return 0, false
	}
	return id, true
}

// bindJSON 解析请求体
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
