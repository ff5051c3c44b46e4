package router

import (
	"context"
	"net/http"
	"time"

	"github.com/Joshua-Coded/rootrise-ledger/internal/config"
	"github.com/Joshua-Coded/rootrise-ledger/internal/handler"
	"github.com/Joshua-Coded/rootrise-ledger/internal/logger"
	"github.com/Joshua-Coded/rootrise-ledger/internal/logic"
	"github.com/Joshua-Coded/rootrise-ledger/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader 请求 ID 头
const RequestIDHeader = "X-Request-ID"

// Options 可选组件
type Options struct {
	Metrics http.Handler                                     // 为 nil 时不暴露指标
	Chain   func(ctx context.Context) map[string]interface{} // 链上 token 健康状态
	Ready   func() map[string]interface{}                    // 事件分发等后台组件状态
}

// Setup 注册中间件与全部路由
func Setup(engine *logic.Engine, repo *repository.Repository, cfg *config.Config, opts Options) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(requestIDMiddleware())
	r.Use(loggerMiddleware())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		status := gin.H{
			"status":  "ok",
			"service": "rootrise-ledger",
			"paused":  engine.Paused(c.Request.Context()),
			"lastSeq": engine.LastSeq(c.Request.Context()),
		}
		if opts.Chain != nil {
			status["chain"] = opts.Chain(c.Request.Context())
		}
		if opts.Ready != nil {
			for k, v := range opts.Ready() {
				status[k] = v
			}
		}
		c.JSON(http.StatusOK, status)
	})

	if opts.Metrics != nil && cfg.Metrics.Enabled {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(opts.Metrics))
	}

	roleHandler := handler.NewRoleHandler(engine)
	farmerHandler := handler.NewFarmerHandler(engine, repo)
	projectHandler := handler.NewProjectHandler(engine, repo)
	contributeHandler := handler.NewContributeHandler(engine)
	contributeRecordHandler := handler.NewContributeRecordHandler(repo)
	refundHandler := handler.NewRefundHandler(engine)
	refundRecordHandler := handler.NewRefundRecordHandler(repo)
	settlementHandler := handler.NewSettlementHandler(engine, repo)
	emergencyHandler := handler.NewEmergencyHandler(engine)
	eventHandler := handler.NewEventHandler(engine, repo)

	// API版本组
	v1 := r.Group("/api/v1")
	v1.Use(handler.CallerMiddleware())
	{
		// 角色
		roles := v1.Group("/roles")
		{
			roles.POST("/grant", roleHandler.GrantRole)
			roles.POST("/revoke", roleHandler.RevokeRole)
			roles.POST("/renounce", roleHandler.RenounceRole)
			roles.GET("/:role", roleHandler.GetRoleMembers)
			roles.GET("/:role/:address", roleHandler.HasRole)
		}
		v1.POST("/government-officials", roleHandler.AddGovernmentOfficial)

		// 农户
		farmers := v1.Group("/farmers")
		{
			farmers.POST("", roleHandler.AddFarmer)
			farmers.DELETE("/:address", roleHandler.RemoveFarmer)
			farmers.GET("/:address/approved", farmerHandler.IsFarmerApproved)
			farmers.POST("/:address/projects", projectHandler.CreateProjectForFarmer)
		}
		applications := v1.Group("/farmer-applications")
		{
			applications.POST("", farmerHandler.SubmitApplication)
			applications.GET("", farmerHandler.GetApplications)
			applications.GET("/:address", farmerHandler.GetApplication)
			applications.POST("/:address/approve", farmerHandler.ApproveFarmer)
			applications.POST("/:address/reject", farmerHandler.RejectFarmer)
		}

		// 项目
		projects := v1.Group("/projects")
		{
			projects.POST("", projectHandler.SubmitProject)
			projects.GET("", projectHandler.GetProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.POST("/:id/approve", projectHandler.ApproveProject)
			projects.POST("/:id/close", projectHandler.CloseFailedProject)
			projects.POST("/:id/release", settlementHandler.ReleaseFunds)

			projects.POST("/:id/contributions", contributeHandler.Contribute)
			projects.GET("/:id/contributions", contributeRecordHandler.GetProjectContributeRecords)
			projects.GET("/:id/contributors", contributeHandler.GetContributors)
			projects.GET("/:id/contributors/:address", contributeHandler.GetContribution)
			projects.GET("/:id/stats", contributeRecordHandler.GetContributeStats)

			projects.POST("/:id/refund", refundHandler.ClaimRefund)
			projects.POST("/:id/refunds/:address", refundHandler.RefundContributor)
			projects.GET("/:id/refunds", refundRecordHandler.GetProjectRefunds)
		}
		v1.GET("/contributors/:address/total", contributeHandler.GetTotalContributions)
		v1.GET("/settlements", settlementHandler.GetSettlements)

		// 紧急控制与全局状态
		v1.GET("/state", emergencyHandler.GetState)
		v1.POST("/pause", emergencyHandler.Pause)
		v1.POST("/unpause", emergencyHandler.Unpause)
		v1.POST("/emergency-withdraw", emergencyHandler.EmergencyWithdraw)

		// 审计事件
		v1.GET("/events", eventHandler.GetEvents)
		v1.GET("/ledger/events", eventHandler.GetLedgerEvents)
	}

	return r
}

// requestIDMiddleware 沿用上游请求 ID，没有时生成
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// loggerMiddleware 请求日志
func loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		format := "%s %s %d %s caller=%s request_id=%s"
		args := []interface{}{c.Request.Method, c.Request.URL.Path, status, time.Since(start),
			c.GetHeader(handler.CallerHeader), c.GetString("request_id")}
		if status >= http.StatusInternalServerError {
			logger.Error(format, args...)
			return
		}
		logger.Debug(format, args...)
	}
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, "+handler.CallerHeader+", "+RequestIDHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
