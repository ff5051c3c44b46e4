package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Joshua-Coded/rootrise-ledger/internal/chain"
	"github.com/Joshua-Coded/rootrise-ledger/internal/config"
	"github.com/Joshua-Coded/rootrise-ledger/internal/event"
	"github.com/Joshua-Coded/rootrise-ledger/internal/logger"
	"github.com/Joshua-Coded/rootrise-ledger/internal/logic"
	"github.com/Joshua-Coded/rootrise-ledger/internal/metrics"
	"github.com/Joshua-Coded/rootrise-ledger/internal/repository"
	"github.com/Joshua-Coded/rootrise-ledger/internal/router"
	"github.com/Joshua-Coded/rootrise-ledger/internal/task"
	"github.com/Joshua-Coded/rootrise-ledger/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ledger HTTP service",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	// 加载配置
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// 初始化日志
	appLogger, err := logger.NewFromConfig(cfg.Log)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	db, err := repository.Init(cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	repo := repository.NewRepository(db)

	// 初始化稳定币
	var (
		tok     token.Token
		escrow  common.Address
		chainMg *chain.Manager
	)
	switch cfg.Engine.Token {
	case config.TokenERC20:
		chainMg, err = chain.NewManager(ctx, cfg.Chain)
		if err != nil {
			return fmt.Errorf("initialize chain manager: %w", err)
		}
		defer chainMg.Close()
		erc20, err := chainMg.Token(ctx)
		if err != nil {
			return fmt.Errorf("bind token contract: %w", err)
		}
		tok, escrow = erc20, chainMg.EscrowAddress()
	default:
		escrow = common.HexToAddress(cfg.Engine.EscrowAddress)
		tok = token.NewMemoryLedger().Bind(escrow)
		logger.Warn("Using in-memory token ledger, balances are not persisted")
	}

	// 指标
	var (
		engineMetrics metrics.Metrics = metrics.NewNopMetrics()
		metricsOpt    http.Handler
	)
	if cfg.Metrics.Enabled {
		prom := metrics.NewPrometheusMetrics(cfg.Metrics.Namespace)
		engineMetrics, metricsOpt = prom, prom.Handler()
	}

	// 事件分发
	dispatcher := event.NewDispatcher(db, event.NewProcessorManager(), 1024)

	// 初始化账本引擎：优先从最新快照恢复
	settings := cfg.Engine.Settings(escrow)
	opts := []logic.Option{logic.WithMetrics(engineMetrics), logic.WithSink(dispatcher)}
	var engine *logic.Engine
	snap, err := task.LoadSnapshot(repo)
	switch {
	case err == nil:
		engine, err = logic.RestoreEngine(*snap, tok, settings, opts...)
	case errors.Is(err, repository.ErrNotFound):
		engine, err = logic.NewEngine(common.HexToAddress(cfg.Engine.SuperAdmin), tok, settings, opts...)
	}
	if err != nil {
		return fmt.Errorf("initialize ledger engine: %w", err)
	}

	// 先同步补齐读模型再启动后台协程，两者不会并发处理同一序号
	if _, err := dispatcher.Resume(ctx, engine); err != nil {
		if errors.Is(err, event.ErrReadModelAhead) || errors.Is(err, event.ErrSequenceConflict) {
			return fmt.Errorf("read models are ahead of the restored ledger, reconcile before starting: %w", err)
		}
		return fmt.Errorf("catch up read models: %w", err)
	}
	// 关停时需要把队列处理完，不跟随信号取消
	dispatcher.Start(context.Background(), engine)

	// 启动定时任务
	taskManager, err := task.NewTaskManager(engine, repo, cfg)
	if err != nil {
		return fmt.Errorf("create task manager: %w", err)
	}
	if err := taskManager.Start(); err != nil {
		return fmt.Errorf("start task manager: %w", err)
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	routerOpts := router.Options{
		Metrics: metricsOpt,
		Ready: func() map[string]interface{} {
			status := map[string]interface{}{
				"projectedSeq":  dispatcher.LastSeq(),
				"failedEvents":  dispatcher.Failed(),
				"droppedEvents": dispatcher.Dropped(),
			}
			if stored, err := repo.LastEventSeq(); err == nil {
				status["storedSeq"] = stored
			}
			return status
		},
	}
	if chainMg != nil {
		routerOpts.Chain = chainMg.GetHealthStatus
	}
	r := router.Setup(engine, repo, cfg, routerOpts)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器
	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Failed to start server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
	taskManager.Stop()
	if seq, err := task.SaveSnapshot(shutdownCtx, engine, repo); err != nil {
		logger.Error("Final snapshot failed: %v", err)
	} else {
		logger.Info("Final snapshot saved at seq %d", seq)
	}
	dispatcher.Stop()
	logger.Info("Server exited")
	return nil
}
