package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Joshua-Coded/rootrise-ledger/internal/config"
	"github.com/Joshua-Coded/rootrise-ledger/internal/logger"
	"github.com/Joshua-Coded/rootrise-ledger/internal/logic"
	"github.com/Joshua-Coded/rootrise-ledger/internal/repository"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"
)

// ProjectRefundJob 为失败项目的贡献者主动退款
type ProjectRefundJob struct {
	engine *logic.Engine
	repo   *repository.Repository
	config *config.Config
}

// NewProjectRefundJob 创建项目退款任务
func NewProjectRefundJob(engine *logic.Engine, repo *repository.Repository, cfg *config.Config) *ProjectRefundJob {
	return &ProjectRefundJob{
		engine: engine,
		repo:   repo,
		config: cfg,
	}
}

// GetName 获取任务名称
func (j *ProjectRefundJob) GetName() string {
	return "project_refund_updater"
}

// GetSchedule 获取调度配置
func (j *ProjectRefundJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *ProjectRefundJob) Execute() {
	j.Run(context.Background())
}

type refundTarget struct {
	projectID   uint64
	contributor common.Address
}

// Run 退还一批失败项目中尚未退款的贡献，返回退款笔数
func (j *ProjectRefundJob) Run(ctx context.Context) int {
	projects, err := j.repo.RefundableProjects(j.config.Task.BatchSize)
	if err != nil {
		logger.Error("Failed to fetch refundable projects: %v", err)
		return 0
	}

	var targets []refundTarget
	for _, project := range projects {
		id := uint64(project.Id)
		for _, contributor := range j.engine.Contributors(ctx, id) {
			if j.engine.Contribution(ctx, id, contributor) > 0 {
				targets = append(targets, refundTarget{projectID: id, contributor: contributor})
			}
		}
	}
	if len(targets) == 0 {
		return 0
	}

	size := j.config.Task.Workers
	if size > len(targets) {
		size = len(targets)
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		logger.Error("Failed to create refund pool of %d workers: %v", size, err)
		return 0
	}
	defer pool.Release()

	operator := j.config.OperatorAddress()
	var (
		wg       sync.WaitGroup
		refunded atomic.Int64
	)
	for _, target := range targets {
		target := target
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if j.refund(ctx, operator, target) {
				refunded.Add(1)
			}
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit refund for project %d: %v", target.projectID, err)
		}
	}
	wg.Wait()

	logger.Info("Project refund task completed. Refunded %d of %d contributions", refunded.Load(), len(targets))
	return int(refunded.Load())
}

func (j *ProjectRefundJob) refund(ctx context.Context, operator common.Address, target refundTarget) bool {
	err := j.engine.RefundContributor(ctx, operator, target.projectID, target.contributor)
	switch {
	case err == nil:
		logger.Info("Refunded %s on project %d", target.contributor.Hex(), target.projectID)
		return true
	case errors.Is(err, logic.ErrNothingToRefund):
		// 贡献者已自行领取
		logger.Debug("Contribution of %s on project %d already refunded", target.contributor.Hex(), target.projectID)
	default:
		logger.Error("Failed to refund %s on project %d: %v", target.contributor.Hex(), target.projectID, err)
	}
	return false
}
