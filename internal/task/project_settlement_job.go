package task

import (
	"context"
	"errors"
	"time"

	"github.com/Joshua-Coded/rootrise-ledger/internal/config"
	"github.com/Joshua-Coded/rootrise-ledger/internal/logger"
	"github.com/Joshua-Coded/rootrise-ledger/internal/logic"
	"github.com/Joshua-Coded/rootrise-ledger/internal/repository"
	"github.com/go-co-op/gocron/v2"
)

// ProjectSettlementJob 自动为已达标项目放款，仅在 task.auto_release 开启时注册
type ProjectSettlementJob struct {
	engine *logic.Engine
	repo   *repository.Repository
	config *config.Config
}

// NewProjectSettlementJob 创建项目结算任务
func NewProjectSettlementJob(engine *logic.Engine, repo *repository.Repository, cfg *config.Config) *ProjectSettlementJob {
	return &ProjectSettlementJob{
		engine: engine,
		repo:   repo,
		config: cfg,
	}
}

// GetName 获取任务名称
func (j *ProjectSettlementJob) GetName() string {
	return "project_settlement_updater"
}

// GetSchedule 获取调度配置
func (j *ProjectSettlementJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *ProjectSettlementJob) Execute() {
	j.Run(context.Background())
}

// Run 放款一批已达标项目，返回放款数量
func (j *ProjectSettlementJob) Run(ctx context.Context) int {
	requireDeadline := j.engine.Settings().ReleaseRequiresDeadline
	projects, err := j.repo.ReleasableProjects(j.engine.Now(), requireDeadline, j.config.Task.BatchSize)
	if err != nil {
		logger.Error("Failed to fetch releasable projects: %v", err)
		return 0
	}
	if len(projects) == 0 {
		return 0
	}

	operator := j.config.OperatorAddress()
	released := 0
	for _, project := range projects {
		err := j.engine.ReleaseFunds(ctx, operator, uint64(project.Id))
		switch {
		case err == nil:
			logger.Info("Released %d to farmer %s for project %d", project.AmountRaised, project.FarmerAddress, project.Id)
			released++
		case errors.Is(err, logic.ErrAlreadyReleased), errors.Is(err, logic.ErrInvalidState), errors.Is(err, logic.ErrDeadlineNotReached):
			logger.Debug("Skip releasing project %d: %v", project.Id, err)
		default:
			logger.Error("Failed to release project %d: %v", project.Id, err)
		}
	}

	logger.Info("Project settlement task completed. Released %d of %d projects", released, len(projects))
	return released
}
