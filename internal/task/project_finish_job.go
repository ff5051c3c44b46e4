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

// ProjectFinishJob 关闭截止后未达标的项目
type ProjectFinishJob struct {
	engine *logic.Engine
	repo   *repository.Repository
	config *config.Config
}

// NewProjectFinishJob 创建项目完成任务
func NewProjectFinishJob(engine *logic.Engine, repo *repository.Repository, cfg *config.Config) *ProjectFinishJob {
	return &ProjectFinishJob{
		engine: engine,
		repo:   repo,
		config: cfg,
	}
}

// GetName 获取任务名称
func (j *ProjectFinishJob) GetName() string {
	return "project_finish_updater"
}

// GetSchedule 获取调度配置
func (j *ProjectFinishJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *ProjectFinishJob) Execute() {
	j.Run(context.Background())
}

// Run 处理一批已过期项目，返回成功关闭的数量
func (j *ProjectFinishJob) Run(ctx context.Context) int {
	projects, err := j.repo.ExpiredProjects(j.engine.Now(), j.config.Task.BatchSize)
	if err != nil {
		logger.Error("Failed to fetch expired projects: %v", err)
		return 0
	}
	if len(projects) == 0 {
		return 0
	}

	operator := j.config.OperatorAddress()
	closed := 0
	for _, project := range projects {
		err := j.engine.CloseFailedProject(ctx, operator, uint64(project.Id))
		switch {
		case err == nil:
			logger.Info("Project %d failed to reach goal: %d/%d", project.Id, project.AmountRaised, project.FundingGoal)
			closed++
		case errors.Is(err, logic.ErrInvalidState), errors.Is(err, logic.ErrDeadlineNotReached):
			// 读模型滞后于引擎，以引擎为准
			logger.Debug("Skip closing project %d: %v", project.Id, err)
		default:
			logger.Error("Failed to close project %d: %v", project.Id, err)
		}
	}

	logger.Info("Project finish task completed. Closed %d of %d projects", closed, len(projects))
	return closed
}
