package task

import (
	"fmt"

	"github.com/Joshua-Coded/rootrise-ledger/internal/config"
	"github.com/Joshua-Coded/rootrise-ledger/internal/logger"
	"github.com/Joshua-Coded/rootrise-ledger/internal/logic"
	"github.com/Joshua-Coded/rootrise-ledger/internal/repository"
	"github.com/go-co-op/gocron/v2"
)

// Job 定时任务
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// TaskManager 任务管理器
type TaskManager struct {
	scheduler gocron.Scheduler
	engine    *logic.Engine
	repo      *repository.Repository
	config    *config.Config
	jobs      []Job
}

// NewTaskManager 创建新的任务管理器
func NewTaskManager(engine *logic.Engine, repo *repository.Repository, cfg *config.Config) (*TaskManager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &TaskManager{
		scheduler: s,
		engine:    engine,
		repo:      repo,
		config:    cfg,
	}, nil
}

// Start 注册所有任务并启动调度器
func (m *TaskManager) Start() error {
	if err := m.RegisterJobs(); err != nil {
		return err
	}
	m.scheduler.Start()

	logger.Info("Task manager started with %d jobs", len(m.jobs))
	return nil
}

// RegisterJobs 注册所有任务
func (m *TaskManager) RegisterJobs() error {
	jobs := []Job{
		NewProjectFinishJob(m.engine, m.repo, m.config),
		NewProjectRefundJob(m.engine, m.repo, m.config),
		NewSnapshotJob(m.engine, m.repo, m.config),
	}
	if m.config.Task.AutoRelease {
		jobs = append(jobs, NewProjectSettlementJob(m.engine, m.repo, m.config))
	}

	for _, job := range jobs {
		if err := m.RegisterJob(job); err != nil {
			return err
		}
	}
	return nil
}

// RegisterJob 注册单个任务，同名任务不会并发执行
func (m *TaskManager) RegisterJob(job Job) error {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", job.GetName(), err)
	}
	m.jobs = append(m.jobs, job)
	return nil
}

// Jobs 已注册的任务
func (m *TaskManager) Jobs() []Job {
	return m.jobs
}

// Stop 停止任务管理器，等待执行中的任务结束
func (m *TaskManager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
