package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Joshua-Coded/rootrise-ledger/internal/config"
	"github.com/Joshua-Coded/rootrise-ledger/internal/logger"
	"github.com/Joshua-Coded/rootrise-ledger/internal/logic"
	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
	"github.com/Joshua-Coded/rootrise-ledger/internal/repository"
	"github.com/go-co-op/gocron/v2"
)

// SnapshotJob 定期持久化引擎状态
type SnapshotJob struct {
	engine *logic.Engine
	repo   *repository.Repository
	config *config.Config
}

// NewSnapshotJob 创建快照任务
func NewSnapshotJob(engine *logic.Engine, repo *repository.Repository, cfg *config.Config) *SnapshotJob {
	return &SnapshotJob{
		engine: engine,
		repo:   repo,
		config: cfg,
	}
}

// GetName 获取任务名称
func (j *SnapshotJob) GetName() string {
	return "engine_snapshot"
}

// GetSchedule 获取调度配置
func (j *SnapshotJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *SnapshotJob) Execute() {
	if _, err := j.Run(context.Background()); err != nil {
		logger.Error("Failed to snapshot engine: %v", err)
	}
}

// Run 保存快照并清理旧快照，返回快照的事件序号
func (j *SnapshotJob) Run(ctx context.Context) (uint64, error) {
	seq, err := SaveSnapshot(ctx, j.engine, j.repo)
	if err != nil {
		return 0, err
	}
	if err := j.repo.PruneSnapshots(j.config.Task.Snapshots); err != nil {
		return seq, fmt.Errorf("prune snapshots: %w", err)
	}
	return seq, nil
}

// SaveSnapshot 导出引擎状态写入 engine_snapshot，状态未变化时不重复写入
func SaveSnapshot(ctx context.Context, engine *logic.Engine, repo *repository.Repository) (uint64, error) {
	snap := engine.Snapshot(ctx)
	seq := snap.LastSeq()

	latest, err := repo.LatestSnapshot()
	switch {
	case err == nil && latest.LastEventSeq == seq:
		return seq, nil
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return 0, fmt.Errorf("load latest snapshot: %w", err)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return 0, fmt.Errorf("encode snapshot: %w", err)
	}
	if err := repo.SaveSnapshot(&model.SnapshotModel{LastEventSeq: seq, State: string(data)}); err != nil {
		return 0, fmt.Errorf("save snapshot: %w", err)
	}

	logger.Info("Saved engine snapshot at event %d", seq)
	return seq, nil
}

// LoadSnapshot 读取最新快照，没有快照时返回 repository.ErrNotFound
func LoadSnapshot(repo *repository.Repository) (*logic.Snapshot, error) {
	latest, err := repo.LatestSnapshot()
	if err != nil {
		return nil, err
	}

	var snap logic.Snapshot
	if err := json.Unmarshal([]byte(latest.State), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %d: %w", latest.LastEventSeq, err)
	}
	if snap.LastSeq() != latest.LastEventSeq {
		return nil, fmt.Errorf("snapshot %d holds %d events", latest.LastEventSeq, snap.LastSeq())
	}
	return &snap, nil
}
