package task

import (
	"testing"

	"github.com/Joshua-Coded/rootrise-ledger/internal/config"
	"github.com/Joshua-Coded/rootrise-ledger/internal/logger"
	"github.com/Joshua-Coded/rootrise-ledger/internal/logic"
	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
	"github.com/Joshua-Coded/rootrise-ledger/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectFinishJob(t *testing.T) {
	f := newFixture(t, nil)
	short := f.project(1000, 2)
	long := f.project(1000, 20)
	reached := f.project(50, 2)
	f.contribute(alice, short, 30)
	f.contribute(alice, reached, 50)

	job := NewProjectFinishJob(f.engine, f.repo, f.cfg)
	assert.Equal(t, "project_finish_updater", job.GetName())
	assert.Zero(t, job.Run(f.ctx))

	f.advance(3 * day)
	assert.Equal(t, 1, job.Run(f.ctx))
	assert.Equal(t, model.ProjectStatusFailed, f.status(short))
	assert.Equal(t, model.ProjectStatusActive, f.status(long))
	assert.Equal(t, model.ProjectStatusActive, f.status(reached))

	p, err := f.repo.GetProject(int64(short))
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusFailed, p.Status)

	assert.Zero(t, job.Run(f.ctx))
}

func TestProjectFinishJob_RequiresAdminOperator(t *testing.T) {
	f := newFixture(t, func(c *config.Config) {
		c.Engine.CloseRequiresAdmin = true
		c.Engine.Operator = bob.Hex()
	})
	id := f.project(1000, 1)
	f.advance(2 * day)

	job := NewProjectFinishJob(f.engine, f.repo, f.cfg)
	assert.Zero(t, job.Run(f.ctx))
	assert.Equal(t, model.ProjectStatusActive, f.status(id))

	require.NoError(t, f.engine.GrantRole(f.ctx, admin, model.RoleAdmin, bob))
	assert.Equal(t, 1, job.Run(f.ctx))
}

func TestProjectRefundJob(t *testing.T) {
	f := newFixture(t, nil)
	id := f.project(1000, 1)
	f.contribute(alice, id, 40)
	f.contribute(bob, id, 60)
	f.contribute(alice, id, 10)

	f.advance(day)
	require.NoError(t, f.engine.CloseFailedProject(f.ctx, bob, id))
	// bob 自行领取，任务只需处理 alice
	require.NoError(t, f.engine.ClaimRefund(f.ctx, bob, id))

	job := NewProjectRefundJob(f.engine, f.repo, f.cfg)
	assert.Equal(t, "project_refund_updater", job.GetName())
	assert.Equal(t, 1, job.Run(f.ctx))

	assert.Equal(t, uint64(50), f.ledger.Balance(alice))
	assert.Equal(t, uint64(60), f.ledger.Balance(bob))
	assert.Zero(t, f.ledger.Balance(escrow))
	assert.Zero(t, f.engine.Contribution(f.ctx, id, alice))

	refunds, total, err := f.repo.ListRefunds(int64(id), repository.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, r := range refunds {
		if r.Address == model.AddressKey(alice) {
			assert.Equal(t, model.AddressKey(admin), r.Operator)
		}
	}

	assert.Zero(t, job.Run(f.ctx))
}

func TestProjectRefundJob_ManyContributors(t *testing.T) {
	f := newFixture(t, nil)
	id := f.project(100_000, 1)
	contributors := []string{
		"0x0000000000000000000000000000000000000c01",
		"0x0000000000000000000000000000000000000c02",
		"0x0000000000000000000000000000000000000c03",
		"0x0000000000000000000000000000000000000c04",
		"0x0000000000000000000000000000000000000c05",
	}
	for i, hex := range contributors {
		f.contribute(addr(hex), id, uint64(10*(i+1)))
	}
	f.advance(day)
	require.NoError(t, f.engine.CloseFailedProject(f.ctx, alice, id))

	job := NewProjectRefundJob(f.engine, f.repo, f.cfg)
	assert.Equal(t, len(contributors), job.Run(f.ctx))
	for i, hex := range contributors {
		assert.Equal(t, uint64(10*(i+1)), f.ledger.Balance(addr(hex)))
	}

	p, err := f.repo.GetProject(int64(id))
	require.NoError(t, err)
	assert.Zero(t, p.AmountRaised)
	assert.Equal(t, uint64(150), p.AmountRefunded)
}

func TestProjectSettlementJob(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.Engine.ReleaseRequiresDeadline = true })
	id := f.project(100, 5)
	pending := f.project(100, 5)
	f.contribute(alice, id, 70)
	f.contribute(bob, id, 40)
	f.contribute(alice, pending, 20)

	job := NewProjectSettlementJob(f.engine, f.repo, f.cfg)
	assert.Equal(t, "project_settlement_updater", job.GetName())
	assert.Zero(t, job.Run(f.ctx))

	f.advance(5 * day)
	assert.Equal(t, 1, job.Run(f.ctx))
	assert.Equal(t, uint64(110), f.ledger.Balance(farmer))
	assert.Equal(t, model.ProjectStatusClosed, f.status(id))
	assert.Equal(t, model.ProjectStatusActive, f.status(pending))

	settlements, _, err := f.repo.ListSettlements(int64(id), repository.Page{})
	require.NoError(t, err)
	require.Len(t, settlements, 1)
	assert.Equal(t, uint64(110), settlements[0].TotalAmount)

	assert.Zero(t, job.Run(f.ctx))
}

func TestSnapshotJob(t *testing.T) {
	f := newFixture(t, nil)
	job := NewSnapshotJob(f.engine, f.repo, f.cfg)
	assert.Equal(t, "engine_snapshot", job.GetName())

	first, err := job.Run(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, f.engine.LastSeq(f.ctx), first)

	// 状态未变化时不重复保存
	again, err := job.Run(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	id := f.project(100, 3)
	_, err = job.Run(f.ctx)
	require.NoError(t, err)
	f.contribute(alice, id, 25)
	last, err := job.Run(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, f.engine.LastSeq(f.ctx), last)

	var count int64
	require.NoError(t, f.repo.DB().Model(&model.SnapshotModel{}).Count(&count).Error)
	assert.Equal(t, int64(f.cfg.Task.Snapshots), count)

	snap, err := LoadSnapshot(f.repo)
	require.NoError(t, err)
	assert.Equal(t, last, snap.LastSeq())

	restored, err := logic.RestoreEngine(*snap, f.ledger.Bind(escrow), f.engine.Settings(),
		logic.WithClock(f.clock), logic.WithLogger(logger.NewNop()))
	require.NoError(t, err)
	assert.Equal(t, uint64(25), restored.Contribution(f.ctx, id, alice))
	assert.Equal(t, f.engine.LastSeq(f.ctx), restored.LastSeq(f.ctx))
}

func TestLoadSnapshot_Empty(t *testing.T) {
	f := newFixture(t, nil)
	_, err := LoadSnapshot(f.repo)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTaskManager(t *testing.T) {
	f := newFixture(t, nil)
	m, err := NewTaskManager(f.engine, f.repo, f.cfg)
	require.NoError(t, err)
	require.NoError(t, m.Start())
	defer m.Stop()

	names := make([]string, 0, len(m.Jobs()))
	for _, job := range m.Jobs() {
		names = append(names, job.GetName())
	}
	assert.Equal(t, []string{"project_finish_updater", "project_refund_updater", "engine_snapshot"}, names)
}

func TestTaskManager_AutoRelease(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.Task.AutoRelease = true })
	m, err := NewTaskManager(f.engine, f.repo, f.cfg)
	require.NoError(t, err)
	require.NoError(t, m.RegisterJobs())
	assert.Len(t, m.Jobs(), 4)
}
