package event

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Joshua-Coded/rootrise-ledger/internal/logger"
	"github.com/Joshua-Coded/rootrise-ledger/internal/logic"
	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
	"github.com/Joshua-Coded/rootrise-ledger/internal/repository"
	"github.com/Joshua-Coded/rootrise-ledger/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	admin    = common.HexToAddress("0x0000000000000000000000000000000000000001")
	escrow   = common.HexToAddress("0x00000000000000000000000000000000000000e5")
	safe     = common.HexToAddress("0x000000000000000000000000000000000000005a")
	farmer   = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	alice    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob      = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	observer = common.HexToAddress("0x0000000000000000000000000000000000000090")
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repository.Open(sqlite.Open(filepath.Join(t.TempDir(), "ledger.db")))
	require.NoError(t, err)
	return db
}

type harness struct {
	ctx    context.Context
	now    time.Time
	engine *logic.Engine
	ledger *token.MemoryLedger
}

func newHarness(t *testing.T, sink logic.EventSink) *harness {
	t.Helper()
	h := &harness{
		ctx:    context.Background(),
		now:    time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		ledger: token.NewMemoryLedger(),
	}
	settings := logic.DefaultSettings()
	settings.EscrowAddress = escrow
	settings.SafeAddress = safe
	settings.MinimumContribution = 1

	opts := []logic.Option{logic.WithClock(func() time.Time { return h.now }), logic.WithLogger(logger.NewNop())}
	if sink != nil {
		opts = append(opts, logic.WithSink(sink))
	}
	engine, err := logic.NewEngine(admin, h.ledger.Bind(escrow), settings, opts...)
	require.NoError(t, err)
	h.engine = engine
	return h
}

func (h *harness) fund(t *testing.T, account common.Address, amount uint64) {
	require.NoError(t, h.ledger.Mint(account, amount))
	h.ledger.Approve(account, escrow, amount)
}

// runLifecycle 一个成功项目、一个失败并退款的项目
func (h *harness) runLifecycle(t *testing.T) (funded, failed uint64) {
	ctx := h.ctx
	require.NoError(t, h.engine.AddGovernmentOfficial(ctx, admin, observer))
	require.NoError(t, h.engine.SubmitApplication(ctx, farmer, "ipfs://evidence", "bank:7"))
	require.NoError(t, h.engine.ApproveFarmer(ctx, observer, farmer))

	var err error
	funded, err = h.engine.SubmitProject(ctx, farmer, logic.ProjectRequest{Title: "Groundnuts", FundingGoal: 100, DurationDays: 10})
	require.NoError(t, err)
	failed, err = h.engine.SubmitProject(ctx, farmer, logic.ProjectRequest{Title: "Sesame", FundingGoal: 1000, DurationDays: 2})
	require.NoError(t, err)
	require.NoError(t, h.engine.ApproveProject(ctx, admin, funded))
	require.NoError(t, h.engine.ApproveProject(ctx, observer, failed))

	h.fund(t, alice, 200)
	h.fund(t, bob, 200)
	require.NoError(t, h.engine.Contribute(ctx, alice, funded, 30))
	require.NoError(t, h.engine.Contribute(ctx, bob, funded, 50))
	require.NoError(t, h.engine.Contribute(ctx, alice, funded, 20))
	require.NoError(t, h.engine.Contribute(ctx, bob, failed, 70))
	require.NoError(t, h.engine.ReleaseFunds(ctx, observer, funded))

	h.now = h.now.Add(48 * time.Hour)
	require.NoError(t, h.engine.CloseFailedProject(ctx, alice, failed))
	require.NoError(t, h.engine.ClaimRefund(ctx, bob, failed))
	return funded, failed
}

func TestDispatcher_ProjectsReadModels(t *testing.T) {
	db := newTestDB(t)
	// 队列很小，大部分事件需要从引擎回放
	d := NewDispatcher(db, NewProcessorManager(), 4, WithDispatcherLogger(logger.NewNop()))
	h := newHarness(t, d)
	d.Start(context.Background(), h.engine)

	funded, failed := h.runLifecycle(t)
	d.Stop()

	repo := repository.NewRepository(db)
	assert.Equal(t, h.engine.LastSeq(h.ctx), d.LastSeq())
	assert.Zero(t, d.Failed())

	p, err := repo.GetProject(int64(funded))
	require.NoError(t, err)
	assert.Equal(t, "Groundnuts", p.Title)
	assert.Equal(t, model.AddressKey(farmer), p.FarmerAddress)
	assert.Equal(t, "bank:7", p.PayoutReference)
	assert.Equal(t, uint64(100), p.AmountRaised)
	assert.Equal(t, int64(2), p.ContributorCount)
	assert.Equal(t, model.ProjectStatusClosed, p.Status)
	assert.True(t, p.FundsReleased)
	assert.NotNil(t, p.ApprovedAt)
	assert.Equal(t, model.AddressKey(admin), p.ApprovedBy)

	q, err := repo.GetProject(int64(failed))
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusFailed, q.Status)
	assert.Zero(t, q.AmountRaised)
	assert.Equal(t, uint64(70), q.AmountRefunded)
	assert.NotNil(t, q.ClosedAt)

	contributions, total, err := repo.ListContributions(int64(funded), repository.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, contributions, 3)

	stats, err := repo.GetContributionStats(int64(funded))
	require.NoError(t, err)
	assert.Equal(t, uint64(100), stats.TotalAmount)
	assert.Equal(t, int64(2), stats.UniqueContributors)
	assert.Equal(t, uint64(33), stats.AverageAmount)

	refunds, _, err := repo.ListRefunds(int64(failed), repository.Page{})
	require.NoError(t, err)
	require.Len(t, refunds, 1)
	assert.Equal(t, model.AddressKey(bob), refunds[0].Address)
	assert.Equal(t, model.AddressKey(bob), refunds[0].Operator)

	settlements, _, err := repo.ListSettlements(0, repository.Page{})
	require.NoError(t, err)
	require.Len(t, settlements, 1)
	assert.Equal(t, model.SettlementTypeRelease, settlements[0].SettlementType)
	assert.Equal(t, uint64(100), settlements[0].TotalAmount)
	assert.Equal(t, "bank:7", settlements[0].PayoutReference)

	app, err := repo.GetFarmerApplication(farmer.Hex())
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationStatusApproved, app.Status)
	assert.Equal(t, model.AddressKey(observer), app.ReviewedBy)
	assert.Equal(t, int64(1), app.Submissions)

	events, total, err := repo.ListEvents(repository.EventQuery{Page: repository.Page{PageSize: 100}})
	require.NoError(t, err)
	assert.Equal(t, int64(h.engine.LastSeq(h.ctx)), total)
	for i, ev := range events {
		assert.Equal(t, uint64(i+1), ev.Seq)
		assert.True(t, ev.Processed)
	}

	last, err := repo.LastEventSeq()
	require.NoError(t, err)
	assert.Equal(t, h.engine.LastSeq(h.ctx), last)
}

func TestDispatcher_HandleIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	h := newHarness(t, nil)
	h.runLifecycle(t)

	d := NewDispatcher(db, NewProcessorManager(), 0, WithDispatcherLogger(logger.NewNop()))
	n, err := d.CatchUp(h.ctx, h.engine, 0)
	require.NoError(t, err)
	assert.Equal(t, int(h.engine.LastSeq(h.ctx)), n)

	// 再次回放不会产生重复记录
	_, err = d.CatchUp(h.ctx, h.engine, 0)
	require.NoError(t, err)

	var contributions int64
	require.NoError(t, db.Model(&model.ContributeRecordModel{}).Count(&contributions).Error)
	assert.Equal(t, int64(4), contributions)

	p, err := repository.NewRepository(db).GetProject(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), p.AmountRaised)
}

type failingProcessor struct{ calls int }

func (p *failingProcessor) Process(*gorm.DB, model.Event) error {
	p.calls++
	return errors.New("projection unavailable")
}
func (p *failingProcessor) GetName() string { return "failing" }
func (p *failingProcessor) GetEventTypes() []model.EventType {
	return []model.EventType{model.EventPaused}
}

func TestDispatcher_FailedEventRollsBack(t *testing.T) {
	db := newTestDB(t)
	pm := NewProcessorManager()
	fp := &failingProcessor{}
	pm.RegisterProcessor(fp)

	d := NewDispatcher(db, pm, 8, WithRetry(2, time.Millisecond), WithDispatcherLogger(logger.NewNop()))
	h := newHarness(t, d)
	d.Start(context.Background(), h.engine)
	require.NoError(t, h.engine.Pause(h.ctx, admin))
	d.Stop()

	assert.Equal(t, 3, fp.calls)
	assert.Equal(t, uint64(1), d.Failed())

	var stored int64
	require.NoError(t, db.Model(&model.EventModel{}).Where("event_type = ?", model.EventPaused).Count(&stored).Error)
	assert.Zero(t, stored)

	// 停止后发布的事件被丢弃
	d.Publish([]model.Event{{Seq: 99, Type: model.EventUnpaused}})
}

func TestProcessorManager_SupportedEventTypes(t *testing.T) {
	pm := NewProcessorManager()
	types := pm.GetSupportedEventTypes()
	assert.Contains(t, types, model.EventProjectCreated)
	assert.Contains(t, types, model.EventEmergencyWithdrawal)
	assert.NotContains(t, types, model.EventPaused)
	assert.Len(t, pm.GetProcessors(model.EventContributionMade), 2)
}
