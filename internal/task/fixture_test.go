package task

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Joshua-Coded/rootrise-ledger/internal/config"
	"github.com/Joshua-Coded/rootrise-ledger/internal/event"
	"github.com/Joshua-Coded/rootrise-ledger/internal/logger"
	"github.com/Joshua-Coded/rootrise-ledger/internal/logic"
	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
	"github.com/Joshua-Coded/rootrise-ledger/internal/repository"
	"github.com/Joshua-Coded/rootrise-ledger/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin  = common.HexToAddress("0x0000000000000000000000000000000000000001")
	escrow = common.HexToAddress("0x00000000000000000000000000000000000000e5")
	farmer = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	alice  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob    = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

const day = 24 * time.Hour

type fixture struct {
	t      *testing.T
	ctx    context.Context
	engine *logic.Engine
	ledger *token.MemoryLedger
	repo   *repository.Repository
	cfg    *config.Config

	mu  sync.Mutex
	now time.Time
}

func newFixture(t *testing.T, mutate func(*config.Config)) *fixture {
	t.Helper()

	cfg := &config.Config{
		Engine: config.EngineConfig{
			SuperAdmin:          admin.Hex(),
			EscrowAddress:       escrow.Hex(),
			MinimumContribution: 1,
			MaximumDurationDays: 30,
			MaximumFundingGoal:  1_000_000,
			FarmerWorkflow:      config.WorkflowWhitelist,
			Token:               config.TokenMemory,
		},
		Task: config.TaskConfig{Interval: 3600, Workers: 2, BatchSize: 10, Snapshots: 2},
	}
	if mutate != nil {
		mutate(cfg)
	}

	db, err := repository.Open(sqlite.Open(filepath.Join(t.TempDir(), "task.db")))
	require.NoError(t, err)
	dispatcher := event.NewDispatcher(db, event.NewProcessorManager(), 0, event.WithDispatcherLogger(logger.NewNop()))

	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		ledger: token.NewMemoryLedger(),
		repo:   repository.NewRepository(db),
		cfg:    cfg,
		now:    time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC),
	}

	// 同步投影，任务扫描时读模型与引擎一致
	sink := logic.SinkFunc(func(events []model.Event) {
		for _, ev := range events {
			assert.NoError(t, dispatcher.Handle(ev))
		}
	})
	engine, err := logic.NewEngine(admin, f.ledger.Bind(escrow), cfg.Engine.Settings(escrow),
		logic.WithClock(f.clock),
		logic.WithLogger(logger.NewNop()),
		logic.WithSink(sink),
	)
	require.NoError(t, err)
	f.engine = engine
	return f
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// project 白名单农户提交项目，提交即上线
func (f *fixture) project(goal uint64, days uint32) uint64 {
	f.t.Helper()
	if !f.engine.HasRole(f.ctx, model.RoleFarmer, farmer) {
		require.NoError(f.t, f.engine.AddFarmer(f.ctx, admin, farmer))
	}
	id, err := f.engine.SubmitProject(f.ctx, farmer, logic.ProjectRequest{Title: "Harvest", FundingGoal: goal, DurationDays: days})
	require.NoError(f.t, err)
	return id
}

func (f *fixture) contribute(from common.Address, id, amount uint64) {
	f.t.Helper()
	require.NoError(f.t, f.ledger.Mint(from, amount))
	f.ledger.Approve(from, escrow, f.ledger.Allowance(from, escrow)+amount)
	require.NoError(f.t, f.engine.Contribute(f.ctx, from, id, amount))
}

func (f *fixture) status(id uint64) model.ProjectStatus {
	f.t.Helper()
	p, err := f.engine.Project(f.ctx, id)
	require.NoError(f.t, err)
	return p.Status
}

func addr(hex string) common.Address {
	return common.HexToAddress(hex)
}
