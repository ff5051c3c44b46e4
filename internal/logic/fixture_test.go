package logic

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Joshua-Coded/rootrise-ledger/internal/logger"
	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
	"github.com/Joshua-Coded/rootrise-ledger/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	superAdmin  = common.HexToAddress("0x0000000000000000000000000000000000000001")
	escrow      = common.HexToAddress("0x00000000000000000000000000000000000000e5")
	safe        = common.HexToAddress("0x000000000000000000000000000000000000005a")
	farmer      = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	contributor = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	backer      = common.HexToAddress("0x00000000000000000000000000000000000000c2")
	official    = common.HexToAddress("0x0000000000000000000000000000000000000090")
	stranger    = common.HexToAddress("0x0000000000000000000000000000000000000bad")
)

var startTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	t      *testing.T
	ctx    context.Context
	engine *Engine
	ledger *token.MemoryLedger

	mu     sync.Mutex
	now    time.Time
	events []model.Event
}

func newFixture(t *testing.T, opts ...func(*Settings)) *fixture {
	t.Helper()
	return newFixtureWithToken(t, nil, opts...)
}

// newFixtureWithToken wrap 为 nil 时直接使用内存 token
func newFixtureWithToken(t *testing.T, wrap func(*token.MemoryToken) token.Token, opts ...func(*Settings)) *fixture {
	t.Helper()

	settings := DefaultSettings()
	settings.EscrowAddress = escrow
	settings.SafeAddress = safe
	settings.MinimumContribution = 10
	settings.MaximumFundingGoal = 1_000_000
	for _, opt := range opts {
		opt(&settings)
	}

	f := &fixture{t: t, ctx: context.Background(), ledger: token.NewMemoryLedger(), now: startTime}
	var tok token.Token = f.ledger.Bind(escrow)
	if wrap != nil {
		tok = wrap(f.ledger.Bind(escrow))
	}

	engine, err := NewEngine(superAdmin, tok, settings,
		WithClock(f.clock),
		WithLogger(logger.NewNop()),
		WithSink(SinkFunc(f.record)),
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

func (f *fixture) record(events []model.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, events...)
}

func (f *fixture) published() []model.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Event(nil), f.events...)
}

// fund 铸币并授权给托管账户
func (f *fixture) fund(account common.Address, amount uint64) {
	f.t.Helper()
	require.NoError(f.t, f.ledger.Mint(account, amount))
	f.ledger.Approve(account, escrow, f.ledger.Allowance(account, escrow)+amount)
}

// approvedFarmer 提交申请并由 superAdmin 审核通过
func (f *fixture) approvedFarmer(addr common.Address) {
	f.t.Helper()
	require.NoError(f.t, f.engine.SubmitApplication(f.ctx, addr, "ipfs://evidence", "bank:001"))
	require.NoError(f.t, f.engine.ApproveFarmer(f.ctx, superAdmin, addr))
}

// activeProject 创建并审批一个项目
func (f *fixture) activeProject(goal uint64, days uint32) uint64 {
	f.t.Helper()
	if !f.engine.HasRole(f.ctx, model.RoleFarmer, farmer) {
		f.approvedFarmer(farmer)
	}
	id, err := f.engine.SubmitProject(f.ctx, farmer, ProjectRequest{
		Title:        "Maize season",
		FundingGoal:  goal,
		DurationDays: days,
	})
	require.NoError(f.t, err)
	require.NoError(f.t, f.engine.ApproveProject(f.ctx, superAdmin, id))
	return id
}

func (f *fixture) project(id uint64) model.Project {
	f.t.Helper()
	p, err := f.engine.Project(f.ctx, id)
	require.NoError(f.t, err)
	return p
}

// sumEntries 账本条目之和
func (f *fixture) sumEntries(id uint64) uint64 {
	var sum uint64
	for _, c := range f.engine.ProjectContributions(f.ctx, id) {
		sum += c.Amount
	}
	return sum
}

const day = 24 * time.Hour
