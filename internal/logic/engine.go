package logic

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Joshua-Coded/rootrise-ledger/internal/logger"
	"github.com/Joshua-Coded/rootrise-ledger/internal/metrics"
	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
	"github.com/Joshua-Coded/rootrise-ledger/internal/token"
	"github.com/ethereum/go-ethereum/common"
)

// Settings 引擎参数，创建后不可修改
type Settings struct {
	EscrowAddress           common.Address // 托管账户，即 token 调用方身份
	SafeAddress             common.Address // 紧急提取的收款地址
	MinimumContribution     uint64
	MaximumDurationDays     uint32
	MaximumFundingGoal      uint64
	ReleaseRequiresDeadline bool // 放款是否需要等到截止时间
	CloseRequiresAdmin      bool // 关闭失败项目是否仅限 Admin/Government
	RequireApplication      bool // false 时为白名单模式：无需申请，项目提交即上线
}

// DefaultSettings 默认参数（金额单位为 6 位小数稳定币的最小单位）
func DefaultSettings() Settings {
	return Settings{
		MinimumContribution: 1_000_000,
		MaximumDurationDays: 365,
		MaximumFundingGoal:  1_000_000_000_000,
		RequireApplication:  true,
	}
}

// Validate 校验参数
func (s Settings) Validate() error {
	if s.EscrowAddress == (common.Address{}) {
		return fmt.Errorf("%w: escrow address is required", ErrInvalidArgument)
	}
	if s.MinimumContribution == 0 {
		return fmt.Errorf("%w: minimum contribution must be positive", ErrInvalidArgument)
	}
	if s.MaximumDurationDays == 0 {
		return fmt.Errorf("%w: maximum duration must be positive", ErrInvalidArgument)
	}
	if s.MaximumFundingGoal == 0 {
		return fmt.Errorf("%w: maximum funding goal must be positive", ErrInvalidArgument)
	}
	return nil
}

// EventSink 已提交事件的订阅者，在引擎锁内按提交顺序调用，实现不应长时间阻塞
type EventSink interface {
	Publish(events []model.Event)
}

// SinkFunc 函数形式的 EventSink
type SinkFunc func(events []model.Event)

// Publish 实现 EventSink
func (f SinkFunc) Publish(events []model.Event) { f(events) }

// Option 引擎选项
type Option func(*Engine)

// WithClock 替换时钟，测试使用
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithLogger 设置日志器
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithMetrics 设置指标
func WithMetrics(m metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithSink 追加事件订阅者
func WithSink(sink EventSink) Option {
	return func(e *Engine) { e.sinks = append(e.sinks, sink) }
}

// Engine 众筹资金账本引擎
//
// 所有写操作由 mu 串行化，并在撤销日志中执行：任一前置条件或 token 调用失败时，
// 该调用的全部效果被撤销。读操作在读锁下并发执行。
type Engine struct {
	mu       sync.RWMutex
	st       *state
	token    token.Token
	settings Settings
	clock    func() time.Time
	log      *logger.Logger
	metrics  metrics.Metrics
	sinks    []EventSink
}

type state struct {
	roles         map[model.Role]map[common.Address]struct{}
	applications  map[common.Address]model.FarmerApplication
	projects      map[uint64]model.Project
	contributions map[uint64]map[common.Address]uint64
	rosters       map[uint64][]common.Address
	totals        map[common.Address]uint64
	engine        model.EngineState
	events        []model.Event
}

func newState(settings Settings) *state {
	st := &state{
		roles:         make(map[model.Role]map[common.Address]struct{}),
		applications:  make(map[common.Address]model.FarmerApplication),
		projects:      make(map[uint64]model.Project),
		contributions: make(map[uint64]map[common.Address]uint64),
		rosters:       make(map[uint64][]common.Address),
		totals:        make(map[common.Address]uint64),
		engine: model.EngineState{
			MinimumContribution: settings.MinimumContribution,
			MaximumDurationDays: settings.MaximumDurationDays,
		},
	}
	for _, role := range model.Roles {
		st.roles[role] = make(map[common.Address]struct{})
	}
	return st
}

// NewEngine 创建引擎，superAdmin 获得 SuperAdmin 与 Admin 角色
func NewEngine(superAdmin common.Address, tok token.Token, settings Settings, opts ...Option) (*Engine, error) {
	if superAdmin == (common.Address{}) {
		return nil, fmt.Errorf("%w: super admin is required", ErrInvalidArgument)
	}
	if tok == nil {
		return nil, fmt.Errorf("%w: token is required", ErrInvalidArgument)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	e := newEngine(newState(settings), tok, settings, opts...)
	err := e.execute(context.Background(), superAdmin, "initialize", func(_ context.Context, tx *txn) error {
		for _, role := range []model.Role{model.RoleSuperAdmin, model.RoleAdmin} {
			tx.addRole(role, superAdmin)
			tx.emit(model.Event{Type: model.EventRoleGranted, Role: role, Subject: superAdmin})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("Ledger engine initialized (super admin: %s, escrow: %s, workflow: %s)",
		superAdmin.Hex(), settings.EscrowAddress.Hex(), workflowName(settings))
	return e, nil
}

func newEngine(st *state, tok token.Token, settings Settings, opts ...Option) *Engine {
	e := &Engine{
		st:       st,
		token:    tok,
		settings: settings,
		clock:    time.Now,
		log:      logger.Default(),
		metrics:  metrics.NewNopMetrics(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func workflowName(s Settings) string {
	if s.RequireApplication {
		return "application"
	}
	return "whitelist"
}

// Settings 引擎参数
func (e *Engine) Settings() Settings {
	return e.settings
}

// Now 引擎时钟的当前时间，截止判断以此为准
func (e *Engine) Now() time.Time {
	return e.clock()
}

// execute 执行一次写操作
//
// ctx 中已存在本引擎的进行中事务时（token 回调重入），在该事务内嵌套执行，不再加锁；
// 嵌套调用失败只撤销自身效果，成功则并入外层事务，随外层一起提交或撤销。
// 转账结果未知（ErrTransferPending）时按成功提交，同时把错误返回给调用方。
func (e *Engine) execute(ctx context.Context, caller common.Address, op string, fn func(ctx context.Context, tx *txn) error) (err error) {
	defer func() {
		e.metrics.ObserveOperation(op, Code(err))
	}()

	if parent := e.activeTxn(ctx); parent != nil {
		child := &txn{engine: e, st: e.st, caller: caller, now: parent.now}
		err := fn(context.WithValue(ctx, txnKey{}, child), child)
		if err != nil && !errors.Is(err, ErrTransferPending) {
			child.rollback()
			return err
		}
		child.done.Store(true)
		parent.merge(child)
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tx := &txn{engine: e, st: e.st, caller: caller, now: e.clock()}
	defer tx.done.Store(true)
	defer func() {
		if r := recover(); r != nil {
			tx.rollback()
			panic(r)
		}
	}()

	err = fn(context.WithValue(ctx, txnKey{}, tx), tx)
	switch {
	case err == nil:
	case errors.Is(err, ErrTransferPending):
		e.log.Warn("%s by %s committed with unconfirmed transfer: %v", op, caller.Hex(), err)
	default:
		tx.rollback()
		e.log.Debug("%s by %s rejected: %v", op, caller.Hex(), err)
		return err
	}

	e.commit(tx)
	return err
}

// commit 为事件分配序号并追加到审计日志，然后通知订阅者。调用方需持有写锁
func (e *Engine) commit(tx *txn) {
	if len(tx.events) == 0 {
		return
	}

	committed := make([]model.Event, len(tx.events))
	for i, ev := range tx.events {
		ev.Seq = uint64(len(e.st.events)) + 1
		e.st.events = append(e.st.events, ev)
		committed[i] = ev
		e.observeEvent(ev)
	}

	for _, sink := range e.sinks {
		sink.Publish(committed)
	}
}

func (e *Engine) observeEvent(ev model.Event) {
	switch ev.Type {
	case model.EventContributionMade:
		e.metrics.ObserveTransfer("contribution", ev.Amount)
	case model.EventFundsReleased:
		e.metrics.ObserveTransfer("release", ev.Amount)
	case model.EventRefundClaimed:
		e.metrics.ObserveTransfer("refund", ev.Amount)
	case model.EventEmergencyWithdrawal:
		e.metrics.ObserveTransfer("emergency", ev.Amount)
	case model.EventPaused:
		e.metrics.SetPaused(true)
	case model.EventUnpaused:
		e.metrics.SetPaused(false)
	case model.EventProjectCreated:
		e.metrics.SetProjects(e.st.engine.ProjectCounter)
	}
}

// view 在读锁下执行只读查询；在进行中事务内（重入）直接读取
func (e *Engine) view(ctx context.Context, fn func(st *state)) {
	if e.activeTxn(ctx) != nil {
		fn(e.st)
		return
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(e.st)
}
