package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Joshua-Coded/rootrise-ledger/internal/logger"
	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// EventSource 可按序号回放的事件来源，由 logic.Engine 实现
type EventSource interface {
	Events(ctx context.Context, after uint64, limit int) []model.Event
	LastSeq(ctx context.Context) uint64
}

var (
	// ErrSequenceConflict 审计表中同一序号记录的是另一条事件
	ErrSequenceConflict = errors.New("event sequence conflict")

	// ErrReadModelAhead 审计表的序号超过了引擎的事件日志
	ErrReadModelAhead = errors.New("read model ahead of engine")
)

// Dispatcher 把引擎提交的事件按序写入审计表并投影到读模型
//
// Publish 在引擎写锁内调用，只做非阻塞入队。队列满时丢弃事件并记下缺口，
// 后台协程处理完已入队的事件后从 source 回放缺口，缺口补齐之前新事件不再入队。
type Dispatcher struct {
	db         *gorm.DB
	processors *ProcessorManager
	log        *logger.Logger
	queue      chan model.Event
	wake       chan struct{}
	retries    int
	backoff    time.Duration

	mu       sync.Mutex
	closed   bool
	gap      bool
	gapFrom  uint64
	gapUntil uint64

	wg      sync.WaitGroup
	lastSeq atomic.Uint64
	failed  atomic.Uint64
	dropped atomic.Uint64
}

// DispatcherOption 分发器选项
type DispatcherOption func(*Dispatcher)

// WithRetry 单条事件处理失败时的重试次数与间隔
func WithRetry(retries int, backoff time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.retries = retries
		d.backoff = backoff
	}
}

// WithDispatcherLogger 设置日志器
func WithDispatcherLogger(l *logger.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.log = l }
}

// NewDispatcher 创建分发器，bufferSize 为队列长度
func NewDispatcher(db *gorm.DB, processors *ProcessorManager, bufferSize int, opts ...DispatcherOption) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	d := &Dispatcher{
		db:         db,
		processors: processors,
		log:        logger.Default(),
		queue:      make(chan model.Event, bufferSize),
		wake:       make(chan struct{}, 1),
		retries:    3,
		backoff:    200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Publish 实现 logic.EventSink，从不阻塞
func (d *Dispatcher) Publish(events []model.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.log.Warn("Dispatcher stopped, dropping %d events", len(events))
		return
	}
	for _, ev := range events {
		if !d.gap {
			select {
			case d.queue <- ev:
				continue
			default:
				d.gap = true
				d.gapFrom = ev.Seq - 1
				d.log.Warn("Event queue full at seq %d, deferring to replay", ev.Seq)
			}
		}
		d.gapUntil = ev.Seq
		d.dropped.Add(1)
	}
	if d.gap {
		select {
		case d.wake <- struct{}{}:
		default:
		}
	}
}

// Start 启动后台处理协程，source 用于回放队列满时未入队的事件
func (d *Dispatcher) Start(ctx context.Context, source EventSource) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case ev, ok := <-d.queue:
				if !ok {
					d.fillGap(ctx, source)
					d.log.Info("Dispatcher drained (last seq: %d)", d.lastSeq.Load())
					return
				}
				d.handleWithRetry(ctx, ev)
				if len(d.queue) == 0 {
					d.fillGap(ctx, source)
				}
			case <-d.wake:
				if len(d.queue) == 0 {
					d.fillGap(ctx, source)
				}
			}
		}
	}()
}

// fillGap 回放缺口内的事件，直到没有新的丢弃
func (d *Dispatcher) fillGap(ctx context.Context, source EventSource) {
	for {
		d.mu.Lock()
		if !d.gap {
			d.mu.Unlock()
			return
		}
		from, until := d.gapFrom, d.gapUntil
		d.mu.Unlock()

		if source == nil {
			d.log.Error("Events %d..%d were not queued and no source is attached to replay them", from+1, until)
			return
		}
		for _, ev := range source.Events(ctx, from, int(until-from)) {
			d.handleWithRetry(ctx, ev)
		}

		d.mu.Lock()
		if d.gapUntil == until {
			d.gap = false
			d.mu.Unlock()
			d.log.Info("Replayed events %d..%d", from+1, until)
			return
		}
		d.gapFrom = until
		d.mu.Unlock()
	}
}

// Stop 停止接收事件并等待队列处理完
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// LastSeq 已处理的最大事件序号
func (d *Dispatcher) LastSeq() uint64 {
	return d.lastSeq.Load()
}

// Failed 重试后仍失败的事件数
func (d *Dispatcher) Failed() uint64 {
	return d.failed.Load()
}

// Dropped 因队列满改由回放处理的事件数
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

func (d *Dispatcher) handleWithRetry(ctx context.Context, ev model.Event) {
	var err error
	for attempt := 0; attempt <= d.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(d.backoff):
			}
		}
		if err = d.Handle(ev); err == nil {
			return
		}
		if errors.Is(err, ErrSequenceConflict) {
			break
		}
		d.log.Warn("Failed to process event %d (%s), attempt %d: %v", ev.Seq, ev.Type, attempt+1, err)
	}
	d.failed.Add(1)
	d.log.Error("Giving up on event %d (%s): %v", ev.Seq, ev.Type, err)
}

// Handle 同步处理一条事件；已处理过的序号直接跳过
//
// 同一序号已存储的事件类型或内容与 ev 不同时返回 ErrSequenceConflict。
func (d *Dispatcher) Handle(ev model.Event) error {
	record, err := newEventModel(ev)
	if err != nil {
		return err
	}

	err = d.db.Transaction(func(tx *gorm.DB) error {
		var existing model.EventModel
		err := tx.Where("seq = ?", ev.Seq).First(&existing).Error
		switch {
		case err == nil && !sameEvent(existing, record):
			return fmt.Errorf("%w: seq %d stored as %s, got %s", ErrSequenceConflict, ev.Seq, existing.EventType, ev.Type)
		case err == nil && existing.Processed:
			return errAlreadyProcessed
		case err == nil:
		case errors.Is(err, gorm.ErrRecordNotFound):
			existing = record
			if err := tx.Create(&existing).Error; err != nil {
				return fmt.Errorf("store event %d: %w", ev.Seq, err)
			}
		default:
			return fmt.Errorf("load event %d: %w", ev.Seq, err)
		}

		if err := d.processors.ProcessEvent(tx, ev); err != nil {
			return err
		}
		return tx.Model(&model.EventModel{}).Where("id = ?", existing.Id).Update("processed", true).Error
	})
	if err != nil && !errors.Is(err, errAlreadyProcessed) {
		return err
	}

	d.advance(ev.Seq)
	if err == nil {
		d.log.Debug("Processed event %d (%s)", ev.Seq, ev.Type)
	}
	return nil
}

func (d *Dispatcher) advance(seq uint64) {
	for {
		last := d.lastSeq.Load()
		if seq <= last || d.lastSeq.CompareAndSwap(last, seq) {
			return
		}
	}
}

var errAlreadyProcessed = errors.New("event already processed")

// CatchUp 处理 source 中序号大于 after 的事件，返回处理条数
func (d *Dispatcher) CatchUp(ctx context.Context, source EventSource, after uint64) (int, error) {
	events := source.Events(ctx, after, 0)
	for i, ev := range events {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := d.Handle(ev); err != nil {
			return i, err
		}
	}
	if len(events) > 0 {
		d.log.Info("Caught up %d events (seq %d..%d)", len(events), events[0].Seq, events[len(events)-1].Seq)
	}
	return len(events), nil
}

// Resume 核对审计表与 source 的事件序列，然后补齐 source 中尚未处理的事件
//
// 审计表的最大序号超过 source 时返回 ErrReadModelAhead，最后一条已存储事件与
// source 中同序号的事件不一致时返回 ErrSequenceConflict。两种情况都说明引擎
// 从较旧的快照恢复，继续运行会复用序号，必须先人工对账。
func (d *Dispatcher) Resume(ctx context.Context, source EventSource) (int, error) {
	var last model.EventModel
	err := d.db.Order("seq DESC").First(&last).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return d.CatchUp(ctx, source, 0)
	case err != nil:
		return 0, fmt.Errorf("load last stored event: %w", err)
	}

	head := source.LastSeq(ctx)
	if last.Seq > head {
		return 0, fmt.Errorf("%w: stored seq %d, engine seq %d", ErrReadModelAhead, last.Seq, head)
	}
	events := source.Events(ctx, last.Seq-1, 1)
	if len(events) != 1 {
		return 0, fmt.Errorf("%w: engine has no event %d", ErrSequenceConflict, last.Seq)
	}
	record, err := newEventModel(events[0])
	if err != nil {
		return 0, err
	}
	if !sameEvent(last, record) {
		return 0, fmt.Errorf("%w: seq %d stored as %s, engine has %s", ErrSequenceConflict, last.Seq, last.EventType, record.EventType)
	}

	return d.CatchUp(ctx, source, last.Seq-1)
}

func newEventModel(ev model.Event) (model.EventModel, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return model.EventModel{}, fmt.Errorf("encode event %d: %w", ev.Seq, err)
	}
	record := model.EventModel{
		Seq:       ev.Seq,
		EventType: string(ev.Type),
		ProjectId: int64(ev.ProjectID),
		Actor:     model.AddressKey(ev.Actor),
		Data:      string(data),
		EmittedAt: ev.Timestamp,
	}
	if ev.Subject != (common.Address{}) {
		record.Subject = model.AddressKey(ev.Subject)
	}
	return record, nil
}

// sameEvent 比较事件类型与序列化内容
func sameEvent(stored, record model.EventModel) bool {
	return stored.EventType == record.EventType && stored.Data == record.Data
}
