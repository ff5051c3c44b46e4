package logic

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
	"github.com/ethereum/go-ethereum/common"
)

type txnKey struct{}

// txn 一次写操作的撤销日志
//
// 所有状态写入都经由 txn 的方法完成，每次写入登记一条撤销函数；
// 失败时倒序执行撤销，成功时由 Engine.commit 发布缓冲的事件。
type txn struct {
	engine *Engine
	st     *state
	caller common.Address
	now    time.Time
	undo   []func()
	events []model.Event
	done   atomic.Bool
}

// activeTxn 返回 ctx 中属于本引擎且仍在进行的事务
func (e *Engine) activeTxn(ctx context.Context) *txn {
	if ctx == nil {
		return nil
	}
	tx, ok := ctx.Value(txnKey{}).(*txn)
	if !ok || tx.engine != e || tx.done.Load() {
		return nil
	}
	return tx
}

func (tx *txn) onRollback(f func()) {
	tx.undo = append(tx.undo, f)
}

func (tx *txn) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
	tx.events = nil
}

func (tx *txn) merge(child *txn) {
	tx.undo = append(tx.undo, child.undo...)
	tx.events = append(tx.events, child.events...)
}

// emit 缓冲事件，Actor 与 Timestamp 由事务填充
func (tx *txn) emit(ev model.Event) {
	ev.Actor = tx.caller
	ev.Timestamp = tx.now
	tx.events = append(tx.events, ev)
}

// ---- 守卫 ----

func (tx *txn) hasRole(role model.Role, account common.Address) bool {
	_, ok := tx.st.roles[role][account]
	return ok
}

func (tx *txn) requireAnyRole(roles ...model.Role) error {
	for _, role := range roles {
		if tx.hasRole(role, tx.caller) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s lacks %v", ErrUnauthorized, tx.caller.Hex(), roles)
}

func (tx *txn) requireNotPaused() error {
	if tx.st.engine.Paused {
		return ErrContractPaused
	}
	return nil
}

func (tx *txn) project(id uint64) (model.Project, error) {
	p, ok := tx.st.projects[id]
	if !ok {
		return model.Project{}, fmt.Errorf("%w: %d", ErrProjectNotFound, id)
	}
	return p, nil
}

// ---- 写入 ----

func (tx *txn) addRole(role model.Role, account common.Address) bool {
	members := tx.st.roles[role]
	if _, ok := members[account]; ok {
		return false
	}
	members[account] = struct{}{}
	tx.onRollback(func() { delete(members, account) })
	return true
}

func (tx *txn) removeRole(role model.Role, account common.Address) bool {
	members := tx.st.roles[role]
	if _, ok := members[account]; !ok {
		return false
	}
	delete(members, account)
	tx.onRollback(func() { members[account] = struct{}{} })
	return true
}

func (tx *txn) putApplication(app model.FarmerApplication) {
	apps := tx.st.applications
	prev, existed := apps[app.FarmerAddress]
	apps[app.FarmerAddress] = app
	tx.onRollback(func() {
		if existed {
			apps[app.FarmerAddress] = prev
		} else {
			delete(apps, app.FarmerAddress)
		}
	})
}

func (tx *txn) putProject(p model.Project) {
	projects := tx.st.projects
	prev, existed := projects[p.ID]
	projects[p.ID] = p
	tx.onRollback(func() {
		if existed {
			projects[p.ID] = prev
		} else {
			delete(projects, p.ID)
		}
	})
}

func (tx *txn) nextProjectID() uint64 {
	es := &tx.st.engine
	es.ProjectCounter++
	tx.onRollback(func() { es.ProjectCounter-- })
	return es.ProjectCounter
}

func (tx *txn) setPaused(paused bool) {
	es := &tx.st.engine
	prev := es.Paused
	es.Paused = paused
	tx.onRollback(func() { es.Paused = prev })
}

// setContribution 写入账本；首次写入时登记到贡献者名册
func (tx *txn) setContribution(projectID uint64, contributor common.Address, amount uint64) {
	ledger, ok := tx.st.contributions[projectID]
	if !ok {
		ledger = make(map[common.Address]uint64)
		tx.st.contributions[projectID] = ledger
		tx.onRollback(func() { delete(tx.st.contributions, projectID) })
	}

	prev, seen := ledger[contributor]
	ledger[contributor] = amount
	if seen {
		tx.onRollback(func() { ledger[contributor] = prev })
		return
	}
	tx.onRollback(func() { delete(ledger, contributor) })

	roster := tx.st.rosters[projectID]
	tx.st.rosters[projectID] = append(roster, contributor)
	tx.onRollback(func() { tx.st.rosters[projectID] = roster })
}

func (tx *txn) setTotal(account common.Address, total uint64) {
	totals := tx.st.totals
	prev, existed := totals[account]
	totals[account] = total
	tx.onRollback(func() {
		if existed {
			totals[account] = prev
		} else {
			delete(totals, account)
		}
	})
}

// ---- 外部交互 ----

// pull 从 owner 拉取 amount 到托管账户
func (tx *txn) pull(ctx context.Context, owner common.Address, amount uint64) error {
	escrow := tx.engine.settings.EscrowAddress
	if err := tx.engine.token.TransferFrom(ctx, owner, escrow, amount); err != nil {
		return transferError("transferFrom", err)
	}
	return nil
}

// push 从托管账户转出 amount 到 to
func (tx *txn) push(ctx context.Context, to common.Address, amount uint64) error {
	if err := tx.engine.token.Transfer(ctx, to, amount); err != nil {
		return transferError("transfer", err)
	}
	return nil
}

func transferError(method string, err error) error {
	if Code(err) == "Internal" {
		return fmt.Errorf("%s: %w: %w", method, ErrTransferFailed, err)
	}
	return fmt.Errorf("%s: %w", method, err)
}
