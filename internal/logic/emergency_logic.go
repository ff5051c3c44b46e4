package logic

import (
	"context"
	"fmt"

	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
	"github.com/ethereum/go-ethereum/common"
)

// Pause 暂停所有业务写操作
func (e *Engine) Pause(ctx context.Context, caller common.Address) error {
	return e.execute(ctx, caller, "pause", func(_ context.Context, tx *txn) error {
		if err := tx.requireAnyRole(model.RoleAdmin, model.RoleSuperAdmin); err != nil {
			return err
		}
		if tx.st.engine.Paused {
			return fmt.Errorf("%w: already paused", ErrInvalidState)
		}
		tx.setPaused(true)
		tx.emit(model.Event{Type: model.EventPaused})
		e.log.Warn("Ledger paused by %s", caller.Hex())
		return nil
	})
}

// Unpause 恢复
func (e *Engine) Unpause(ctx context.Context, caller common.Address) error {
	return e.execute(ctx, caller, "unpause", func(_ context.Context, tx *txn) error {
		if err := tx.requireAnyRole(model.RoleAdmin, model.RoleSuperAdmin); err != nil {
			return err
		}
		if !tx.st.engine.Paused {
			return fmt.Errorf("%w: not paused", ErrInvalidState)
		}
		tx.setPaused(false)
		tx.emit(model.Event{Type: model.EventUnpaused})
		e.log.Info("Ledger unpaused by %s", caller.Hex())
		return nil
	})
}

// EmergencyWithdraw 暂停期间把托管账户全部余额转到安全地址
func (e *Engine) EmergencyWithdraw(ctx context.Context, caller common.Address) error {
	return e.execute(ctx, caller, "emergency_withdraw", func(ctx context.Context, tx *txn) error {
		if err := tx.requireAnyRole(model.RoleAdmin, model.RoleSuperAdmin); err != nil {
			return err
		}
		if !tx.st.engine.Paused {
			return fmt.Errorf("%w: emergency withdrawal requires pause", ErrInvalidState)
		}
		safe := e.settings.SafeAddress
		if safe == (common.Address{}) {
			return fmt.Errorf("%w: no safe address configured", ErrInvalidState)
		}
		balance, err := e.token.BalanceOf(ctx, e.settings.EscrowAddress)
		if err != nil {
			return transferError("balanceOf", err)
		}
		if balance == 0 {
			return fmt.Errorf("%w: escrow is empty", ErrInvalidState)
		}

		tx.emit(model.Event{Type: model.EventEmergencyWithdrawal, Subject: safe, Amount: balance})
		if err := tx.push(ctx, safe, balance); err != nil {
			return err
		}
		e.log.Warn("Emergency withdrawal of %d to %s by %s", balance, safe.Hex(), caller.Hex())
		return nil
	})
}
