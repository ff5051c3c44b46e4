package logic

import (
	"context"

	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
)

// State 引擎全局状态快照
func (e *Engine) State(ctx context.Context) model.EngineState {
	var es model.EngineState
	e.view(ctx, func(st *state) {
		es = st.engine
	})
	return es
}

// Paused 是否处于暂停状态
func (e *Engine) Paused(ctx context.Context) bool {
	return e.State(ctx).Paused
}

// EscrowBalance 托管账户的 token 余额
func (e *Engine) EscrowBalance(ctx context.Context) (uint64, error) {
	balance, err := e.token.BalanceOf(ctx, e.settings.EscrowAddress)
	if err != nil {
		return 0, transferError("balanceOf", err)
	}
	return balance, nil
}
