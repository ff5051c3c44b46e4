package logic

import (
	"context"
	"fmt"
	"math"

	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
	"github.com/ethereum/go-ethereum/common"
)

// Contribute 向募集中的项目出资，资金通过 transferFrom 拉入托管账户
func (e *Engine) Contribute(ctx context.Context, caller common.Address, projectID uint64, amount uint64) error {
	return e.execute(ctx, caller, "contribute", func(ctx context.Context, tx *txn) error {
		if err := tx.requireNotPaused(); err != nil {
			return err
		}
		p, err := tx.project(projectID)
		if err != nil {
			return err
		}
		if p.Status != model.ProjectStatusActive {
			return fmt.Errorf("%w: project %d is %s", ErrInvalidState, projectID, p.Status)
		}
		if p.DeadlinePassed(tx.now) {
			return fmt.Errorf("%w: project %d", ErrDeadlinePassed, projectID)
		}
		if amount < tx.st.engine.MinimumContribution {
			return fmt.Errorf("%w: %d < %d", ErrBelowMinimumContribution, amount, tx.st.engine.MinimumContribution)
		}
		if caller == p.FarmerAddress {
			return ErrSelfContributionForbidden
		}

		entry, err := addAmount(tx.st.contributions[projectID][caller], amount)
		if err != nil {
			return err
		}
		raised, err := addAmount(p.AmountRaised, amount)
		if err != nil {
			return err
		}
		total, err := addAmount(tx.st.totals[caller], amount)
		if err != nil {
			return err
		}

		tx.setContribution(projectID, caller, entry)
		tx.setTotal(caller, total)
		p.AmountRaised = raised
		tx.putProject(p)

		tx.emit(model.Event{
			Type:      model.EventContributionMade,
			ProjectID: projectID,
			Subject:   caller,
			Amount:    amount,
		})

		return tx.pull(ctx, caller, amount)
	})
}

// addAmount 带溢出检查的加法
func addAmount(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, fmt.Errorf("%w: %d + %d", ErrAmountOverflow, a, b)
	}
	return a + b, nil
}

// Contribution 查询贡献者在项目上的当前余额（退款后为 0）
func (e *Engine) Contribution(ctx context.Context, projectID uint64, contributor common.Address) uint64 {
	var amount uint64
	e.view(ctx, func(st *state) {
		amount = st.contributions[projectID][contributor]
	})
	return amount
}

// Contributors 项目贡献者名册，按首次出资顺序
func (e *Engine) Contributors(ctx context.Context, projectID uint64) []common.Address {
	var roster []common.Address
	e.view(ctx, func(st *state) {
		roster = append([]common.Address(nil), st.rosters[projectID]...)
	})
	return roster
}

// ProjectContributions 项目账本，按名册顺序，包含已退款的零余额条目
func (e *Engine) ProjectContributions(ctx context.Context, projectID uint64) []model.Contribution {
	var out []model.Contribution
	e.view(ctx, func(st *state) {
		ledger := st.contributions[projectID]
		for _, addr := range st.rosters[projectID] {
			out = append(out, model.Contribution{ProjectID: projectID, Contributor: addr, Amount: ledger[addr]})
		}
	})
	return out
}

// TotalContributions 地址的累计出资额，不因退款减少
func (e *Engine) TotalContributions(ctx context.Context, contributor common.Address) uint64 {
	var total uint64
	e.view(ctx, func(st *state) {
		total = st.totals[contributor]
	})
	return total
}
