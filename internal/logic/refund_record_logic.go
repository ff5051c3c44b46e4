package logic

import (
	"context"
	"fmt"

	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
	"github.com/ethereum/go-ethereum/common"
)

// ClaimRefund 贡献者从失败项目取回自己的出资
func (e *Engine) ClaimRefund(ctx context.Context, caller common.Address, projectID uint64) error {
	return e.execute(ctx, caller, "claim_refund", func(ctx context.Context, tx *txn) error {
		if err := tx.requireNotPaused(); err != nil {
			return err
		}
		return tx.refund(ctx, projectID, caller)
	})
}

// RefundContributor Admin/Government 为名册中的贡献者发起退款，资金退回贡献者本人
func (e *Engine) RefundContributor(ctx context.Context, caller common.Address, projectID uint64, contributor common.Address) error {
	return e.execute(ctx, caller, "refund_contributor", func(ctx context.Context, tx *txn) error {
		if err := tx.requireNotPaused(); err != nil {
			return err
		}
		if err := tx.requireAnyRole(model.RoleAdmin, model.RoleGovernmentObserver); err != nil {
			return err
		}
		return tx.refund(ctx, projectID, contributor)
	})
}

// refund 条目在转账前清零，重复退款返回 ErrNothingToRefund
func (tx *txn) refund(ctx context.Context, projectID uint64, contributor common.Address) error {
	p, err := tx.project(projectID)
	if err != nil {
		return err
	}
	if p.Status != model.ProjectStatusFailed {
		return fmt.Errorf("%w: project %d is %s", ErrInvalidState, projectID, p.Status)
	}
	amount := tx.st.contributions[projectID][contributor]
	if amount == 0 {
		return fmt.Errorf("%w: %s on project %d", ErrNothingToRefund, contributor.Hex(), projectID)
	}

	tx.setContribution(projectID, contributor, 0)
	p.AmountRaised -= amount
	tx.putProject(p)

	tx.emit(model.Event{
		Type:      model.EventRefundClaimed,
		ProjectID: projectID,
		Subject:   contributor,
		Amount:    amount,
	})

	return tx.push(ctx, contributor, amount)
}
