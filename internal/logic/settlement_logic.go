package logic

import (
	"context"
	"fmt"
	"time"

	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
	"github.com/ethereum/go-ethereum/common"
)

// ReleaseFunds 向达标项目的农户放款，项目结项
//
// fundsReleased 与状态在转账前写入，转账期间的重入调用返回 ErrAlreadyReleased。
func (e *Engine) ReleaseFunds(ctx context.Context, caller common.Address, projectID uint64) error {
	return e.execute(ctx, caller, "release_funds", func(ctx context.Context, tx *txn) error {
		if err := tx.requireNotPaused(); err != nil {
			return err
		}
		if err := tx.requireAnyRole(model.RoleAdmin, model.RoleGovernmentObserver); err != nil {
			return err
		}
		p, err := tx.project(projectID)
		if err != nil {
			return err
		}
		if p.FundsReleased {
			return fmt.Errorf("%w: project %d", ErrAlreadyReleased, projectID)
		}
		if p.Status != model.ProjectStatusActive {
			return fmt.Errorf("%w: project %d is %s", ErrInvalidState, projectID, p.Status)
		}
		if !p.GoalReached() {
			return fmt.Errorf("%w: %d of %d raised", ErrGoalNotMet, p.AmountRaised, p.FundingGoal)
		}
		if e.settings.ReleaseRequiresDeadline && !p.DeadlinePassed(tx.now) {
			return fmt.Errorf("%w: project %d closes at %s", ErrDeadlineNotReached, projectID, p.Deadline.Format(time.RFC3339))
		}

		p.FundsReleased = true
		p.Status = model.ProjectStatusClosed
		tx.putProject(p)

		tx.emit(model.Event{
			Type:      model.EventFundsReleased,
			ProjectID: projectID,
			Subject:   p.FarmerAddress,
			Amount:    p.AmountRaised,
			Payout:    p.PayoutReference,
		})

		return tx.push(ctx, p.FarmerAddress, p.AmountRaised)
	})
}
