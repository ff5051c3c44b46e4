package logic

import (
	"context"
	"fmt"
	"strings"

	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
	"github.com/ethereum/go-ethereum/common"
)

// SubmitApplication 提交或覆盖调用者的农户申请
func (e *Engine) SubmitApplication(ctx context.Context, caller common.Address, evidenceReference, payoutReference string) error {
	return e.execute(ctx, caller, "submit_application", func(_ context.Context, tx *txn) error {
		if err := tx.requireNotPaused(); err != nil {
			return err
		}
		evidenceReference = strings.TrimSpace(evidenceReference)
		if evidenceReference == "" {
			return fmt.Errorf("%w: evidence reference is required", ErrInvalidArgument)
		}
		if tx.hasRole(model.RoleFarmer, caller) {
			return fmt.Errorf("%w: %s already holds the farmer role", ErrAlreadyApproved, caller.Hex())
		}

		tx.putApplication(model.FarmerApplication{
			FarmerAddress:     caller,
			EvidenceReference: evidenceReference,
			PayoutReference:   strings.TrimSpace(payoutReference),
			Status:            model.ApplicationStatusPending,
			AppliedAt:         tx.now,
		})

		tx.emit(model.Event{
			Type:      model.EventFarmerApplicationSubmitted,
			Subject:   caller,
			Reference: evidenceReference,
			Payout:    strings.TrimSpace(payoutReference),
		})
		return nil
	})
}

// ApproveFarmer 通过待审核申请并授予农户角色
func (e *Engine) ApproveFarmer(ctx context.Context, caller, farmer common.Address) error {
	return e.execute(ctx, caller, "approve_farmer", func(_ context.Context, tx *txn) error {
		app, err := tx.reviewApplication(farmer)
		if err != nil {
			return err
		}

		app.Status = model.ApplicationStatusApproved
		tx.putApplication(app)
		tx.addRole(model.RoleFarmer, farmer)

		tx.emit(model.Event{Type: model.EventFarmerApproved, Subject: farmer})
		return nil
	})
}

// RejectFarmer 拒绝待审核申请，被拒绝的农户可以重新提交
func (e *Engine) RejectFarmer(ctx context.Context, caller, farmer common.Address) error {
	return e.execute(ctx, caller, "reject_farmer", func(_ context.Context, tx *txn) error {
		app, err := tx.reviewApplication(farmer)
		if err != nil {
			return err
		}

		app.Status = model.ApplicationStatusRejected
		tx.putApplication(app)

		tx.emit(model.Event{Type: model.EventFarmerRejected, Subject: farmer})
		return nil
	})
}

// reviewApplication 审核前置检查，返回已填写审核人的申请
func (tx *txn) reviewApplication(farmer common.Address) (model.FarmerApplication, error) {
	if err := tx.requireNotPaused(); err != nil {
		return model.FarmerApplication{}, err
	}
	if err := tx.requireAnyRole(model.RoleAdmin, model.RoleGovernmentObserver); err != nil {
		return model.FarmerApplication{}, err
	}
	app, ok := tx.st.applications[farmer]
	if !ok || !app.IsPending() {
		return model.FarmerApplication{}, fmt.Errorf("%w: %s", ErrNoPendingApplication, farmer.Hex())
	}
	app.ReviewedBy = tx.caller
	app.ReviewedAt = tx.now
	return app, nil
}

// FarmerApplication 查询申请
func (e *Engine) FarmerApplication(ctx context.Context, farmer common.Address) (model.FarmerApplication, bool) {
	var (
		app model.FarmerApplication
		ok  bool
	)
	e.view(ctx, func(st *state) {
		app, ok = st.applications[farmer]
	})
	return app, ok
}

// IsFarmerApproved 是否可以提交项目
func (e *Engine) IsFarmerApproved(ctx context.Context, farmer common.Address) bool {
	var ok bool
	e.view(ctx, func(st *state) {
		ok = e.farmerEligible(st, farmer)
	})
	return ok
}

func (e *Engine) farmerEligible(st *state, farmer common.Address) bool {
	if _, ok := st.roles[model.RoleFarmer][farmer]; !ok {
		return false
	}
	if !e.settings.RequireApplication {
		return true
	}
	return st.applications[farmer].IsApproved()
}
