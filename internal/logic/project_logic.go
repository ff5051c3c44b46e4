package logic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
	"github.com/ethereum/go-ethereum/common"
)

// ProjectRequest 项目提交参数
type ProjectRequest struct {
	Title           string `json:"title"`
	FundingGoal     uint64 `json:"fundingGoal"`
	DurationDays    uint32 `json:"durationInDays"`
	PayoutReference string `json:"payoutReference"`
}

// SubmitProject 已审核农户提交项目，返回项目 ID
func (e *Engine) SubmitProject(ctx context.Context, caller common.Address, req ProjectRequest) (uint64, error) {
	var id uint64
	err := e.execute(ctx, caller, "submit_project", func(_ context.Context, tx *txn) error {
		if err := tx.requireNotPaused(); err != nil {
			return err
		}
		if !e.farmerEligible(tx.st, caller) {
			return fmt.Errorf("%w: %s is not an approved farmer", ErrUnauthorized, caller.Hex())
		}
		var err error
		id, err = tx.createProject(caller, req)
		return err
	})
	return id, err
}

// CreateProjectForFarmer Admin 代农户提交项目，校验规则与 SubmitProject 相同
func (e *Engine) CreateProjectForFarmer(ctx context.Context, caller, farmer common.Address, req ProjectRequest) (uint64, error) {
	var id uint64
	err := e.execute(ctx, caller, "create_project_for_farmer", func(_ context.Context, tx *txn) error {
		if err := tx.requireNotPaused(); err != nil {
			return err
		}
		if err := tx.requireAnyRole(model.RoleAdmin); err != nil {
			return err
		}
		if !e.farmerEligible(tx.st, farmer) {
			return fmt.Errorf("%w: %s is not an approved farmer", ErrUnauthorized, farmer.Hex())
		}
		var err error
		id, err = tx.createProject(farmer, req)
		return err
	})
	return id, err
}

func (tx *txn) createProject(farmer common.Address, req ProjectRequest) (uint64, error) {
	settings := tx.engine.settings
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return 0, fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}
	if req.FundingGoal == 0 || req.FundingGoal > settings.MaximumFundingGoal {
		return 0, fmt.Errorf("%w: funding goal must be in (0, %d]", ErrInvalidArgument, settings.MaximumFundingGoal)
	}
	if req.DurationDays == 0 || req.DurationDays > tx.st.engine.MaximumDurationDays {
		return 0, fmt.Errorf("%w: duration must be in (0, %d] days", ErrInvalidArgument, tx.st.engine.MaximumDurationDays)
	}

	payout := strings.TrimSpace(req.PayoutReference)
	if payout == "" {
		payout = tx.st.applications[farmer].PayoutReference
	}

	status := model.ProjectStatusSubmitted
	if !settings.RequireApplication {
		status = model.ProjectStatusActive
	}

	p := model.Project{
		ID:              tx.nextProjectID(),
		FarmerAddress:   farmer,
		Title:           title,
		FundingGoal:     req.FundingGoal,
		Deadline:        tx.now.Add(time.Duration(req.DurationDays) * 24 * time.Hour),
		Status:          status,
		PayoutReference: payout,
		CreatedAt:       tx.now,
	}
	tx.putProject(p)

	tx.emit(model.Event{
		Type:        model.EventProjectCreated,
		ProjectID:   p.ID,
		Subject:     farmer,
		Title:       p.Title,
		FundingGoal: p.FundingGoal,
		Deadline:    p.Deadline,
		Payout:      payout,
		Status:      status,
	})
	return p.ID, nil
}

// ApproveProject 审批项目，项目开始募集
func (e *Engine) ApproveProject(ctx context.Context, caller common.Address, projectID uint64) error {
	return e.execute(ctx, caller, "approve_project", func(_ context.Context, tx *txn) error {
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
		if p.Status != model.ProjectStatusSubmitted {
			return fmt.Errorf("%w: project %d is %s", ErrInvalidState, projectID, p.Status)
		}
		if p.DeadlinePassed(tx.now) {
			return fmt.Errorf("%w: project %d expired before approval", ErrDeadlinePassed, projectID)
		}

		p.Status = model.ProjectStatusActive
		tx.putProject(p)

		tx.emit(model.Event{Type: model.EventProjectApproved, ProjectID: projectID, Subject: p.FarmerAddress})
		return nil
	})
}

// CloseFailedProject 截止后未达标的项目标记为失败，开放退款
func (e *Engine) CloseFailedProject(ctx context.Context, caller common.Address, projectID uint64) error {
	return e.execute(ctx, caller, "close_failed_project", func(_ context.Context, tx *txn) error {
		if err := tx.requireNotPaused(); err != nil {
			return err
		}
		if e.settings.CloseRequiresAdmin {
			if err := tx.requireAnyRole(model.RoleAdmin, model.RoleGovernmentObserver); err != nil {
				return err
			}
		}
		p, err := tx.project(projectID)
		if err != nil {
			return err
		}
		if p.Status != model.ProjectStatusActive {
			return fmt.Errorf("%w: project %d is %s", ErrInvalidState, projectID, p.Status)
		}
		if p.GoalReached() {
			return fmt.Errorf("%w: project %d reached its goal", ErrInvalidState, projectID)
		}
		if !p.DeadlinePassed(tx.now) {
			return fmt.Errorf("%w: project %d closes at %s", ErrDeadlineNotReached, projectID, p.Deadline.Format(time.RFC3339))
		}

		p.Status = model.ProjectStatusFailed
		tx.putProject(p)

		tx.emit(model.Event{
			Type:       model.EventProjectClosed,
			ProjectID:  projectID,
			Subject:    p.FarmerAddress,
			Amount:     p.AmountRaised,
			Successful: false,
		})
		return nil
	})
}

// Project 查询项目
func (e *Engine) Project(ctx context.Context, projectID uint64) (model.Project, error) {
	var (
		p  model.Project
		ok bool
	)
	e.view(ctx, func(st *state) {
		p, ok = st.projects[projectID]
	})
	if !ok {
		return model.Project{}, fmt.Errorf("%w: %d", ErrProjectNotFound, projectID)
	}
	return p, nil
}

// Projects 按 ID 顺序分页查询项目，offset 从 0 开始
func (e *Engine) Projects(ctx context.Context, offset, limit int) []model.Project {
	var projects []model.Project
	e.view(ctx, func(st *state) {
		total := int(st.engine.ProjectCounter)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || offset+limit > total {
			limit = total - offset
		}
		for i := 0; i < limit; i++ {
			id := uint64(offset + i + 1)
			if p, ok := st.projects[id]; ok {
				projects = append(projects, p)
			}
		}
	})
	return projects
}

// TotalProjects 项目总数
func (e *Engine) TotalProjects(ctx context.Context) uint64 {
	var n uint64
	e.view(ctx, func(st *state) {
		n = st.engine.ProjectCounter
	})
	return n
}
