package event

import (
	"fmt"

	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
	"gorm.io/gorm"
)

// ProjectProcessor 维护项目读模型
type ProjectProcessor struct{}

// NewProjectProcessor 创建项目事件处理器
func NewProjectProcessor() *ProjectProcessor {
	return &ProjectProcessor{}
}

func (p *ProjectProcessor) GetName() string {
	return "project"
}

func (p *ProjectProcessor) GetEventTypes() []model.EventType {
	return []model.EventType{
		model.EventProjectCreated,
		model.EventProjectApproved,
		model.EventContributionMade,
		model.EventProjectClosed,
		model.EventFundsReleased,
		model.EventRefundClaimed,
	}
}

// Process 根据事件类型更新项目
func (p *ProjectProcessor) Process(tx *gorm.DB, event model.Event) error {
	switch event.Type {
	case model.EventProjectCreated:
		return p.processProjectCreated(tx, event)
	case model.EventProjectApproved:
		return p.update(tx, event, map[string]interface{}{
			"status":      model.ProjectStatusActive,
			"approved_at": event.Timestamp,
			"approved_by": model.AddressKey(event.Actor),
		})
	case model.EventContributionMade:
		return p.processContributionMade(tx, event)
	case model.EventProjectClosed:
		return p.update(tx, event, map[string]interface{}{
			"status":    model.ProjectStatusFailed,
			"closed_at": event.Timestamp,
		})
	case model.EventFundsReleased:
		return p.update(tx, event, map[string]interface{}{
			"status":         model.ProjectStatusClosed,
			"funds_released": true,
			"closed_at":      event.Timestamp,
		})
	case model.EventRefundClaimed:
		return p.update(tx, event, map[string]interface{}{
			"amount_raised":   gorm.Expr("amount_raised - ?", event.Amount),
			"amount_refunded": gorm.Expr("amount_refunded + ?", event.Amount),
		})
	default:
		return nil
	}
}

// processProjectCreated 处理项目创建事件
func (p *ProjectProcessor) processProjectCreated(tx *gorm.DB, event model.Event) error {
	status := event.Status
	if status == "" {
		status = model.ProjectStatusSubmitted
	}

	project := model.ProjectModel{
		Id:              int64(event.ProjectID),
		Title:           event.Title,
		FarmerAddress:   model.AddressKey(event.Subject),
		PayoutReference: event.Payout,
		FundingGoal:     event.FundingGoal,
		Deadline:        event.Deadline,
		Status:          status,
		LastEventSeq:    event.Seq,
	}
	if status == model.ProjectStatusActive {
		approvedAt := event.Timestamp
		project.ApprovedAt = &approvedAt
	}
	if err := tx.Create(&project).Error; err != nil {
		return fmt.Errorf("create project %d: %w", event.ProjectID, err)
	}
	return nil
}

// processContributionMade 累加募集额，新贡献者计数加一
func (p *ProjectProcessor) processContributionMade(tx *gorm.DB, event model.Event) error {
	var previous int64
	if err := tx.Model(&model.ContributeRecordModel{}).
		Where("project_id = ? AND address = ? AND event_seq < ?", event.ProjectID, model.AddressKey(event.Subject), event.Seq).
		Count(&previous).Error; err != nil {
		return fmt.Errorf("count previous contributions: %w", err)
	}

	updates := map[string]interface{}{
		"amount_raised": gorm.Expr("amount_raised + ?", event.Amount),
	}
	if previous == 0 {
		updates["contributor_count"] = gorm.Expr("contributor_count + 1")
	}
	return p.update(tx, event, updates)
}

// update 更新项目并记录最后处理的事件序号
func (p *ProjectProcessor) update(tx *gorm.DB, event model.Event, updates map[string]interface{}) error {
	updates["last_event_seq"] = event.Seq
	result := tx.Model(&model.ProjectModel{}).Where("id = ?", event.ProjectID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("update project %d on %s: %w", event.ProjectID, event.Type, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("project %d not found for %s", event.ProjectID, event.Type)
	}
	return nil
}
