package event

import (
	"fmt"

	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
	"gorm.io/gorm"
)

// RefundProcessor 退款事件处理器
type RefundProcessor struct{}

// NewRefundProcessor 创建退款事件处理器
func NewRefundProcessor() *RefundProcessor {
	return &RefundProcessor{}
}

func (p *RefundProcessor) GetName() string {
	return "refund_record"
}

func (p *RefundProcessor) GetEventTypes() []model.EventType {
	return []model.EventType{model.EventRefundClaimed}
}

// Process 创建退款记录，Operator 为发起人
func (p *RefundProcessor) Process(tx *gorm.DB, event model.Event) error {
	record := model.RefundRecordModel{
		ProjectId:  int64(event.ProjectID),
		Amount:     event.Amount,
		Address:    model.AddressKey(event.Subject),
		Operator:   model.AddressKey(event.Actor),
		EventSeq:   event.Seq,
		Status:     string(model.RefundStatusSuccess),
		RefundedAt: event.Timestamp,
	}
	if err := tx.Create(&record).Error; err != nil {
		return fmt.Errorf("create refund record: %w", err)
	}
	return nil
}
