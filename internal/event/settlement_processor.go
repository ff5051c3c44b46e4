package event

import (
	"fmt"

	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
	"gorm.io/gorm"
)

// SettlementProcessor 放款与紧急提取的结算记录
type SettlementProcessor struct{}

// NewSettlementProcessor 创建结算事件处理器
func NewSettlementProcessor() *SettlementProcessor {
	return &SettlementProcessor{}
}

func (p *SettlementProcessor) GetName() string {
	return "settlement_record"
}

func (p *SettlementProcessor) GetEventTypes() []model.EventType {
	return []model.EventType{model.EventFundsReleased, model.EventEmergencyWithdrawal}
}

func (p *SettlementProcessor) Process(tx *gorm.DB, event model.Event) error {
	settlementType := model.SettlementTypeRelease
	if event.Type == model.EventEmergencyWithdrawal {
		settlementType = model.SettlementTypeEmergency
	}

	record := model.SettlementRecordModel{
		ProjectId:       int64(event.ProjectID),
		TotalAmount:     event.Amount,
		Recipient:       model.AddressKey(event.Subject),
		PayoutReference: event.Payout,
		Operator:        model.AddressKey(event.Actor),
		EventSeq:        event.Seq,
		SettlementType:  settlementType,
		SettlementTime:  event.Timestamp,
	}
	if err := tx.Create(&record).Error; err != nil {
		return fmt.Errorf("create settlement record: %w", err)
	}
	return nil
}
