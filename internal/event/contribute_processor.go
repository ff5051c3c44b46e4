package event

import (
	"fmt"

	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
	"gorm.io/gorm"
)

// ContributeProcessor 贡献事件处理器
type ContributeProcessor struct{}

// NewContributeProcessor 创建贡献事件处理器
func NewContributeProcessor() *ContributeProcessor {
	return &ContributeProcessor{}
}

func (p *ContributeProcessor) GetName() string {
	return "contribute_record"
}

func (p *ContributeProcessor) GetEventTypes() []model.EventType {
	return []model.EventType{model.EventContributionMade}
}

// Process 创建贡献记录
func (p *ContributeProcessor) Process(tx *gorm.DB, event model.Event) error {
	record := model.ContributeRecordModel{
		ProjectId:   int64(event.ProjectID),
		Amount:      event.Amount,
		Address:     model.AddressKey(event.Subject),
		EventSeq:    event.Seq,
		Contributed: event.Timestamp,
	}
	if err := tx.Create(&record).Error; err != nil {
		return fmt.Errorf("create contribute record: %w", err)
	}
	return nil
}
