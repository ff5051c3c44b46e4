package event

import (
	"errors"
	"fmt"

	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
	"gorm.io/gorm"
)

// FarmerProcessor 维护农户申请读模型
type FarmerProcessor struct{}

// NewFarmerProcessor 创建农户申请事件处理器
func NewFarmerProcessor() *FarmerProcessor {
	return &FarmerProcessor{}
}

func (p *FarmerProcessor) GetName() string {
	return "farmer_application"
}

func (p *FarmerProcessor) GetEventTypes() []model.EventType {
	return []model.EventType{
		model.EventFarmerApplicationSubmitted,
		model.EventFarmerApproved,
		model.EventFarmerRejected,
	}
}

func (p *FarmerProcessor) Process(tx *gorm.DB, event model.Event) error {
	address := model.AddressKey(event.Subject)

	var app model.FarmerApplicationModel
	err := tx.Where("farmer_address = ?", address).First(&app).Error
	exists := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("load farmer application %s: %w", address, err)
	}

	switch event.Type {
	case model.EventFarmerApplicationSubmitted:
		app.FarmerAddress = address
		app.EvidenceReference = event.Reference
		app.PayoutReference = event.Payout
		app.Status = model.ApplicationStatusPending
		app.AppliedAt = event.Timestamp
		app.ReviewedBy = ""
		app.ReviewedAt = nil
		app.Submissions++
	case model.EventFarmerApproved, model.EventFarmerRejected:
		if !exists {
			return fmt.Errorf("farmer application %s not found for %s", address, event.Type)
		}
		app.Status = model.ApplicationStatusApproved
		if event.Type == model.EventFarmerRejected {
			app.Status = model.ApplicationStatusRejected
		}
		reviewedAt := event.Timestamp
		app.ReviewedBy = model.AddressKey(event.Actor)
		app.ReviewedAt = &reviewedAt
	}

	if err := tx.Save(&app).Error; err != nil {
		return fmt.Errorf("save farmer application %s: %w", address, err)
	}
	return nil
}
