package model

import (
	"time"
)

// FarmerApplicationModel 农户申请读模型
type FarmerApplicationModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	FarmerAddress     string            `json:"farmer_address" gorm:"uniqueIndex;not null"`
	EvidenceReference string            `json:"evidence_reference"`
	PayoutReference   string            `json:"payout_reference"`
	Status            ApplicationStatus `json:"status" gorm:"default:'pending'"`
	AppliedAt         time.Time         `json:"applied_at"`
	ReviewedBy        string            `json:"reviewed_by"`
	ReviewedAt        *time.Time        `json:"reviewed_at"`
	Submissions       int64             `json:"submissions" gorm:"default:0"`
}

// TableName 自定义表名
func (FarmerApplicationModel) TableName() string {
	return "farmer_application"
}
