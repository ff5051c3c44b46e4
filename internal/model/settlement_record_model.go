package model

import (
	"time"
)

// SettlementRecordModel 结算记录：项目放款或紧急提取
type SettlementRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId       int64          `json:"project_id" gorm:"index"` // 紧急提取时为 0
	TotalAmount     uint64         `json:"total_amount" gorm:"not null"`
	Recipient       string         `json:"recipient" gorm:"not null"`
	PayoutReference string         `json:"payout_reference"`
	Operator        string         `json:"operator" gorm:"not null"`
	EventSeq        uint64         `json:"event_seq" gorm:"uniqueIndex"`
	SettlementType  SettlementType `json:"settlement_type" gorm:"not null"`
	SettlementTime  time.Time      `json:"settlement_time"`
}

// SettlementType 结算类型
type SettlementType string

const (
	SettlementTypeRelease   SettlementType = "release"   // 成功放款
	SettlementTypeEmergency SettlementType = "emergency" // 紧急提取
)

// TableName 自定义表名
func (SettlementRecordModel) TableName() string {
	return "settlement_record"
}
