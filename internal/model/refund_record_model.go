package model

import (
	"time"
)

// RefundRecordModel 退款记录
type RefundRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId  int64     `json:"project_id" gorm:"not null;index"`
	Amount     uint64    `json:"amount" gorm:"not null"`
	Address    string    `json:"address" gorm:"not null;index"`
	Operator   string    `json:"operator"` // 发起人，自助退款时等于 Address
	EventSeq   uint64    `json:"event_seq" gorm:"uniqueIndex"`
	Status     string    `json:"status" gorm:"default:'success'"`
	RefundedAt time.Time `json:"refunded_at"`
}

// RefundStatus 退款状态
type RefundStatus string

const (
	// 引擎内退款是原子的，读模型中只会出现成功记录
	RefundStatusSuccess RefundStatus = "success"
)

// TableName 自定义表名
func (RefundRecordModel) TableName() string {
	return "refund_record"
}
