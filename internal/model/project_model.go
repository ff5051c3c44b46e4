package model

import (
	"time"
)

// ProjectModel 项目读模型，由事件投影维护
type ProjectModel struct {
	Id        int64     `json:"id" gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Title           string `json:"title" gorm:"not null"`
	FarmerAddress   string `json:"farmer_address" gorm:"not null;index"`
	PayoutReference string `json:"payout_reference"`

	// 众筹信息
	FundingGoal      uint64 `json:"funding_goal" gorm:"not null"`
	AmountRaised     uint64 `json:"amount_raised" gorm:"default:0"`
	AmountRefunded   uint64 `json:"amount_refunded" gorm:"default:0"`
	ContributorCount int64  `json:"contributor_count" gorm:"default:0"`

	// 时间信息
	Deadline   time.Time  `json:"deadline" gorm:"not null"`
	ApprovedAt *time.Time `json:"approved_at"`
	ClosedAt   *time.Time `json:"closed_at"`

	// 状态
	Status        ProjectStatus `json:"status" gorm:"default:'submitted';index"`
	FundsReleased bool          `json:"funds_released" gorm:"default:false"`
	ApprovedBy    string        `json:"approved_by"`
	LastEventSeq  uint64        `json:"last_event_seq"`
}

// TableName 自定义表名
func (ProjectModel) TableName() string {
	return "project"
}
