package model

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Project 众筹项目
type Project struct {
	ID              uint64         `json:"id"`
	FarmerAddress   common.Address `json:"farmerAddress"`
	Title           string         `json:"title"`
	FundingGoal     uint64         `json:"fundingGoal"`
	Deadline        time.Time      `json:"deadline"`
	AmountRaised    uint64         `json:"amountRaised"`
	Status          ProjectStatus  `json:"status"`
	PayoutReference string         `json:"payoutReference,omitempty"`
	FundsReleased   bool           `json:"fundsReleased"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectStatusSubmitted ProjectStatus = "submitted" // 待审批
	ProjectStatusApproved  ProjectStatus = "approved"  // 已审批（瞬时，审批后即进入 active）
	ProjectStatusActive    ProjectStatus = "active"    // 募集中
	ProjectStatusFunded    ProjectStatus = "funded"    // 已达标，仅用于展示
	ProjectStatusFailed    ProjectStatus = "failed"    // 失败，可退款
	ProjectStatusClosed    ProjectStatus = "closed"    // 已放款结项
)

// GoalReached 是否已达到募集目标
func (p Project) GoalReached() bool {
	return p.AmountRaised >= p.FundingGoal
}

// DeadlinePassed 截止时间是否已过
func (p Project) DeadlinePassed(now time.Time) bool {
	return !now.Before(p.Deadline)
}

// DisplayStatus 展示状态：达标的 active 项目显示为 funded
func (p Project) DisplayStatus() ProjectStatus {
	if p.Status == ProjectStatusActive && p.GoalReached() {
		return ProjectStatusFunded
	}
	return p.Status
}
