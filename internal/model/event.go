package model

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EventType 领域事件类型
type EventType string

const (
	EventRoleGranted                EventType = "RoleGranted"
	EventRoleRevoked                EventType = "RoleRevoked"
	EventFarmerApplicationSubmitted EventType = "FarmerApplicationSubmitted"
	EventFarmerApproved             EventType = "FarmerApproved"
	EventFarmerRejected             EventType = "FarmerRejected"
	EventProjectCreated             EventType = "ProjectCreated"
	EventProjectApproved            EventType = "ProjectApproved"
	EventContributionMade           EventType = "ContributionMade"
	EventProjectClosed              EventType = "ProjectClosed"
	EventFundsReleased              EventType = "FundsReleased"
	EventRefundClaimed              EventType = "RefundClaimed"
	EventPaused                     EventType = "Paused"
	EventUnpaused                   EventType = "Unpaused"
	EventEmergencyWithdrawal        EventType = "EmergencyWithdrawal"
)

// Event 审计事件，每次成功的写操作恰好产生一条
//
// Actor 为发起调用的主体；Subject 为被操作的主体（农户、贡献者、被授权账户、收款地址）。
type Event struct {
	Seq         uint64         `json:"seq"`
	Type        EventType      `json:"type"`
	ProjectID   uint64         `json:"projectId,omitempty"`
	Actor       common.Address `json:"actor"`
	Subject     common.Address `json:"subject,omitempty"`
	Role        Role           `json:"role,omitempty"`
	Amount      uint64         `json:"amount,omitempty"`
	Title       string         `json:"title,omitempty"`
	Reference   string         `json:"reference,omitempty"` // 申请材料引用
	Payout      string         `json:"payout,omitempty"`    // 收款引用
	Status      ProjectStatus  `json:"status,omitempty"`    // ProjectCreated 时的初始状态
	FundingGoal uint64         `json:"fundingGoal,omitempty"`
	Deadline    time.Time      `json:"deadline,omitempty"`
	Successful  bool           `json:"successful,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}
