package model

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ApplicationStatus 农户申请状态
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"  // 待审核
	ApplicationStatusApproved ApplicationStatus = "approved" // 已通过
	ApplicationStatusRejected ApplicationStatus = "rejected" // 已拒绝
)

// FarmerApplication 农户审核申请，每个地址一条，重新提交时覆盖
type FarmerApplication struct {
	FarmerAddress     common.Address    `json:"farmerAddress"`
	EvidenceReference string            `json:"evidenceReference"` // 外部文档存储返回的引用
	PayoutReference   string            `json:"payoutReference,omitempty"`
	Status            ApplicationStatus `json:"status"`
	AppliedAt         time.Time         `json:"appliedAt"`
	ReviewedBy        common.Address    `json:"reviewedBy,omitempty"`
	ReviewedAt        time.Time         `json:"reviewedAt,omitempty"`
}

// IsPending 是否待审核
func (a FarmerApplication) IsPending() bool {
	return a.Status == ApplicationStatusPending
}

// IsApproved 是否已通过
func (a FarmerApplication) IsApproved() bool {
	return a.Status == ApplicationStatusApproved
}
