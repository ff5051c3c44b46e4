package handler

import (
	"time"

	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
)

// 通用响应结构，Code 为失败时的错误分类
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
}

// 请求模型

// RoleRequest 授予/撤销角色
type RoleRequest struct {
	Role    model.Role `json:"role" binding:"required"`
	Account string     `json:"account" binding:"required"`
}

// RenounceRequest 放弃角色
type RenounceRequest struct {
	Role model.Role `json:"role" binding:"required"`
}

// AccountRequest 单个账户
type AccountRequest struct {
	Account string `json:"account" binding:"required"`
}

// ApplicationRequest 农户提交审核申请
type ApplicationRequest struct {
	EvidenceReference string `json:"evidenceReference"`
	PayoutReference   string `json:"payoutReference"`
}

// ContributeRequest 出资
type ContributeRequest struct {
	Amount uint64 `json:"amount"`
}

// 引擎视图

// ProjectView 项目当前状态（来自引擎）
type ProjectView struct {
	model.Project
	DisplayStatus  model.ProjectStatus `json:"displayStatus"`
	GoalReached    bool                `json:"goalReached"`
	DeadlinePassed bool                `json:"deadlinePassed"`
	Contributors   int                 `json:"contributors"`
}

// StateView 账本全局状态
type StateView struct {
	model.EngineState
	EscrowBalance       uint64 `json:"escrowBalance"`
	MaximumFundingGoal  uint64 `json:"maximumFundingGoal"`
	LastEventSeq        uint64 `json:"lastEventSeq"`
	RequiresApplication bool   `json:"requiresApplication"`
}

// 读模型响应

// ProjectResponse 项目响应模型
type ProjectResponse struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	Farmer           string     `json:"farmer"`
	PayoutReference  string     `json:"payoutReference,omitempty"`
	FundingGoal      uint64     `json:"fundingGoal"`
	AmountRaised     uint64     `json:"amountRaised"`
	AmountRefunded   uint64     `json:"amountRefunded"`
	ContributorCount int64      `json:"contributorCount"`
	Status           string     `json:"status"`
	FundsReleased    bool       `json:"fundsReleased"`
	Deadline         time.Time  `json:"deadline"`
	ApprovedAt       *time.Time `json:"approvedAt,omitempty"`
	ClosedAt         *time.Time `json:"closedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// GetProjectsResponse 获取项目列表响应
type GetProjectsResponse struct {
	Projects   []ProjectResponse `json:"projects"`
	Pagination Pagination        `json:"pagination"`
}

// ContributeRecordResponse 贡献记录响应模型
type ContributeRecordResponse struct {
	ID            int64     `json:"id"`
	ProjectID     int64     `json:"projectId"`
	Address       string    `json:"address"`
	Amount        uint64    `json:"amount"`
	EventSeq      uint64    `json:"eventSeq"`
	ContributedAt time.Time `json:"contributedAt"`
}

// GetProjectContributeRecordsResponse 获取项目贡献记录响应
type GetProjectContributeRecordsResponse struct {
	Records    []ContributeRecordResponse `json:"records"`
	Pagination Pagination                 `json:"pagination"`
}

// RefundRecordResponse 退款记录响应模型
type RefundRecordResponse struct {
	ID         int64     `json:"id"`
	ProjectID  int64     `json:"projectId"`
	Address    string    `json:"address"`
	Operator   string    `json:"operator"`
	Amount     uint64    `json:"amount"`
	Status     string    `json:"status"`
	EventSeq   uint64    `json:"eventSeq"`
	RefundedAt time.Time `json:"refundedAt"`
}

// GetProjectRefundsResponse 获取项目退款记录响应
type GetProjectRefundsResponse struct {
	Refunds    []RefundRecordResponse `json:"refunds"`
	Pagination Pagination             `json:"pagination"`
}

// SettlementRecordResponse 结算记录响应模型
type SettlementRecordResponse struct {
	ID              int64     `json:"id"`
	ProjectID       int64     `json:"projectId"`
	Type            string    `json:"type"`
	Amount          uint64    `json:"amount"`
	Recipient       string    `json:"recipient"`
	PayoutReference string    `json:"payoutReference,omitempty"`
	Operator        string    `json:"operator"`
	EventSeq        uint64    `json:"eventSeq"`
	SettledAt       time.Time `json:"settledAt"`
}

// GetSettlementsResponse 获取结算记录响应
type GetSettlementsResponse struct {
	Settlements []SettlementRecordResponse `json:"settlements"`
	Pagination  Pagination                 `json:"pagination"`
}

// FarmerApplicationResponse 农户申请响应模型
type FarmerApplicationResponse struct {
	Farmer            string     `json:"farmer"`
	EvidenceReference string     `json:"evidenceReference"`
	PayoutReference   string     `json:"payoutReference,omitempty"`
	Status            string     `json:"status"`
	AppliedAt         time.Time  `json:"appliedAt"`
	ReviewedBy        string     `json:"reviewedBy,omitempty"`
	ReviewedAt        *time.Time `json:"reviewedAt,omitempty"`
	Submissions       int64      `json:"submissions"`
}

// GetFarmerApplicationsResponse 获取农户申请列表响应
type GetFarmerApplicationsResponse struct {
	Applications []FarmerApplicationResponse `json:"applications"`
	Pagination   Pagination                  `json:"pagination"`
}

// EventResponse 审计事件响应模型
type EventResponse struct {
	Seq       uint64    `json:"seq"`
	Type      string    `json:"type"`
	ProjectID int64     `json:"projectId,omitempty"`
	Actor     string    `json:"actor"`
	Subject   string    `json:"subject,omitempty"`
	Data      string    `json:"data"`
	EmittedAt time.Time `json:"emittedAt"`
}

// GetEventsResponse 获取审计事件响应
type GetEventsResponse struct {
	Events     []EventResponse `json:"events"`
	Pagination Pagination      `json:"pagination"`
}

// 转换函数

// ToProjectResponse 将数据库模型转换为响应模型
func ToProjectResponse(project *model.ProjectModel) ProjectResponse {
	return ProjectResponse{
		ID:               project.Id,
		Title:            project.Title,
		Farmer:           project.FarmerAddress,
		PayoutReference:  project.PayoutReference,
		FundingGoal:      project.FundingGoal,
		AmountRaised:     project.AmountRaised,
		AmountRefunded:   project.AmountRefunded,
		ContributorCount: project.ContributorCount,
		Status:           string(project.Status),
		FundsReleased:    project.FundsReleased,
		Deadline:         project.Deadline,
		ApprovedAt:       project.ApprovedAt,
		ClosedAt:         project.ClosedAt,
		CreatedAt:        project.CreatedAt,
		UpdatedAt:        project.UpdatedAt,
	}
}

// ToProjectResponseList 将数据库模型列表转换为响应模型列表
func ToProjectResponseList(projects []model.ProjectModel) []ProjectResponse {
	result := make([]ProjectResponse, len(projects))
	for i := range projects {
		result[i] = ToProjectResponse(&projects[i])
	}
	return result
}

// ToContributeRecordResponseList 将贡献记录转换为响应模型列表
func ToContributeRecordResponseList(records []model.ContributeRecordModel) []ContributeRecordResponse {
	result := make([]ContributeRecordResponse, len(records))
	for i, record := range records {
		result[i] = ContributeRecordResponse{
			ID:            record.Id,
			ProjectID:     record.ProjectId,
			Address:       record.Address,
			Amount:        record.Amount,
			EventSeq:      record.EventSeq,
			ContributedAt: record.Contributed,
		}
	}
	return result
}

// ToRefundRecordResponseList 将退款记录转换为响应模型列表
func ToRefundRecordResponseList(records []model.RefundRecordModel) []RefundRecordResponse {
	result := make([]RefundRecordResponse, len(records))
	for i, record := range records {
		result[i] = RefundRecordResponse{
			ID:         record.Id,
			ProjectID:  record.ProjectId,
			Address:    record.Address,
			Operator:   record.Operator,
			Amount:     record.Amount,
			Status:     record.Status,
			EventSeq:   record.EventSeq,
			RefundedAt: record.RefundedAt,
		}
	}
	return result
}

// ToSettlementRecordResponseList 将结算记录转换为响应模型列表
func ToSettlementRecordResponseList(records []model.SettlementRecordModel) []SettlementRecordResponse {
	result := make([]SettlementRecordResponse, len(records))
	for i, record := range records {
		result[i] = SettlementRecordResponse{
			ID:              record.Id,
			ProjectID:       record.ProjectId,
			Type:            string(record.SettlementType),
			Amount:          record.TotalAmount,
			Recipient:       record.Recipient,
			PayoutReference: record.PayoutReference,
			Operator:        record.Operator,
			EventSeq:        record.EventSeq,
			SettledAt:       record.SettlementTime,
		}
	}
	return result
}

// ToFarmerApplicationResponse 将农户申请转换为响应模型
func ToFarmerApplicationResponse(app *model.FarmerApplicationModel) FarmerApplicationResponse {
	return FarmerApplicationResponse{
		Farmer:            app.FarmerAddress,
		EvidenceReference: app.EvidenceReference,
		PayoutReference:   app.PayoutReference,
		Status:            string(app.Status),
		AppliedAt:         app.AppliedAt,
		ReviewedBy:        app.ReviewedBy,
		ReviewedAt:        app.ReviewedAt,
		Submissions:       app.Submissions,
	}
}

// ToEventResponseList 将审计事件转换为响应模型列表
func ToEventResponseList(events []model.EventModel) []EventResponse {
	result := make([]EventResponse, len(events))
	for i, ev := range events {
		result[i] = EventResponse{
			Seq:       ev.Seq,
			Type:      ev.EventType,
			ProjectID: ev.ProjectId,
			Actor:     ev.Actor,
			Subject:   ev.Subject,
			Data:      ev.Data,
			EmittedAt: ev.EmittedAt,
		}
	}
	return result
}
