package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
	"gorm.io/gorm"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page 分页参数，page 从 1 开始
type Page struct {
	Page     int `form:"page" json:"page"`
	PageSize int `form:"page_size" json:"page_size"`
}

// normalize 修正非法分页参数
func (p Page) normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}

func (p Page) offset() int {
	return (p.Page - 1) * p.PageSize
}

// Repository 读模型查询
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建查询仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB 底层连接
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// ProjectQuery 项目列表过滤条件
type ProjectQuery struct {
	Page
	Status        model.ProjectStatus `form:"status"`
	FarmerAddress string              `form:"farmer"`
}

// ListProjects 获取项目列表
func (r *Repository) ListProjects(q ProjectQuery) ([]model.ProjectModel, int64, error) {
	page := q.Page.normalize()
	query := r.db.Model(&model.ProjectModel{})
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.FarmerAddress != "" {
		query = query.Where("farmer_address = ?", model.NormalizeAddress(q.FarmerAddress))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}

	var projects []model.ProjectModel
	if err := query.Order("id ASC").Offset(page.offset()).Limit(page.PageSize).Find(&projects).Error; err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}
	return projects, total, nil
}

// GetProject 获取项目
func (r *Repository) GetProject(id int64) (*model.ProjectModel, error) {
	var project model.ProjectModel
	if err := r.db.First(&project, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &project, nil
}

// ExpiredProjects 截止时间已过、未达标且仍在募集中的项目
func (r *Repository) ExpiredProjects(now time.Time, limit int) ([]model.ProjectModel, error) {
	var projects []model.ProjectModel
	err := r.db.Where("status = ? AND deadline <= ? AND amount_raised < funding_goal", model.ProjectStatusActive, now).
		Order("deadline ASC").
		Limit(limit).
		Find(&projects).Error
	return projects, err
}

// RefundableProjects 仍有未退款余额的失败项目
func (r *Repository) RefundableProjects(limit int) ([]model.ProjectModel, error) {
	var projects []model.ProjectModel
	err := r.db.Where("status = ? AND amount_raised > 0", model.ProjectStatusFailed).
		Order("id ASC").
		Limit(limit).
		Find(&projects).Error
	return projects, err
}

// ReleasableProjects 已达标且未放款的项目；requireDeadline 为 true 时只返回已截止的
func (r *Repository) ReleasableProjects(now time.Time, requireDeadline bool, limit int) ([]model.ProjectModel, error) {
	query := r.db.Where("status = ? AND funds_released = ? AND amount_raised >= funding_goal", model.ProjectStatusActive, false)
	if requireDeadline {
		query = query.Where("deadline <= ?", now)
	}

	var projects []model.ProjectModel
	err := query.Order("id ASC").Limit(limit).Find(&projects).Error
	return projects, err
}

// ListContributions 获取项目贡献记录
func (r *Repository) ListContributions(projectId int64, p Page) ([]model.ContributeRecordModel, int64, error) {
	page := p.normalize()
	var total int64
	if err := r.db.Model(&model.ContributeRecordModel{}).Where("project_id = ?", projectId).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var contributions []model.ContributeRecordModel
	if err := r.db.Where("project_id = ?", projectId).
		Offset(page.offset()).
		Limit(page.PageSize).
		Order("event_seq DESC").
		Find(&contributions).Error; err != nil {
		return nil, 0, err
	}
	return contributions, total, nil
}

// ContributionStats 项目贡献统计
type ContributionStats struct {
	TotalContributions int64  `json:"total_contributions"`
	TotalAmount        uint64 `json:"total_amount"`
	UniqueContributors int64  `json:"unique_contributors"`
	AverageAmount      uint64 `json:"average_amount"`
}

// GetContributionStats 获取贡献统计信息
func (r *Repository) GetContributionStats(projectId int64) (*ContributionStats, error) {
	var stats ContributionStats
	base := func() *gorm.DB {
		return r.db.Model(&model.ContributeRecordModel{}).Where("project_id = ?", projectId)
	}

	if err := base().Count(&stats.TotalContributions).Error; err != nil {
		return nil, fmt.Errorf("count contributions: %w", err)
	}
	if err := base().Select("COALESCE(SUM(amount), 0)").Scan(&stats.TotalAmount).Error; err != nil {
		return nil, fmt.Errorf("sum contributions: %w", err)
	}
	if err := base().Select("COUNT(DISTINCT address)").Scan(&stats.UniqueContributors).Error; err != nil {
		return nil, fmt.Errorf("count contributors: %w", err)
	}
	if stats.TotalContributions > 0 {
		stats.AverageAmount = stats.TotalAmount / uint64(stats.TotalContributions)
	}
	return &stats, nil
}

// ListRefunds 获取项目退款记录
func (r *Repository) ListRefunds(projectId int64, p Page) ([]model.RefundRecordModel, int64, error) {
	page := p.normalize()
	var total int64
	if err := r.db.Model(&model.RefundRecordModel{}).Where("project_id = ?", projectId).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var refunds []model.RefundRecordModel
	if err := r.db.Where("project_id = ?", projectId).
		Offset(page.offset()).
		Limit(page.PageSize).
		Order("event_seq DESC").
		Find(&refunds).Error; err != nil {
		return nil, 0, err
	}
	return refunds, total, nil
}

// ListSettlements 获取结算记录，projectId 为 0 时返回全部
func (r *Repository) ListSettlements(projectId int64, p Page) ([]model.SettlementRecordModel, int64, error) {
	page := p.normalize()
	query := r.db.Model(&model.SettlementRecordModel{})
	if projectId != 0 {
		query = query.Where("project_id = ?", projectId)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var settlements []model.SettlementRecordModel
	if err := query.Order("event_seq DESC").Offset(page.offset()).Limit(page.PageSize).Find(&settlements).Error; err != nil {
		return nil, 0, err
	}
	return settlements, total, nil
}

// EventQuery 审计事件过滤条件
type EventQuery struct {
	Page
	ProjectId int64  `form:"project_id"`
	EventType string `form:"type"`
	After     uint64 `form:"after"`
}

// ListEvents 按序号升序获取审计事件
func (r *Repository) ListEvents(q EventQuery) ([]model.EventModel, int64, error) {
	page := q.Page.normalize()
	query := r.db.Model(&model.EventModel{}).Where("seq > ?", q.After)
	if q.ProjectId != 0 {
		query = query.Where("project_id = ?", q.ProjectId)
	}
	if q.EventType != "" {
		query = query.Where("event_type = ?", q.EventType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []model.EventModel
	if err := query.Order("seq ASC").Offset(page.offset()).Limit(page.PageSize).Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// LastEventSeq 已落库的最大事件序号
func (r *Repository) LastEventSeq() (uint64, error) {
	var seq uint64
	if err := r.db.Model(&model.EventModel{}).Select("COALESCE(MAX(seq), 0)").Scan(&seq).Error; err != nil {
		return 0, err
	}
	return seq, nil
}

// GetFarmerApplication 获取农户申请
func (r *Repository) GetFarmerApplication(address string) (*model.FarmerApplicationModel, error) {
	var app model.FarmerApplicationModel
	if err := r.db.Where("farmer_address = ?", model.NormalizeAddress(address)).First(&app).Error; err != nil {
		return nil, notFound(err)
	}
	return &app, nil
}

// ListFarmerApplications 按状态获取农户申请
func (r *Repository) ListFarmerApplications(status model.ApplicationStatus, p Page) ([]model.FarmerApplicationModel, int64, error) {
	page := p.normalize()
	query := r.db.Model(&model.FarmerApplicationModel{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var apps []model.FarmerApplicationModel
	if err := query.Order("applied_at ASC").Offset(page.offset()).Limit(page.PageSize).Find(&apps).Error; err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

// SaveSnapshot 保存引擎快照
func (r *Repository) SaveSnapshot(snapshot *model.SnapshotModel) error {
	return r.db.Where(model.SnapshotModel{LastEventSeq: snapshot.LastEventSeq}).
		Attrs(model.SnapshotModel{State: snapshot.State}).
		FirstOrCreate(snapshot).Error
}

// LatestSnapshot 最新的引擎快照
func (r *Repository) LatestSnapshot() (*model.SnapshotModel, error) {
	var snapshot model.SnapshotModel
	if err := r.db.Order("last_event_seq DESC").First(&snapshot).Error; err != nil {
		return nil, notFound(err)
	}
	return &snapshot, nil
}

// PruneSnapshots 只保留最新的 keep 个快照
func (r *Repository) PruneSnapshots(keep int) error {
	var ids []int64
	if err := r.db.Model(&model.SnapshotModel{}).Order("last_event_seq DESC").Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) <= keep {
		return nil
	}
	return r.db.Delete(&model.SnapshotModel{}, ids[keep:]).Error
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
