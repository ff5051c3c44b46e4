package model

import (
	"time"
)

// ContributeRecordModel 贡献记录，每条 ContributionMade 事件一行
type ContributeRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId   int64     `json:"project_id" gorm:"not null;index"`
	Amount      uint64    `json:"amount" gorm:"not null"`
	Address     string    `json:"address" gorm:"not null;index"`
	EventSeq    uint64    `json:"event_seq" gorm:"uniqueIndex"`
	Contributed time.Time `json:"contributed_at"`
}

// TableName 自定义表名
func (ContributeRecordModel) TableName() string {
	return "contribute_record"
}
