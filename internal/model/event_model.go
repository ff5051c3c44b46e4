package model

import (
	"time"
)

// EventModel 审计事件记录
type EventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Seq       uint64    `json:"seq" gorm:"uniqueIndex;not null"`
	EventType string    `json:"event_type" gorm:"not null;index"`
	ProjectId int64     `json:"project_id" gorm:"index"`
	Actor     string    `json:"actor" gorm:"not null"`
	Subject   string    `json:"subject"`
	Data      string    `json:"data" gorm:"type:text"`
	EmittedAt time.Time `json:"emitted_at"`
	Processed bool      `json:"processed" gorm:"default:false"`
}

// TableName 自定义表名
func (EventModel) TableName() string {
	return "event"
}
