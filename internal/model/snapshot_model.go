package model

import (
	"time"
)

// SnapshotModel 引擎状态快照，服务重启时用于恢复账本
type SnapshotModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	LastEventSeq uint64 `json:"last_event_seq" gorm:"uniqueIndex;not null"`
	State        string `json:"state" gorm:"type:text;not null"` // JSON 编码的 logic.Snapshot
}

// TableName 自定义表名
func (SnapshotModel) TableName() string {
	return "engine_snapshot"
}
