package model

// EngineState 引擎全局状态
type EngineState struct {
	Paused              bool   `json:"paused"`
	ProjectCounter      uint64 `json:"projectCounter"`
	MinimumContribution uint64 `json:"minimumContribution"`
	MaximumDurationDays uint32 `json:"maximumDurationDays"`
}
