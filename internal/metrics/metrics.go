// Package metrics 引擎与服务指标
package metrics

// Metrics 指标接口
type Metrics interface {
	// ObserveOperation 记录一次写操作的结果，code 为 "ok" 或错误码
	ObserveOperation(operation, code string)
	// ObserveTransfer 记录一次托管账户的资金流动：contribution/release/refund/emergency
	ObserveTransfer(kind string, amount uint64)
	// SetPaused 记录暂停开关
	SetPaused(paused bool)
	// SetProjects 记录项目总数
	SetProjects(count uint64)
}

// NopMetrics 空实现，未启用指标时使用
type NopMetrics struct{}

// NewNopMetrics 创建空实现
func NewNopMetrics() *NopMetrics {
	return &NopMetrics{}
}

func (m *NopMetrics) ObserveOperation(operation, code string)    {}
func (m *NopMetrics) ObserveTransfer(kind string, amount uint64) {}
func (m *NopMetrics) SetPaused(paused bool)                      {}
func (m *NopMetrics) SetProjects(count uint64)                   {}
