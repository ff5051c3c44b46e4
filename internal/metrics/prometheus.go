package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics 基于 Prometheus 的实现
type PrometheusMetrics struct {
	registry *prometheus.Registry

	operations      *prometheus.CounterVec
	transferTotal   *prometheus.CounterVec
	transferCount   *prometheus.CounterVec
	paused          prometheus.Gauge
	projectsCreated prometheus.Gauge
}

// NewPrometheusMetrics 创建独立 registry 的 Prometheus 指标
func NewPrometheusMetrics(namespace string) *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	m := &PrometheusMetrics{
		registry: registry,
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_operations_total",
				Help:      "Mutating ledger operations by outcome code",
			},
			[]string{"operation", "code"},
		),
		transferTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "escrow_transfer_amount_total",
				Help:      "Token units moved through escrow, in the smallest unit",
			},
			[]string{"kind"},
		),
		transferCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "escrow_transfers_total",
				Help:      "Number of escrow transfers",
			},
			[]string{"kind"},
		),
		paused: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_paused",
			Help:      "1 while the ledger is paused",
		}),
		projectsCreated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_projects",
			Help:      "Number of projects ever created",
		}),
	}

	registry.MustRegister(m.operations, m.transferTotal, m.transferCount, m.paused, m.projectsCreated)
	return m
}

// ObserveOperation 记录写操作结果
func (m *PrometheusMetrics) ObserveOperation(operation, code string) {
	m.operations.WithLabelValues(operation, code).Inc()
}

// ObserveTransfer 记录资金流动
func (m *PrometheusMetrics) ObserveTransfer(kind string, amount uint64) {
	m.transferTotal.WithLabelValues(kind).Add(float64(amount))
	m.transferCount.WithLabelValues(kind).Inc()
}

// SetPaused 记录暂停开关
func (m *PrometheusMetrics) SetPaused(paused bool) {
	if paused {
		m.paused.Set(1)
		return
	}
	m.paused.Set(0)
}

// SetProjects 记录项目总数
func (m *PrometheusMetrics) SetProjects(count uint64) {
	m.projectsCreated.Set(float64(count))
}

// Registry 底层 registry
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler /metrics 端点
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
