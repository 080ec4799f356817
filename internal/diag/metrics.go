package diag

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 进程内私有注册表，不暴露 HTTP 端点；运行结束时可导出为文本格式。
// - bdlgeom_op_total{comp,stage,result}
// - bdlgeom_error_total{comp,code}
// - bdlgeom_op_duration_ms{comp,stage}
// - bdlgeom_rooms_total / bdlgeom_issues_total{code}
var (
	registry = prometheus.NewRegistry()
	factory  = promauto.With(registry)

	opTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "bdlgeom_op_total",
		Help: "Operations by component, stage and result.",
	}, []string{"comp", "stage", "result"})

	errorTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "bdlgeom_error_total",
		Help: "Errors by component and classification code.",
	}, []string{"comp", "code"})

	opDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bdlgeom_op_duration_ms",
		Help:    "Stage duration in milliseconds.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"comp", "stage"})

	roomsTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "bdlgeom_rooms_total",
		Help: "Rooms reconstructed.",
	})

	issuesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "bdlgeom_issues_total",
		Help: "Non-fatal geometry issues by code.",
	}, []string{"code"})
)

// IncOp 累加操作计数（result=success|error）。
func IncOp(comp, stage, result string) { opTotal.WithLabelValues(comp, stage, result).Inc() }

// IncError 按分类累加错误计数。
func IncError(comp, code string) { errorTotal.WithLabelValues(comp, code).Inc() }

// ObserveDuration 记录阶段耗时（毫秒）。
func ObserveDuration(comp, stage string, durMS int64) {
	opDuration.WithLabelValues(comp, stage).Observe(float64(durMS))
}

// AddRooms 累加重建出的房间数。
func AddRooms(n int) { roomsTotal.Add(float64(n)) }

// IncIssue 按错误分类累加几何 Issue。
func IncIssue(code string) { issuesTotal.WithLabelValues(code).Inc() }

// Gatherer 返回私有注册表，供测试与导出使用。
func Gatherer() prometheus.Gatherer { return registry }

// WriteMetrics 以 Prometheus 文本格式写出全部指标（原子替换目标文件）。
func WriteMetrics(path string) error { return prometheus.WriteToTextfile(path, registry) }
