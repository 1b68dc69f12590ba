// Package metrics 在 wyfcoding/pkg/metrics 的统一 Registry 上注册本服务的业务指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	pkgmetrics "github.com/wyfcoding/pkg/metrics"
)

const namespace = "marketquery"

// Metrics 指标集合，HTTP/gRPC 标准指标由内嵌的 pkgmetrics.Metrics 提供
type Metrics struct {
	*pkgmetrics.Metrics

	// 网关拒绝次数，按原因
	AuthRejectionsTotal *prometheus.CounterVec
	// 限流拒绝次数
	RateLimitedTotal *prometheus.CounterVec

	// 记录写操作，按实体与动作
	RecordMutationsTotal *prometheus.CounterVec
	// 参考数据查询，按目录与结果（hit/miss/unknown）
	DirectoryLookupsTotal *prometheus.CounterVec
	// 记录变更事件发布，按实体与结果
	EventsPublishedTotal *prometheus.CounterVec
}

// New 创建指标实例，每个实例使用独立的 Registry
func New(serviceName string) *Metrics {
	base := pkgmetrics.NewMetrics(serviceName)
	constLabels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		Metrics: base,
		AuthRejectionsTotal: base.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "auth_rejections_total",
			Help:        "Requests rejected by the API key gate",
			ConstLabels: constLabels,
		}, []string{"reason"}),
		RateLimitedTotal: base.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "rate_limited_total",
			Help:        "Requests rejected by the rate limiter",
			ConstLabels: constLabels,
		}, []string{"caller"}),
		RecordMutationsTotal: base.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "record_mutations_total",
			Help:        "Committed record mutations",
			ConstLabels: constLabels,
		}, []string{"entity", "action"}),
		DirectoryLookupsTotal: base.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "directory_lookups_total",
			Help:        "Reference directory lookups",
			ConstLabels: constLabels,
		}, []string{"directory", "result"}),
		EventsPublishedTotal: base.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "events_published_total",
			Help:        "Record change events handed to the publisher",
			ConstLabels: constLabels,
		}, []string{"entity", "result"}),
	}
}
