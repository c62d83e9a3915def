package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector 指标收集器
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 数据库指标
	dbConnectionsActive prometheus.Gauge
	dbConnectionsIdle   prometheus.Gauge

	// 实时订阅指标
	realtimeSubscribers  prometheus.Gauge
	realtimeEventsTotal  *prometheus.CounterVec
	realtimeDroppedTotal prometheus.Counter
}

var (
	globalCollector *Collector
	once            sync.Once
)

// GetGlobalCollector 获取全局收集器实例
func GetGlobalCollector() *Collector {
	once.Do(func() {
		globalCollector = newCollector()
	})
	return globalCollector
}

func newCollector() *Collector {
	return &Collector{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		dbConnectionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "db_connections_active",
				Help: "Number of active database connections",
			},
		),

		dbConnectionsIdle: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "db_connections_idle",
				Help: "Number of idle database connections",
			},
		),

		realtimeSubscribers: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "realtime_subscribers",
				Help: "Number of live realtime subscriptions",
			},
		),

		realtimeEventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "realtime_events_total",
				Help: "Total number of change events published",
			},
			[]string{"table", "action"},
		),

		realtimeDroppedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "realtime_dropped_total",
				Help: "Events dropped because a subscriber queue was full",
			},
		),
	}
}

// RecordHTTPRequest 记录一次 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	c.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordDBStats 采样数据库连接池状态
func (c *Collector) RecordDBStats(stats sql.DBStats) {
	c.dbConnectionsActive.Set(float64(stats.InUse))
	c.dbConnectionsIdle.Set(float64(stats.Idle))
}

// SubscriberAdded 订阅计数 +1
func (c *Collector) SubscriberAdded() { c.realtimeSubscribers.Inc() }

// SubscriberRemoved 订阅计数 -1
func (c *Collector) SubscriberRemoved() { c.realtimeSubscribers.Dec() }

// RecordEvent 记录一条变更事件
func (c *Collector) RecordEvent(table, action string) {
	c.realtimeEventsTotal.WithLabelValues(table, action).Inc()
}

// RecordDropped 记录一次慢消费者丢弃
func (c *Collector) RecordDropped() { c.realtimeDroppedTotal.Inc() }
