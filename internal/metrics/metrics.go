package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 请求指标
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forkhub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forkhub_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 调度指标
	DispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forkhub_dispatches_total",
			Help: "Total number of dispatch calls by outcome",
		},
		[]string{"work_type", "status"},
	)

	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forkhub_dispatch_duration_seconds",
			Help:    "Dispatch call duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 30, 60, 300, 600, 1800, 3600},
		},
		[]string{"work_type"},
	)

	DispatchItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forkhub_dispatch_items_total",
			Help: "Total number of work items submitted to the pool",
		},
		[]string{"work_type"},
	)

	PoolConcurrency = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "forkhub_pool_concurrency",
			Help: "Max concurrency used by the last dispatch of a work type",
		},
		[]string{"work_type"},
	)

	ActiveDispatches = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "forkhub_active_dispatches",
			Help: "Number of dispatch calls currently running",
		},
	)

	// Worker 指标
	WorkerExitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forkhub_worker_exits_total",
			Help: "Total number of pool workers that exited",
		},
		[]string{"work_type", "status"},
	)

	// 任务队列指标
	TasksEnqueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forkhub_tasks_enqueued_total",
			Help: "Total number of dispatch tasks enqueued",
		},
		[]string{"work_type", "queue"},
	)

	// 数据库连接池指标
	DBConnectionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "forkhub_db_connections_in_use",
			Help: "Number of database connections in use",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "forkhub_db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	DBConnectionsMax = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "forkhub_db_connections_max",
			Help: "Maximum number of database connections",
		},
	)

	// 错误指标
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forkhub_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "type"},
	)
)

// RecordHTTPRequest 记录 HTTP 请求
func RecordHTTPRequest(method, path string, status int, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, statusClass(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordDispatch 记录一次调度的结果
func RecordDispatch(workType, status string, items, concurrency int, duration float64) {
	DispatchesTotal.WithLabelValues(workType, status).Inc()
	DispatchDuration.WithLabelValues(workType).Observe(duration)
	if items > 0 {
		DispatchItems.WithLabelValues(workType).Add(float64(items))
	}
	if concurrency > 0 {
		PoolConcurrency.WithLabelValues(workType).Set(float64(concurrency))
	}
}

// RecordWorkerExit 记录 worker 退出
func RecordWorkerExit(workType string, failed bool) {
	status := "success"
	if failed {
		status = "fail"
	}
	WorkerExitsTotal.WithLabelValues(workType, status).Inc()
}

// RecordTaskEnqueued 记录调度任务入队
func RecordTaskEnqueued(workType, queue string) {
	TasksEnqueuedTotal.WithLabelValues(workType, queue).Inc()
}

// UpdateDBPoolStats 更新数据库连接池统计
func UpdateDBPoolStats(inUse, idle, max int32) {
	DBConnectionsInUse.Set(float64(inUse))
	DBConnectionsIdle.Set(float64(idle))
	DBConnectionsMax.Set(float64(max))
}

// RecordError 记录错误
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// statusClass 将 HTTP 状态码转为类别
func statusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
