package metrics

import "github.com/prometheus/client_golang/prometheus"

// 文档流水线指标.
var (
	// ProviderRequests 大模型调用次数，outcome: ok/unavailable/error.
	ProviderRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docvault_provider_requests_total",
			Help: "LLM provider calls by outcome",
		},
		[]string{"provider", "outcome"},
	)

	// ProviderDuration 大模型调用耗时.
	ProviderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docvault_provider_duration_seconds",
			Help:    "LLM provider call latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"provider"},
	)

	// ClassifyResults 分类结果，失败时 provider 为 none.
	ClassifyResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docvault_classify_results_total",
			Help: "Document classification results",
		},
		[]string{"provider", "result"},
	)

	// Relocations 对象迁移结果.
	Relocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docvault_relocations_total",
			Help: "Object relocations between lifecycle folders",
		},
		[]string{"to", "result"},
	)

	// Purged 清理任务硬删除的文档数.
	Purged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docvault_documents_purged_total",
			Help: "Soft-deleted documents purged by the cleanup sweep",
		},
	)

	// Ingested 入库文档数，status: created/exists/error.
	Ingested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docvault_documents_ingested_total",
			Help: "Documents seen by intake surfaces",
		},
		[]string{"source", "status"},
	)

	// SearchRequests 检索请求，strategy: ai/text.
	SearchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docvault_search_requests_total",
			Help: "Archive searches by strategy",
		},
		[]string{"strategy"},
	)

	// JobRuns 定时任务执行次数，result: ok/error/panic.
	JobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docvault_job_runs_total",
			Help: "Scheduled job runs by result",
		},
		[]string{"job", "result"},
	)

	// JobDuration 定时任务耗时.
	JobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docvault_job_duration_seconds",
			Help:    "Scheduled job duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 4, 8),
		},
		[]string{"job"},
	)
)

type namedCollector struct {
	name      string
	collector prometheus.Collector
}

func pipelineCollectors() []namedCollector {
	return []namedCollector{
		{"docvault_provider_requests_total", ProviderRequests},
		{"docvault_provider_duration_seconds", ProviderDuration},
		{"docvault_classify_results_total", ClassifyResults},
		{"docvault_relocations_total", Relocations},
		{"docvault_documents_purged_total", Purged},
		{"docvault_documents_ingested_total", Ingested},
		{"docvault_search_requests_total", SearchRequests},
		{"docvault_job_runs_total", JobRuns},
		{"docvault_job_duration_seconds", JobDuration},
	}
}
