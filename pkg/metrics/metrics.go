// Package metrics 维护进程内唯一的 Prometheus 注册表.
//
// HTTP 指标由 middleware.PrometheusMiddleware 记录，文档流水线指标见 pipeline.go.
// 指标未启用时这些 collector 依然可以写入，只是不会被导出.
//
//	if err := metrics.InitMetrics(cfg.Metrics); err != nil {
//		return err
//	}
//	_ = metrics.StartMetricsServer(cfg.Metrics, engine) // GET /metrics
//
//	metrics.ClassifyResults.WithLabelValues("primary", "ok").Inc()
package metrics

import (
	"fmt"
	"net/http"
	_ "net/http/pprof" // 注册 /debug/pprof 到 DefaultServeMux
	"slices"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/docvault/pkg/configs"
)

// HTTP 指标，endpoint 取路由模板.
var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docvault_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docvault_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	HTTPInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "docvault_http_in_flight_requests",
			Help: "HTTP requests currently being served",
		},
	)
)

var (
	registry   = prometheus.NewRegistry()
	registerer prometheus.Registerer = registry
	initOnce   sync.Once
	initErr    error
)

// InitMetrics 注册 collector，只在第一次调用时生效.
func InitMetrics(cfg configs.MetricsConfig) error {
	if !cfg.Enabled {
		return nil
	}

	initOnce.Do(func() { initErr = register(cfg) })

	return initErr
}

func register(cfg configs.MetricsConfig) error {
	if len(cfg.Labels) > 0 {
		registerer = prometheus.WrapRegistererWith(prometheus.Labels(cfg.Labels), registry)
	}

	cs := []prometheus.Collector{HTTPRequests, HTTPDuration, HTTPInFlight}

	if cfg.RuntimeMetrics {
		cs = append(cs,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	for _, c := range pipelineCollectors() {
		if len(cfg.CustomMetrics) == 0 || slices.Contains(cfg.CustomMetrics, c.name) {
			cs = append(cs, c.collector)
		}
	}

	for _, c := range cs {
		if err := registerer.Register(c); err != nil {
			return fmt.Errorf("register collector: %w", err)
		}
	}

	return nil
}

// StartMetricsServer 在 engine 上挂 /metrics，开启 pprof 时一并挂 /debug/pprof.
func StartMetricsServer(cfg configs.MetricsConfig, engine *gin.Engine) error {
	if !cfg.Enabled {
		return nil
	}

	engine.GET("/metrics", gin.WrapH(Handler()))

	if cfg.Pprof {
		engine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// Handler 导出注册表内容.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registerer})
}

// Registerer 返回带常量标签的注册器，供 watermill 等组件注册自己的指标.
func Registerer() prometheus.Registerer {
	return registerer
}
