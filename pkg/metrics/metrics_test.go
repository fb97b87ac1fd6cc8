package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/metrics"
)

func TestMetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := configs.MetricsConfig{Enabled: true, Labels: map[string]string{"env": "test"}}

	if err := metrics.InitMetrics(cfg); err != nil {
		t.Fatalf("init: %v", err)
	}

	// 重复初始化不应重复注册
	if err := metrics.InitMetrics(cfg); err != nil {
		t.Fatalf("second init: %v", err)
	}

	e := gin.New()
	if err := metrics.StartMetricsServer(cfg, e); err != nil {
		t.Fatalf("start: %v", err)
	}

	metrics.JobRuns.WithLabelValues("cleanup_deleted", "ok").Inc()

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}

	body := w.Body.String()
	if !strings.Contains(body, `docvault_job_runs_total{env="test",job="cleanup_deleted",result="ok"} 1`) {
		t.Fatalf("job metric missing from output:\n%s", body)
	}
}

func TestDisabledMetricsRegisterNothing(t *testing.T) {
	e := gin.New()
	if err := metrics.StartMetricsServer(configs.MetricsConfig{}, e); err != nil {
		t.Fatalf("start: %v", err)
	}

	if len(e.Routes()) != 0 {
		t.Fatalf("unexpected routes: %v", e.Routes())
	}
}
