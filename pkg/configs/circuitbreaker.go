package configs

import (
	"time"

	"github.com/spf13/viper"
)

// CircuitBreakerConfig 整个 API 共用一个熔断器，5xx 计为失败.
// 大模型提供方持续报错时快速失败，避免请求堆积.
type CircuitBreakerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// FailureRate 统计窗口内失败比例达到该值即打开
	FailureRate float64 `mapstructure:"failure_rate" rule:"gte=0,lte=1"`
	MinRequests uint32  `mapstructure:"min_requests"`
	// IntervalSeconds 闭合状态下计数清零周期，0 表示从不清零
	IntervalSeconds int `mapstructure:"interval_seconds" rule:"gte=0"`
	// TimeoutSeconds 打开后多久进入半开
	TimeoutSeconds    int      `mapstructure:"timeout_seconds"      rule:"gte=1"`
	MaxRequestsInHalf uint32   `mapstructure:"max_requests_in_half"`
	ExcludePaths      []string `mapstructure:"exclude_paths"`
}

// GetInterval 计数清零周期.
func (c CircuitBreakerConfig) GetInterval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// GetTimeout 打开状态持续时间.
func (c CircuitBreakerConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *CircuitBreakerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("circuit_breaker.enabled", false)
	v.SetDefault("circuit_breaker.failure_rate", 0.5)
	v.SetDefault("circuit_breaker.min_requests", 20)
	v.SetDefault("circuit_breaker.interval_seconds", 60)
	v.SetDefault("circuit_breaker.timeout_seconds", 30)
	v.SetDefault("circuit_breaker.max_requests_in_half", 5)
	v.SetDefault("circuit_breaker.exclude_paths", []string{"/api/v1/health", "/metrics"})
}
