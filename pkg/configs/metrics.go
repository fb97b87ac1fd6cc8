package configs

import (
	"github.com/spf13/viper"
)

// MetricsConfig Prometheus 指标配置，/metrics 挂在业务端口上.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// RuntimeMetrics 额外采集 Go 运行时与进程指标
	RuntimeMetrics bool `mapstructure:"runtime_metrics"`
	// CustomMetrics 非空时只注册列出的文档流水线指标
	CustomMetrics []string `mapstructure:"custom_metrics"`
	// Labels 作为常量标签加到所有指标上
	Labels map[string]string `mapstructure:"labels"`
	Pprof  bool              `mapstructure:"pprof"`
}

func (c *MetricsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.runtime_metrics", true)
	v.SetDefault("metrics.custom_metrics", []string{})
	v.SetDefault("metrics.labels", map[string]string{})
	v.SetDefault("metrics.pprof", false)
}
