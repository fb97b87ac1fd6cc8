package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	// 默认速率限制配置.
	DefaultRateLimitEnabled = false
	DefaultRateLimitRPS     = 20.0
	DefaultRateLimitBurst   = 40
	DefaultRateLimitKey     = "ip"
	DefaultRateLimitIdleTTL = 10 // 分钟
)

// RateLimitConfig 速率限制配置. 分类与检索会调用大模型，限流主要保护提供方额度.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"   rule:"gte=0"` // 每秒允许的请求数
	Burst   int     `mapstructure:"burst" rule:"gte=0"` // 突发容量
	// Key 限流维度：global、ip、user（审核人身份）、header:Header-Name
	Key string `mapstructure:"key"`
	// ExemptPaths 不限流的路径前缀
	ExemptPaths []string `mapstructure:"exempt_paths"`
	// IdleTTLMinutes 按键限流时，闲置多久回收该键的令牌桶
	IdleTTLMinutes int `mapstructure:"idle_ttl_minutes" rule:"gte=0"`
}

// GetIdleTTL 返回令牌桶闲置回收时间.
func (c RateLimitConfig) GetIdleTTL() time.Duration {
	if c.IdleTTLMinutes <= 0 {
		return DefaultRateLimitIdleTTL * time.Minute
	}

	return time.Duration(c.IdleTTLMinutes) * time.Minute
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", DefaultRateLimitEnabled)
	v.SetDefault("rate_limit.rps", DefaultRateLimitRPS)
	v.SetDefault("rate_limit.burst", DefaultRateLimitBurst)
	v.SetDefault("rate_limit.key", DefaultRateLimitKey)
	v.SetDefault("rate_limit.exempt_paths", []string{"/api/v1/health", "/metrics"})
	v.SetDefault("rate_limit.idle_ttl_minutes", DefaultRateLimitIdleTTL)
}
