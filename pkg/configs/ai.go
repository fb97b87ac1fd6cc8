package configs

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

// ProviderKind 大模型接口协议类型.
type ProviderKind string

const (
	// ProviderGemini generateContent 协议，适合快速的多模态模型.
	ProviderGemini ProviderKind = "gemini"
	// ProviderOpenAI chat/completions 兼容协议.
	ProviderOpenAI ProviderKind = "openai"

	SchemaUnified = "unified" // 统一 document_date
	SchemaLegacy  = "legacy"  // 按类别拆分日期字段

	DefaultProviderTimeout = 60 * time.Second
)

// AIConfig 大模型提供方配置. Providers 的顺序即调用优先级.
type AIConfig struct {
	SchemaVersion string           `mapstructure:"schema_version" rule:"oneof=unified legacy"`
	Providers     []ProviderConfig `mapstructure:"providers"      rule:"dive"`
	// Judge 近似重复判定使用的提供方名称，为空时使用第一个可用提供方.
	Judge string `mapstructure:"judge"`
	// Ranker 语义检索使用的提供方名称，为空时使用第一个可用提供方.
	Ranker string `mapstructure:"ranker"`
}

// ProviderConfig 单个提供方的连接参数.
type ProviderConfig struct {
	Name      string        `mapstructure:"name"        rule:"required"`
	Kind      ProviderKind  `mapstructure:"kind"        rule:"oneof=gemini openai"`
	Enabled   bool          `mapstructure:"enabled"`
	APIKey    string        `mapstructure:"api_key"`
	APIKeyEnv string        `mapstructure:"api_key_env"` // 从该环境变量读取密钥
	BaseURL   string        `mapstructure:"base_url"    rule:"omitempty,url"`
	Model     string        `mapstructure:"model"`
	Timeout   time.Duration `mapstructure:"timeout"`
	// RPS 与 Burst 控制单个提供方的请求速率，RPS<=0 表示不限速.
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
	// BreakerFailures 连续失败多少次后熔断，0 表示不熔断.
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerOpen     time.Duration `mapstructure:"breaker_open"`
}

// Credential 返回提供方密钥，配置值优先于环境变量.
func (p ProviderConfig) Credential() string {
	if p.APIKey != "" {
		return p.APIKey
	}

	if p.APIKeyEnv != "" {
		return os.Getenv(p.APIKeyEnv)
	}

	return ""
}

// GetTimeout 返回请求超时，未配置时使用默认值.
func (p ProviderConfig) GetTimeout() time.Duration {
	if p.Timeout <= 0 {
		return DefaultProviderTimeout
	}

	return p.Timeout
}

func (c *AIConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("ai.schema_version", SchemaUnified)
	v.SetDefault("ai.judge", "")
	v.SetDefault("ai.ranker", "")
	v.SetDefault("ai.providers", []map[string]any{
		{
			"name":             "primary",
			"kind":             string(ProviderGemini),
			"enabled":          true,
			"api_key_env":      "GEMINI_API_KEY",
			"base_url":         "https://generativelanguage.googleapis.com",
			"model":            "gemini-2.0-flash",
			"timeout":          "60s",
			"rps":              2,
			"burst":            4,
			"breaker_failures": 5,
			"breaker_open":     "60s",
		},
		{
			"name":             "fallback",
			"kind":             string(ProviderOpenAI),
			"enabled":          true,
			"api_key_env":      "OPENAI_API_KEY",
			"base_url":         "https://api.openai.com",
			"model":            "gpt-4o",
			"timeout":          "90s",
			"rps":              1,
			"burst":            2,
			"breaker_failures": 5,
			"breaker_open":     "60s",
		},
	})
}
