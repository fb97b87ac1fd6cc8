package configs

import "github.com/spf13/viper"

// AuthConfig 审核人身份与角色. 身份来自 oauth2-proxy 注入的请求头.
type AuthConfig struct {
	Enabled       bool     `mapstructure:"enabled"`         // 开启认证校验，关闭时所有请求视为 admin
	SkipPaths     []string `mapstructure:"skip_paths"`      // 跳过认证的路径前缀（如 /metrics、/api/v1/health）
	DevAllowQuery bool     `mapstructure:"dev_allow_query"` // 开发模式允许用 ?user= 便于本地调试
	RoleHeader    string   `mapstructure:"role_header"`     // 由网关注入的角色头
	DefaultRole   string   `mapstructure:"default_role"     rule:"omitempty,oneof=viewer reviewer admin"`
	AdminUsers    []string `mapstructure:"admin_users"`     // 直接授予 admin 的身份（邮箱）
	Reviewers     []string `mapstructure:"reviewers"`       // 直接授予 reviewer 的身份（邮箱）
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.dev_allow_query", false)
	v.SetDefault("auth.role_header", "X-Role")
	v.SetDefault("auth.default_role", "viewer")
	v.SetDefault("auth.skip_paths", []string{
		"/metrics",
		"/debug/pprof",
		"/api/v1/health",
		"/swagger",
		"/api/v1/intake-webhook",
	})
}
