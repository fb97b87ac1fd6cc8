package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPort            = 8080      // 监听端口
	DefaultHost            = "0.0.0.0" // 监听地址
	DefaultReloadConfig    = true      // 是否启用配置热重载
	DefaultDebug           = false     // 调试模式：gin debug、SQL 日志、Swagger
	DefaultTimeout         = 30        // 读请求头超时，秒
	DefaultShutdownTimeout = 15        // 优雅退出等待，秒
)

// ServerConfig HTTP 服务配置.
type ServerConfig struct {
	Port            int      `mapstructure:"port"             rule:"min=1,max=65535"`
	Host            string   `mapstructure:"host"             rule:"ip"`
	ReloadConfig    bool     `mapstructure:"reload_config"`
	Debug           bool     `mapstructure:"debug"`
	Timeout         int      `mapstructure:"timeout"          rule:"min=1,max=300"`
	ShutdownTimeout int      `mapstructure:"shutdown_timeout" rule:"min=1,max=300"`
	AllowOrigins    []string `mapstructure:"allow_origins"` // 审核前端的来源，为空时允许全部
}

// GetTimeoutDuration 返回读请求头超时.
func (s *ServerConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// GetShutdownTimeout 返回优雅退出等待时间.
func (s *ServerConfig) GetShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeout) * time.Second
}

// setDefaults 设置服务器配置的默认值.
func (s *ServerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.reload_config", DefaultReloadConfig)
	v.SetDefault("server.debug", DefaultDebug)
	v.SetDefault("server.timeout", DefaultTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("server.allow_origins", []string{})
}
