// Package configs 加载 docvault 的配置（yaml/json/toml/dotenv + DOCVAULT_ 环境变量）.
//
// 配置按关注点拆到各文件，每个子配置通过 setDefaults 提供默认值，rule 标签负责校验.
// 开启 server.reload_config 后文件变更会热加载：新配置先校验，失败则保留旧配置，
// 成功后依次调用 OnReload 注册的回调.
//
//	if err := configs.InitConfig("./"); err != nil {
//		return err
//	}
//	cfg := configs.GetConfig()
//	fmt.Println(cfg.S3.Folders.Review, cfg.AI.Providers[0].Name)
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// AppVersion 应用版本号，构建时可通过 -ldflags 覆盖.
var AppVersion = "0.3.0"

// EnvPrefix 环境变量前缀，例如 DOCVAULT_SERVER_PORT.
const EnvPrefix = "DOCVAULT"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		DB             DBConfig             `mapstructure:"db"`              // DBConfig 数据库配置
		S3             S3Config             `mapstructure:"s3"`              // S3Config 对象存储配置，包含生命周期目录约定
		MQ             MQConfig             `mapstructure:"mq"`              // MQConfig 消息队列配置
		KV             KVConfig             `mapstructure:"kv"`              // KVConfig 键值存储配置
		Server         ServerConfig         `mapstructure:"server"`          // ServerConfig 其它服务器配置，日志级别、服务器端口等
		Log            LogConfig            `mapstructure:"log"`             // LogConfig 日志相关配置
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // MetricsConfig 监控配置
		Tracing        TracingConfig        `mapstructure:"tracing"`         // TracingConfig 链路追踪配置
		Auth           AuthConfig           `mapstructure:"auth"`            // AuthConfig 身份头认证配置
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // RateLimitConfig HTTP 限流配置
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // CircuitBreakerConfig HTTP 熔断配置
		Events         EventsConfig         `mapstructure:"events"`          // EventsConfig 领域事件开关
		AI             AIConfig             `mapstructure:"ai"`              // AIConfig 大模型提供方配置
		Search         SearchConfig         `mapstructure:"search"`          // SearchConfig 检索配置
		Intake         IntakeConfig         `mapstructure:"intake"`          // IntakeConfig 入库配置
		Review         ReviewConfig         `mapstructure:"review"`          // ReviewConfig 审核配置
		Jobs           JobsConfig           `mapstructure:"jobs"`            // JobsConfig 定时任务配置
	}
)

var (
	current  atomic.Pointer[AppConfig]
	appViper *viper.Viper

	hooksMu sync.Mutex
	hooks   []func(*AppConfig)
)

func init() {
	current.Store(&AppConfig{})
}

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv)并启用热重载.
func InitConfig(path string) error {
	appViper = viper.New()
	// 设置默认值
	setAllDefaults(appViper)

	// 检查path是否是文件
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		// 是文件，使用SetConfigFile，Viper会自动检测类型
		appViper.SetConfigFile(path)
	} else {
		// 是目录，设置配置名和路径
		appViper.SetConfigName("config")
		appViper.AddConfigPath(path)
		appViper.AddConfigPath(path + "/configs")

		exts := []string{"yaml", "yml", "json", "toml", "env", "dotenv"}

		for _, ext := range exts {
			cfg := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				appViper.SetConfigFile(cfg)

				break
			}
		}
	}

	appViper.SetEnvPrefix(EnvPrefix)
	appViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	appViper.AutomaticEnv()

	// 读取配置，找不到配置文件时退回默认值与环境变量
	if err := appViper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 解析到全局配置
	var loaded AppConfig
	if err := appViper.Unmarshal(&loaded); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	current.Store(&loaded)

	reloadConfigs(appViper, loaded.Server.ReloadConfig)

	return nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var c AppConfig

	c.Server.setDefaults(v)
	c.DB.setDefaults(v)
	c.S3.setDefaults(v)
	c.MQ.setDefaults(v)
	c.KV.setDefaults(v)
	c.Log.setDefaults(v)
	c.Metrics.setDefaults(v)
	c.Tracing.setDefaults(v)
	c.Auth.setDefaults(v)
	c.RateLimit.setDefaults(v)
	c.CircuitBreaker.setDefaults(v)
	c.Events.setDefaults(v)
	c.AI.setDefaults(v)
	c.Search.setDefaults(v)
	c.Intake.setDefaults(v)
	c.Review.setDefaults(v)
	c.Jobs.setDefaults(v)
}

// Defaults 返回只包含默认值的配置，供测试和无配置文件场景使用.
func Defaults() AppConfig {
	v := viper.New()
	setAllDefaults(v)

	var c AppConfig
	_ = v.Unmarshal(&c)

	return c
}

// reloadConfigs 监听配置文件变化. 新配置校验失败时保留旧配置.
func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		next := new(AppConfig)
		if err := v.Unmarshal(next); err != nil {
			fmt.Fprintf(os.Stderr, "config reload %s: %v\n", e.Name, err)
			return
		}

		if err := next.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "config reload %s rejected: %v\n", e.Name, err)
			return
		}

		current.Store(next)

		hooksMu.Lock()
		fns := hooks
		hooksMu.Unlock()

		for _, fn := range fns {
			fn(next)
		}
	})
	v.WatchConfig()
}

// OnReload 注册热加载成功后的回调，例如调整日志级别.
func OnReload(fn func(*AppConfig)) {
	hooksMu.Lock()
	hooks = append(hooks, fn)
	hooksMu.Unlock()
}

// GetConfig 返回当前配置. 热加载会替换整个实例，长期持有的指针看到的是旧值.
func GetConfig() *AppConfig {
	return current.Load()
}

// GetViper 返回全局 Viper 实例，InitConfig 之前为 nil.
func GetViper() *viper.Viper {
	return appViper
}
