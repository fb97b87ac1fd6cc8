package configs

import (
	"time"

	"github.com/spf13/viper"
)

// KVConfig 缓存存储：检索结果、统计响应与 webhook 幂等标记都写在这里.
// 只有 type 选中的子配置会被使用.
type KVConfig struct {
	Type       string             `mapstructure:"type"       rule:"oneof=memory redis nats groupcache"`
	Redis      RedisKVConfig      `mapstructure:"redis"`
	NATS       NATSKVConfig       `mapstructure:"nats"`
	Groupcache GroupcacheKVConfig `mapstructure:"groupcache"`
}

// RedisKVConfig 单机 Redis，原生过期.
type RedisKVConfig struct {
	Addr     string `mapstructure:"addr"     rule:"hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"       rule:"min=0,max=15"`
	// KeyPrefix 多个部署共用一个库时隔离键空间
	KeyPrefix          string `mapstructure:"key_prefix"           rule:"max=64"`
	DialTimeoutSeconds int    `mapstructure:"dial_timeout_seconds" rule:"min=0,max=60"`
}

// GetDialTimeout 建连超时，0 使用驱动默认值.
func (c RedisKVConfig) GetDialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutSeconds) * time.Second
}

// NATSKVConfig JetStream KV 桶，不存在时自动创建.
type NATSKVConfig struct {
	URL      string `mapstructure:"url"      rule:"hostname_port|url"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Bucket   string `mapstructure:"bucket"   rule:"required,max=64"`
}

// GroupcacheKVConfig 进程内读缓存；配置 peers 后按键分片到各实例.
type GroupcacheKVConfig struct {
	Name       string   `mapstructure:"name"        rule:"required"`
	CacheBytes int64    `mapstructure:"cache_bytes" rule:"min=1048576"`
	Peers      []string `mapstructure:"peers"       rule:"dive,url"`
	Self       string   `mapstructure:"self"        rule:"omitempty,url"`
}

func (c *KVConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("kv.type", "memory")

	v.SetDefault("kv.redis.addr", "localhost:6379")
	v.SetDefault("kv.redis.db", 0)
	v.SetDefault("kv.redis.key_prefix", "docvault:")
	v.SetDefault("kv.redis.dial_timeout_seconds", 5)

	v.SetDefault("kv.nats.url", "localhost:4222")
	v.SetDefault("kv.nats.bucket", "docvault-kv")

	v.SetDefault("kv.groupcache.name", "docvault-cache")
	v.SetDefault("kv.groupcache.cache_bytes", 64<<20)
	v.SetDefault("kv.groupcache.self", "http://localhost:8080")
}
