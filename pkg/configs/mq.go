package configs

import (
	"github.com/spf13/viper"
)

// MQType 消息队列类型.
type MQType string

const (
	MQTypeNATS      MQType = "nats"
	MQTypeRedis     MQType = "redis"
	MQTypeGoChannel MQType = "gochannel" // 进程内，单节点部署与测试
)

// NATS 连接默认值.
const (
	DefaultMQURL         = "localhost:4222"
	DefaultMQClientID    = "docvault"
	DefaultMaxReconnects = 5
	DefaultReconnectWait = 5  // 秒
	DefaultMaxPingsOut   = 3
	DefaultPingInterval  = 20 // 秒
	DefaultBufferSize    = 32 * 1024
)

// MQConfig 文档事件使用的消息队列.
type MQConfig struct {
	Type   MQType         `mapstructure:"type"   rule:"oneof=nats redis gochannel"`
	Common MQCommonConfig `mapstructure:"common"`
	NATS   MQNATSConfig   `mapstructure:"nats"`
	Redis  MQRedisConfig  `mapstructure:"redis"`
}

// MQCommonConfig NATS 连接参数与指标开关.
type MQCommonConfig struct {
	URL           string `mapstructure:"url"            rule:"omitempty,hostname_port|url"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	ClientID      string `mapstructure:"client_id"`
	MaxReconnects int    `mapstructure:"max_reconnects" rule:"min=0,max=100"`
	ReconnectWait int    `mapstructure:"reconnect_wait" rule:"min=1,max=300"`
	// StrictConnect 为 true 时启动阶段连不上直接失败，否则后台重试
	StrictConnect bool `mapstructure:"strict_connect"`
	MaxPingsOut   int  `mapstructure:"max_pings_out"  rule:"min=1,max=10"`
	PingInterval  int  `mapstructure:"ping_interval"  rule:"min=1,max=300"`
	BufferSize    int  `mapstructure:"buffer_size"    rule:"min=1024,max=1048576"`
	EnableMetrics bool `mapstructure:"enable_metrics"`
}

// MQNATSConfig NATS 专属配置.
type MQNATSConfig struct {
	JetStreamEnabled       bool   `mapstructure:"jetstream_enabled"`
	// SubjectPrefix 发布与订阅时加在主题前，共享集群时隔离
	SubjectPrefix          string `mapstructure:"subject_prefix"`
	JetStreamAutoProvision bool   `mapstructure:"jetstream_auto_provision"`
	JetStreamTrackMsgID    bool   `mapstructure:"jetstream_track_msg_id"`
	JetStreamAckAsync      bool   `mapstructure:"jetstream_ack_async"`
	JetStreamDurablePrefix string `mapstructure:"jetstream_durable_prefix"`
	// JWT/NKey 优先于 Common.User
	JWT         string   `mapstructure:"jwt"`
	NKey        string   `mapstructure:"nkey"`
	ClusterURLs []string `mapstructure:"cluster_urls"`
}

// MQRedisConfig Redis Pub/Sub 配置.
type MQRedisConfig struct {
	Addr     string `mapstructure:"addr"     rule:"hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"       rule:"min=0,max=15"`
}

func (c *MQConfig) setDefaults(v *viper.Viper) {
	// 单节点默认不依赖外部 broker
	v.SetDefault("mq.type", MQTypeGoChannel)

	v.SetDefault("mq.common.url", DefaultMQURL)
	v.SetDefault("mq.common.client_id", DefaultMQClientID)
	v.SetDefault("mq.common.max_reconnects", DefaultMaxReconnects)
	v.SetDefault("mq.common.reconnect_wait", DefaultReconnectWait)
	v.SetDefault("mq.common.max_pings_out", DefaultMaxPingsOut)
	v.SetDefault("mq.common.ping_interval", DefaultPingInterval)
	v.SetDefault("mq.common.buffer_size", DefaultBufferSize)
	v.SetDefault("mq.common.enable_metrics", true)

	v.SetDefault("mq.nats.jetstream_enabled", true)
	v.SetDefault("mq.nats.subject_prefix", "docvault.")
	v.SetDefault("mq.nats.jetstream_auto_provision", true)
	v.SetDefault("mq.nats.jetstream_track_msg_id", true)
	v.SetDefault("mq.nats.jetstream_ack_async", true)
	v.SetDefault("mq.nats.jetstream_durable_prefix", "docvault")

	v.SetDefault("mq.redis.addr", "localhost:6379")
	v.SetDefault("mq.redis.db", 0)
}
