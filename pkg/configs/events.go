package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）。
type EventsConfig struct {
	Enabled  bool                 `mapstructure:"enabled"` // 总开关
	Document DocumentEventsConfig `mapstructure:"document"`
}

// DocumentEventsConfig 针对文档生命周期的事件开关。
type DocumentEventsConfig struct {
	Ingested         bool `mapstructure:"ingested"`
	Classified       bool `mapstructure:"classified"`
	ClassifyFailed   bool `mapstructure:"classify_failed"`
	Archived         bool `mapstructure:"archived"`
	Deleted          bool `mapstructure:"deleted"`
	Purged           bool `mapstructure:"purged"`
	RelocationFailed bool `mapstructure:"relocation_failed"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	// 总开关：没有可用的 MQ 时由调用方降级为只记日志
	v.SetDefault("events.enabled", false)

	v.SetDefault("events.document.ingested", true)
	v.SetDefault("events.document.classified", true)
	v.SetDefault("events.document.archived", true)
	v.SetDefault("events.document.deleted", true)
	v.SetDefault("events.document.purged", true)
	v.SetDefault("events.document.relocation_failed", true)

	// 失败事件量随提供方可用性波动，默认关闭
	v.SetDefault("events.document.classify_failed", false)
}

// TopicEnabled 判断主题是否需要发布，未知主题总是发布.
func (c EventsConfig) TopicEnabled(topic string) bool {
	if !c.Enabled {
		return false
	}

	switch topic {
	case "document.ingested":
		return c.Document.Ingested
	case "document.classified":
		return c.Document.Classified
	case "document.classify_failed":
		return c.Document.ClassifyFailed
	case "document.archived":
		return c.Document.Archived
	case "document.deleted":
		return c.Document.Deleted
	case "document.purged":
		return c.Document.Purged
	case "document.relocation_failed":
		return c.Document.RelocationFailed
	default:
		return true
	}
}
