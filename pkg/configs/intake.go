package configs

import "github.com/spf13/viper"

const (
	DefaultMaxUploadBytes   = 50 << 20 // 50MB
	DefaultTextExcerptBytes = 16 << 10 // 提取文本最多保留 16KB
)

// IntakeConfig 文档入库配置.
type IntakeConfig struct {
	// WebhookSecret 邮件入库 webhook 的共享 Bearer 密钥，为空时拒绝所有 webhook 请求.
	WebhookSecret     string   `mapstructure:"webhook_secret"`
	MaxUploadBytes    int64    `mapstructure:"max_upload_bytes"    rule:"min=1"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
	// RemoveDuplicates 扫描时删除收件目录中与已有文档重复的对象.
	RemoveDuplicates bool `mapstructure:"remove_duplicates"`
	TextExcerptBytes int  `mapstructure:"text_excerpt_bytes"  rule:"min=0"`
}

func (c *IntakeConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("intake.webhook_secret", "")
	v.SetDefault("intake.max_upload_bytes", DefaultMaxUploadBytes)
	v.SetDefault("intake.allowed_extensions", []string{".pdf"})
	v.SetDefault("intake.remove_duplicates", false)
	v.SetDefault("intake.text_excerpt_bytes", DefaultTextExcerptBytes)
}
