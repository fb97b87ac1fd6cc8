package configs

import (
	"github.com/spf13/viper"
)

// LogConfig 终端与轮转文件日志. Level 支持热加载，其余字段重启后生效.
type LogConfig struct {
	Level  string `mapstructure:"level"  rule:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	Format string `mapstructure:"format" rule:"omitempty,oneof=console json"`

	EnableFile bool   `mapstructure:"enable_file"`
	FilePath   string `mapstructure:"file_path"    rule:"required_if=EnableFile true"`
	MaxSize    int    `mapstructure:"max_size_mb"  rule:"min=0"`
	MaxBackups int    `mapstructure:"max_backups"  rule:"min=0"`
	MaxAge     int    `mapstructure:"max_age_days" rule:"min=0"`
	Compress   bool   `mapstructure:"compress"`
}

func (l *LogConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.enable_file", false)
	v.SetDefault("log.file_path", "logs/docvault.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", true)
}
