package configs

import "github.com/spf13/viper"

// JobsConfig 定时任务配置.
type JobsConfig struct {
	CleanupDeleted CronJobConfig `mapstructure:"cleanup_deleted"`
	BucketScan     CronJobConfig `mapstructure:"bucket_scan"`
}

// CronJobConfig 单个定时任务.
type CronJobConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron"    rule:"required"`
}

func (c *JobsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("jobs.cleanup_deleted.enabled", true)
	v.SetDefault("jobs.cleanup_deleted.cron", "0 3 * * *")
	v.SetDefault("jobs.bucket_scan.enabled", false)
	v.SetDefault("jobs.bucket_scan.cron", "*/15 * * * *")
}
