package configs

import (
	"time"

	"github.com/spf13/viper"
)

// ReviewConfig 人工审核配置.
type ReviewConfig struct {
	NearDuplicate NearDuplicateConfig `mapstructure:"near_duplicate"`
}

// NearDuplicateConfig 归档前的近似重复检查.
// 默认只提示，HardBlock 打开后候选数达到 Threshold 时拒绝归档.
type NearDuplicateConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	HardBlock     bool          `mapstructure:"hard_block"`
	Threshold     int           `mapstructure:"threshold"      rule:"min=1"`
	MaxCandidates int           `mapstructure:"max_candidates" rule:"min=1,max=200"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

func (c *ReviewConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("review.near_duplicate.enabled", true)
	v.SetDefault("review.near_duplicate.hard_block", false)
	v.SetDefault("review.near_duplicate.threshold", 1)
	v.SetDefault("review.near_duplicate.max_candidates", 20)
	v.SetDefault("review.near_duplicate.cache_ttl", "5m")
}
