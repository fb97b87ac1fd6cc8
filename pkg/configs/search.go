package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultSearchCorpusCap  = 100 // 语义检索最多提交的最近归档文档数
	DefaultSearchMaxResults = 50
	DefaultSearchMinQuery   = 2
	DefaultSearchCacheTTL   = 60 * time.Second
)

// SearchConfig 归档文档检索配置.
type SearchConfig struct {
	CorpusCap      int           `mapstructure:"corpus_cap"       rule:"min=1,max=1000"`
	MaxResults     int           `mapstructure:"max_results"      rule:"min=1"`
	MinQueryLength int           `mapstructure:"min_query_length" rule:"min=1"`
	Semantic       bool          `mapstructure:"semantic"` // 关闭后只使用关键词检索
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
}

func (c *SearchConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("search.corpus_cap", DefaultSearchCorpusCap)
	v.SetDefault("search.max_results", DefaultSearchMaxResults)
	v.SetDefault("search.min_query_length", DefaultSearchMinQuery)
	v.SetDefault("search.semantic", true)
	v.SetDefault("search.cache_ttl", DefaultSearchCacheTTL.String())
}
