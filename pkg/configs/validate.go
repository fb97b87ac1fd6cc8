package configs

import (
	"fmt"

	"github.com/yeisme/docvault/pkg/rule"
)

// Validate 使用 rule 标签校验配置.
func (c *AppConfig) Validate() error {
	if err := rule.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

// ProviderByName 按名称查找已启用的提供方配置.
func (c *AIConfig) ProviderByName(name string) (ProviderConfig, bool) {
	for _, p := range c.Providers {
		if p.Name == name && p.Enabled {
			return p, true
		}
	}

	return ProviderConfig{}, false
}
