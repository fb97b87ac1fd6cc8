package provider

import (
	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/log"
)

// New 根据协议类型创建提供方，未知类型返回 nil.
func New(cfg configs.ProviderConfig) Provider {
	switch cfg.Kind {
	case configs.ProviderGemini:
		return NewGemini(cfg)
	case configs.ProviderOpenAI:
		return NewOpenAI(cfg)
	default:
		return nil
	}
}

// Build 按配置顺序构造启用的提供方（即调用优先级），并加上熔断与限速.
func Build(cfg configs.AIConfig) []Provider {
	out := make([]Provider, 0, len(cfg.Providers))

	for _, pc := range cfg.Providers {
		if !pc.Enabled {
			continue
		}

		p := New(pc)
		if p == nil {
			log.Logger().Warn().Str("provider", pc.Name).Str("kind", string(pc.Kind)).Msg("unknown provider kind, skipped")
			continue
		}

		if pc.Credential() == "" {
			log.Logger().Warn().Str("provider", pc.Name).Msg("provider has no credential, it will always be skipped")
		}

		out = append(out, Guard(p, pc))
	}

	return out
}

// Pick 按名称选择提供方，名称为空或不存在时返回第一个，列表为空返回 nil.
func Pick(providers []Provider, name string) Provider {
	if len(providers) == 0 {
		return nil
	}

	for _, p := range providers {
		if p.Name() == name {
			return p
		}
	}

	return providers[0]
}
