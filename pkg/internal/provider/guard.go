package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/yeisme/docvault/pkg/configs"
)

const defaultBreakerOpen = 60 * time.Second

// guarded 为提供方加上熔断与限速.
type guarded struct {
	Provider

	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// Guard 按配置包装提供方. BreakerFailures 与 RPS 都未配置时原样返回.
func Guard(p Provider, cfg configs.ProviderConfig) Provider {
	g := &guarded{Provider: p}

	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}

		g.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	if cfg.BreakerFailures > 0 {
		open := cfg.BreakerOpen
		if open <= 0 {
			open = defaultBreakerOpen
		}

		threshold := cfg.BreakerFailures
		g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "provider-" + p.Name(),
			MaxRequests: 1,
			Timeout:     open,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			// 缺少密钥是配置问题，不计入失败
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrNoCredential)
			},
		})
	}

	if g.limiter == nil && g.breaker == nil {
		return p
	}

	return g
}

// Complete 先等待限速令牌，再经熔断器调用.
func (g *guarded) Complete(ctx context.Context, req Request) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
	}

	if g.breaker == nil {
		return g.Provider.Complete(ctx, req)
	}

	out, err := g.breaker.Execute(func() (any, error) {
		return g.Provider.Complete(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if err != nil {
		return "", err
	}

	text, _ := out.(string)

	return text, nil
}
