package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/docvault/pkg/configs"
)

const limiterSweepInterval = time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet 按键维护令牌桶，闲置超过 idle 的键会被回收.
type limiterSet struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	rps     rate.Limit
	burst   int
	idle    time.Duration
}

func (s *limiterSet) get(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(s.rps, s.burst)}
		s.entries[key] = e
	}

	e.lastSeen = now

	return e.limiter
}

func (s *limiterSet) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, e := range s.entries {
		if now.Sub(e.lastSeen) > s.idle {
			delete(s.entries, k)
		}
	}
}

// RateLimitMiddleware 令牌桶限流. Key 决定限流维度：
//   - global：全局共享一个桶
//   - ip：按客户端 IP
//   - user：按审核人身份，取不到时退回 IP
//   - header:Name：按指定请求头，取不到时退回 IP
//
// ExemptPaths 前缀不限流.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	keyMode := strings.ToLower(strings.TrimSpace(cfg.Key))
	retryAfter := strconv.Itoa(int(math.Ceil(1 / cfg.RPS)))

	reject := func(c *gin.Context) {
		c.Header("Retry-After", retryAfter)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, please retry later"})
	}

	if keyMode == "global" || keyMode == "" {
		limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)

		return func(c *gin.Context) {
			if !isSkippedPath(c.Request.URL.Path, cfg.ExemptPaths) && !limiter.Allow() {
				reject(c)
				return
			}

			c.Next()
		}
	}

	set := &limiterSet{
		entries: make(map[string]*limiterEntry),
		rps:     rate.Limit(cfg.RPS),
		burst:   cfg.Burst,
		idle:    cfg.GetIdleTTL(),
	}

	go func() {
		ticker := time.NewTicker(limiterSweepInterval)
		defer ticker.Stop()

		for now := range ticker.C {
			set.sweep(now)
		}
	}()

	return func(c *gin.Context) {
		if isSkippedPath(c.Request.URL.Path, cfg.ExemptPaths) {
			c.Next()
			return
		}

		if !set.get(limitKey(c, keyMode), time.Now()).Allow() {
			reject(c)
			return
		}

		c.Next()
	}
}

func limitKey(c *gin.Context, mode string) string {
	var key string

	switch {
	case mode == "user":
		key = Identity(c)
	case strings.HasPrefix(mode, "header:"):
		key = c.GetHeader(strings.TrimPrefix(mode, "header:"))
	}

	if key == "" {
		key = clientIP(c)
	}

	if key == "" {
		key = "unknown"
	}

	return key
}

func clientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}

	if host, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil {
		return host
	}

	return c.Request.RemoteAddr
}
