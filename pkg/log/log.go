// Package log 全局 zerolog logger：终端输出（console 或 json）加可选的 lumberjack 轮转文件.
//
// 配置加载后调用 Configure；在此之前首次使用 Logger 会按当前配置（通常是零值）初始化.
package log

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yeisme/docvault/pkg/configs"
)

var (
	mu     sync.RWMutex
	logger zerolog.Logger
	once   sync.Once
	file   *lumberjack.Logger
)

// Configure 按配置重建全局 logger，可重复调用.
func Configure(cfg configs.LogConfig, debug bool) {
	once.Do(func() {}) // 之后的 Logger 调用不再做惰性初始化
	configure(cfg, debug)
}

func configure(cfg configs.LogConfig, debug bool) {
	mu.Lock()
	defer mu.Unlock()

	SetLevel(cfg.Level)

	var out io.Writer
	if strings.EqualFold(cfg.Format, "json") {
		out = os.Stderr
	} else {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}
	}

	if file != nil {
		_ = file.Close()
		file = nil
	}

	if cfg.EnableFile && cfg.FilePath != "" {
		file = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		// 文件始终写 json，便于采集
		out = zerolog.MultiLevelWriter(out, file)
	}

	zc := zerolog.New(out).With().Timestamp()
	if debug {
		zc = zc.Caller()
	}

	logger = zc.Logger()
	log.Logger = logger
}

// SetLevel 调整全局级别，无法解析时使用 info.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(lvl)
}

// Logger 返回全局 logger.
func Logger() *zerolog.Logger {
	once.Do(func() {
		cfg := configs.GetConfig()
		configure(cfg.Log, cfg.Server.Debug)
	})

	mu.RLock()
	defer mu.RUnlock()

	l := logger

	return &l
}

// Component 返回带 component 字段的子 logger.
func Component(name string) *zerolog.Logger {
	l := Logger().With().Str("component", name).Logger()
	return &l
}

// GinWriter 把 gin 的文本输出转成 zerolog 事件.
type GinWriter struct {
	logger *zerolog.Logger
	level  zerolog.Level
}

// NewGinWriter 创建以固定级别输出的 GinWriter.
func NewGinWriter(logger *zerolog.Logger, level zerolog.Level) *GinWriter {
	return &GinWriter{logger: logger, level: level}
}

func (w *GinWriter) Write(p []byte) (int, error) {
	if msg := strings.TrimSpace(string(p)); msg != "" {
		w.logger.WithLevel(w.level).Msg(msg)
	}

	return len(p), nil
}
