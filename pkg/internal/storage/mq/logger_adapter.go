package mq

import (
	"maps"
	"slices"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// watermillLogger 把 watermill 的日志转给 zerolog.
// watermill 的 Info 很频繁（每次订阅、每条消息），统一降为 Debug.
type watermillLogger struct {
	l zerolog.Logger
}

// NewLogger 以 component=mq 包装 zerolog logger.
func NewLogger(l *zerolog.Logger) watermill.LoggerAdapter {
	return watermillLogger{l: l.With().Str("component", "mq").Logger()}
}

// withFields 按键名排序写入字段，输出稳定.
func withFields(ev *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		ev = ev.Interface(k, fields[k])
	}

	return ev
}

func (w watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	withFields(w.l.Error().Err(err), fields).Msg(msg)
}

func (w watermillLogger) Info(msg string, fields watermill.LogFields) {
	withFields(w.l.Debug(), fields).Msg(msg)
}

func (w watermillLogger) Debug(msg string, fields watermill.LogFields) {
	withFields(w.l.Debug(), fields).Msg(msg)
}

func (w watermillLogger) Trace(msg string, fields watermill.LogFields) {
	withFields(w.l.Trace(), fields).Msg(msg)
}

func (w watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return watermillLogger{l: w.l.With().Fields(map[string]any(fields)).Logger()}
}
