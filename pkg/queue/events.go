package queue

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/log"
)

// Publisher 事件发布端，*mq.Client 满足该接口.
type Publisher interface {
	Publish(ctx context.Context, topic string, msgs ...*message.Message) error
}

// Emitter 按配置开关发布文档事件. 零值与 nil 都是可用的空实现.
type Emitter struct {
	pub Publisher
	cfg configs.EventsConfig
}

// NewEmitter 创建事件发布器，pub 为 nil 时所有事件被丢弃.
func NewEmitter(pub Publisher, cfg configs.EventsConfig) *Emitter {
	return &Emitter{pub: pub, cfg: cfg}
}

// Emit 发布一条文档事件，失败只记录日志.
func (e *Emitter) Emit(ctx context.Context, topic string, ev DocumentEvent) {
	if e == nil || e.pub == nil || !e.cfg.TopicEnabled(topic) {
		return
	}

	var opts []HeaderOption
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		opts = append(opts, WithTraceID(sc.TraceID().String()))
	}

	msg, err := NewWatermillMessage(topic, ev, opts...)
	if err == nil {
		err = e.pub.Publish(ctx, topic, msg)
	}

	if err != nil {
		log.Logger().Warn().Err(err).Str("component", "events").Str("topic", topic).Str("document_id", ev.ID).Msg("publish event failed")
	}
}

// ParseDocumentEvent 将 Watermill 消息解析为文档事件信封.
func ParseDocumentEvent(msg *message.Message) (Message[DocumentEvent], error) {
	return ParseWatermillMessage[DocumentEvent](msg)
}
