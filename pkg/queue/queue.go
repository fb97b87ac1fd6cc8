// Package queue 文档领域事件：主题、负载与 header+payload 信封.
//
// 每次生命周期变化（入库、分类、归档、删除、清除、迁移失败）发布一条事件.
// 事件只是通知，发布失败仅记录日志；消费者需要自行处理重复投递并忽略未知字段.
//
//	{
//	  "header": {"topic": "document.archived", "trace_id": "4bf9...", "producer": "docvault",
//	             "occurred_at": "2025-01-02T03:04:05.123456Z", "version": "v1"},
//	  "payload": {"id": "01jh3k9q6f2x8m5n7p4r1t0v2w", "status": "archived",
//	              "from_status": "pending_approval", "file_path": "archive/invoice123.pdf"}
//	}
//
// 订阅端：
//
//	ch, _ := client.Subscribe(ctx, queue.TopicDocumentArchived)
//	for m := range ch {
//		if env, err := queue.ParseDocumentEvent(m); err == nil {
//			handle(env.Payload)
//		}
//		m.Ack()
//	}
package queue

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

const (
	PayloadVersionV1 = "v1"
	// DefaultProducer 事件头中的默认生产者.
	DefaultProducer = "docvault"
)

// HeaderOption 调整事件头.
type HeaderOption = func(*EventHeader)

// WithTraceID 关联发布时的追踪 ID.
func WithTraceID(id string) HeaderOption { return func(h *EventHeader) { h.TraceID = id } }

// WithProducer 覆盖生产者.
func WithProducer(p string) HeaderOption { return func(h *EventHeader) { h.Producer = p } }

func newHeader(topic string, opts []HeaderOption) EventHeader {
	h := EventHeader{
		Topic:      topic,
		Producer:   DefaultProducer,
		OccurredAt: time.Now().UTC(),
		Version:    PayloadVersionV1,
	}

	for _, opt := range opts {
		opt(&h)
	}

	return h
}

// NewWatermillMessage 把负载装进信封，并把头部字段复制到消息元数据，便于不解析 body 的中间件路由.
func NewWatermillMessage[T any](topic string, payload T, opts ...HeaderOption) (*message.Message, error) {
	env := Message[T]{Header: newHeader(topic, opts), Payload: payload}

	data, err := sonic.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", topic, err)
	}

	msg := message.NewMessage(uuid.NewString(), data)

	for k, v := range map[string]string{
		"topic":       env.Header.Topic,
		"trace_id":    env.Header.TraceID,
		"producer":    env.Header.Producer,
		"version":     env.Header.Version,
		"occurred_at": env.Header.OccurredAt.Format(time.RFC3339Nano),
	} {
		if v != "" {
			msg.Metadata.Set(k, v)
		}
	}

	return msg, nil
}

// ParseWatermillMessage 解出信封.
func ParseWatermillMessage[T any](msg *message.Message) (Message[T], error) {
	var env Message[T]
	if err := sonic.Unmarshal(msg.Payload, &env); err != nil {
		return env, fmt.Errorf("decode event %s: %w", msg.UUID, err)
	}

	return env, nil
}
