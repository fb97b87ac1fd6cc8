package mq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/yeisme/docvault/pkg/configs"
)

// redisChannelBuffer 每个订阅的输出缓冲.
const redisChannelBuffer = 128

var errRedisClosed = errors.New("redis pubsub closed")

// redisEnvelope 频道上传输的消息，保留 UUID 与元数据（trace_id 等）.
type redisEnvelope struct {
	UUID     string            `json:"uuid"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Payload  []byte            `json:"payload"`
}

func marshalRedisMessage(msg *message.Message) ([]byte, error) {
	return sonic.Marshal(redisEnvelope{UUID: msg.UUID, Metadata: msg.Metadata, Payload: msg.Payload})
}

// unmarshalRedisMessage 解不开信封时按裸 payload 处理，兼容外部直接 PUBLISH 的消息.
func unmarshalRedisMessage(data []byte) *message.Message {
	var env redisEnvelope
	if err := sonic.Unmarshal(data, &env); err != nil || env.UUID == "" {
		return message.NewMessage(watermill.NewUUID(), data)
	}

	msg := message.NewMessage(env.UUID, env.Payload)
	for k, v := range env.Metadata {
		msg.Metadata.Set(k, v)
	}

	return msg
}

// redisPubSub Redis Pub/Sub 实现，发布与订阅共用一个客户端.
// 只提供 at-most-once 投递，订阅者离线期间的事件会丢失.
type redisPubSub struct {
	client redis.UniversalClient
	logger watermill.LoggerAdapter

	mu     sync.Mutex
	subs   []*redis.PubSub
	closed bool
	wg     sync.WaitGroup
}

func init() {
	RegisterFactory(configs.MQTypeRedis, redisFactory)
}

func redisFactory(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("ping redis %s: %w", cfg.Redis.Addr, err)
	}

	ps := &redisPubSub{client: rdb, logger: logger}

	return ps, ps, nil
}

// Publish 逐条发布，失败即返回.
func (r *redisPubSub) Publish(topic string, msgs ...*message.Message) error {
	ctx := context.Background()

	for _, msg := range msgs {
		data, err := marshalRedisMessage(msg)
		if err != nil {
			return fmt.Errorf("encode message %s: %w", msg.UUID, err)
		}

		if err := r.client.Publish(ctx, topic, data).Err(); err != nil {
			return fmt.Errorf("publish %s: %w", topic, err)
		}
	}

	return nil
}

// Subscribe 每个主题独立一个 PubSub 连接，ctx 取消或 Close 时输出通道关闭.
func (r *redisPubSub) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, errRedisClosed
	}

	ps := r.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	r.subs = append(r.subs, ps)

	out := make(chan *message.Message, redisChannelBuffer)

	r.wg.Go(func() {
		defer close(out)

		in := ps.Channel()

		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-in:
				if !ok {
					return
				}

				msg := unmarshalRedisMessage([]byte(m.Payload))
				msg.SetContext(ctx)

				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	})

	r.logger.Debug("redis subscribed", watermill.LogFields{"topic": topic})

	return out, nil
}

// Close 关闭全部订阅与连接，可重复调用.
func (r *redisPubSub) Close() error {
	r.mu.Lock()

	if r.closed {
		r.mu.Unlock()
		return nil
	}

	r.closed = true
	subs := r.subs
	r.subs = nil
	r.mu.Unlock()

	var errs []error

	for _, ps := range subs {
		if err := ps.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	r.wg.Wait()

	errs = append(errs, r.client.Close())

	return errors.Join(errs...)
}
