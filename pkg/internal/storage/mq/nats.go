package mq

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats.go"

	"github.com/yeisme/docvault/pkg/configs"
)

const (
	natsDrainTimeout   = 30 * time.Second
	natsFlusherTimeout = 10 * time.Second
)

func init() {
	RegisterFactory(configs.MQTypeNATS, newNATS)
}

// natsURL 集群地址优先，单节点地址缺少 scheme 时补 nats://.
func natsURL(cfg *configs.MQConfig) string {
	if urls := cfg.NATS.ClusterURLs; len(urls) > 0 {
		return strings.Join(urls, ",")
	}

	if strings.Contains(cfg.Common.URL, "://") {
		return cfg.Common.URL
	}

	return "nats://" + cfg.Common.URL
}

func natsOptions(cfg *configs.MQConfig) []nats.Option {
	c := cfg.Common

	opts := []nats.Option{
		nats.Name(c.ClientID),
		nats.MaxReconnects(c.MaxReconnects),
		nats.ReconnectWait(time.Duration(c.ReconnectWait) * time.Second),
		nats.PingInterval(time.Duration(c.PingInterval) * time.Second),
		nats.MaxPingsOutstanding(c.MaxPingsOut),
		nats.ReconnectBufSize(c.BufferSize),
		nats.DrainTimeout(natsDrainTimeout),
		nats.FlusherTimeout(natsFlusherTimeout),
		nats.RetryOnFailedConnect(!c.StrictConnect),
	}

	// JWT 凭据优先于用户名密码
	if cfg.NATS.JWT != "" {
		return append(opts, nats.UserJWTAndSeed(cfg.NATS.JWT, cfg.NATS.NKey))
	}

	if c.User != "" {
		opts = append(opts, nats.UserInfo(c.User, c.Password))
	}

	return opts
}

// newNATS 创建 NATS（可选 JetStream）发布端与订阅端，主题统一加 subject_prefix.
func newNATS(_ context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	url, opts := natsURL(cfg), natsOptions(cfg)

	js := wmnats.JetStreamConfig{
		Disabled:      !cfg.NATS.JetStreamEnabled,
		AutoProvision: cfg.NATS.JetStreamAutoProvision,
		TrackMsgId:    cfg.NATS.JetStreamTrackMsgID,
		AckAsync:      cfg.NATS.JetStreamAckAsync,
		DurablePrefix: cfg.NATS.JetStreamDurablePrefix,
	}

	logger.Debug("connecting nats", watermill.LogFields{
		"url":            url,
		"jetstream":      cfg.NATS.JetStreamEnabled,
		"subject_prefix": cfg.NATS.SubjectPrefix,
	})

	marshaler := &wmnats.JSONMarshaler{}

	pub, err := wmnats.NewPublisher(wmnats.PublisherConfig{
		URL:         url,
		NatsOptions: opts,
		JetStream:   js,
		Marshaler:   marshaler,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("nats publisher: %w", err)
	}

	sub, err := wmnats.NewSubscriber(wmnats.SubscriberConfig{
		URL:         url,
		NatsOptions: opts,
		JetStream:   js,
		Unmarshaler: marshaler,
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, nil, fmt.Errorf("nats subscriber: %w", err)
	}

	if p := cfg.NATS.SubjectPrefix; p != "" {
		return prefixedPublisher{Publisher: pub, prefix: p}, prefixedSubscriber{Subscriber: sub, prefix: p}, nil
	}

	return pub, sub, nil
}

// prefixedPublisher 与 prefixedSubscriber 在共享集群上隔离 docvault 的主题.
type prefixedPublisher struct {
	message.Publisher
	prefix string
}

func (p prefixedPublisher) Publish(topic string, msgs ...*message.Message) error {
	return p.Publisher.Publish(p.prefix+topic, msgs...)
}

type prefixedSubscriber struct {
	message.Subscriber
	prefix string
}

func (s prefixedSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return s.Subscriber.Subscribe(ctx, s.prefix+topic)
}
