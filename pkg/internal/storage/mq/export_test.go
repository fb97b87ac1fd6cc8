package mq

import "github.com/ThreeDotsLabs/watermill/message"

var (
	MarshalRedisMessage   = marshalRedisMessage
	UnmarshalRedisMessage = unmarshalRedisMessage
)

func PrefixTopics(pub message.Publisher, sub message.Subscriber, prefix string) (message.Publisher, message.Subscriber) {
	return prefixedPublisher{Publisher: pub, prefix: prefix}, prefixedSubscriber{Subscriber: sub, prefix: prefix}
}
