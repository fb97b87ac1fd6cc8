package kv

import (
	"bytes"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

// envelopePrefix 标记带过期时间的值. memory 与 nats 没有逐键过期，读取时按信封判断.
var envelopePrefix = []byte("DVTTL2:")

type envelope struct {
	Value     []byte `json:"v"`
	ExpiresAt int64  `json:"x"` // unix 毫秒
}

// wrap ttl<=0 时原样返回副本.
func wrap(value []byte, ttl time.Duration, now time.Time) ([]byte, error) {
	if ttl <= 0 {
		return bytes.Clone(value), nil
	}

	b, err := sonic.Marshal(envelope{Value: value, ExpiresAt: now.Add(ttl).UnixMilli()})
	if err != nil {
		return nil, fmt.Errorf("wrap ttl value: %w", err)
	}

	return append(bytes.Clone(envelopePrefix), b...), nil
}

// unwrap 解开信封；没有信封的值视为永不过期.
func unwrap(b []byte, now time.Time) (value []byte, expired bool, err error) {
	body, ok := bytes.CutPrefix(b, envelopePrefix)
	if !ok {
		return b, false, nil
	}

	var env envelope
	if err := sonic.Unmarshal(body, &env); err != nil {
		return nil, false, fmt.Errorf("unwrap ttl value: %w", err)
	}

	if now.UnixMilli() >= env.ExpiresAt {
		return nil, true, nil
	}

	return env.Value, false, nil
}
