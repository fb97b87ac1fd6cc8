package kv

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/log"
)

// JetStream KV 键只允许这些字符；缓存键里的 ':' 映射为 '='，其他非法键整体 base64.
var (
	natsKeyRe  = regexp.MustCompile(`^[-/_=.a-zA-Z0-9]+$`)
	natsColons = strings.NewReplacer(":", "=")
	natsEquals = strings.NewReplacer("=", ":")
)

const natsB64Prefix = "_b64."

// NATSKV JetStream KV 实现. JetStream 只有桶级 TTL，单键过期用 ttl 信封实现.
type NATSKV struct {
	kv   nats.KeyValue
	conn *nats.Conn
	now  func() time.Time
}

// NewNATSKV 连接 NATS 并打开（必要时创建）桶.
func NewNATSKV(_ context.Context, config any) (KVStore, error) {
	cfg, ok := config.(*configs.NATSKVConfig)
	if !ok {
		return nil, fmt.Errorf("invalid nats kv config: %T", config)
	}

	opts := []nats.Option{nats.Name("docvault-kv")}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", cfg.URL, err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	bucket, err := js.KeyValue(cfg.Bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		bucket, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket:      cfg.Bucket,
			Description: "docvault caches",
			History:     1,
		})
	}

	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("open kv bucket %s: %w", cfg.Bucket, err)
	}

	log.Component("kv").Info().Str("url", cfg.URL).Str("bucket", cfg.Bucket).Msg("nats kv connected")

	return &NATSKV{kv: bucket, conn: nc, now: time.Now}, nil
}

func encodeNATSKey(key string) string {
	if k := natsColons.Replace(key); natsKeyRe.MatchString(k) && !strings.ContainsRune(key, '=') && !strings.HasPrefix(k, natsB64Prefix) {
		return k
	}

	return natsB64Prefix + base64.RawURLEncoding.EncodeToString([]byte(key))
}

func decodeNATSKey(k string) string {
	if raw, ok := strings.CutPrefix(k, natsB64Prefix); ok {
		if b, err := base64.RawURLEncoding.DecodeString(raw); err == nil {
			return string(b)
		}
	}

	return natsEquals.Replace(k)
}

// load 读取并解开 ttl 信封，过期条目惰性删除.
func (n *NATSKV) load(key string) ([]byte, error) {
	k := encodeNATSKey(key)

	entry, err := n.kv.Get(k)
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	if err != nil {
		return nil, fmt.Errorf("nats kv get %s: %w", key, err)
	}

	val, expired, err := unwrap(entry.Value(), n.now())
	if err != nil {
		return nil, err
	}

	if expired {
		_ = n.kv.Delete(k)
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	return val, nil
}

// Get 获取键的值.
func (n *NATSKV) Get(_ context.Context, key string) ([]byte, error) {
	return n.load(key)
}

// Set 写入键，ttl>0 时包一层过期信封.
func (n *NATSKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := wrap(value, ttl, n.now())
	if err != nil {
		return err
	}

	if _, err := n.kv.Put(encodeNATSKey(key), encoded); err != nil {
		return fmt.Errorf("nats kv put %s: %w", key, err)
	}

	return nil
}

// Delete 删除键.
func (n *NATSKV) Delete(_ context.Context, key string) error {
	err := n.kv.Delete(encodeNATSKey(key))
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("nats kv delete %s: %w", key, err)
	}

	return nil
}

// Exists 检查键是否存在且未过期.
func (n *NATSKV) Exists(_ context.Context, key string) (bool, error) {
	_, err := n.load(key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}

	return err == nil, err
}

// Keys 按 path.Match 语法列出未过期的键.
func (n *NATSKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	raw, err := n.kv.Keys(nats.Context(ctx))
	if errors.Is(err, nats.ErrNoKeysFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("nats kv keys: %w", err)
	}

	var out []string

	for _, k := range raw {
		key := decodeNATSKey(k)

		if pattern != "" {
			if ok, _ := path.Match(pattern, key); !ok {
				continue
			}
		}

		if _, err := n.load(key); err != nil {
			continue
		}

		out = append(out, key)
	}

	return out, nil
}

// Close 排空并关闭连接.
func (n *NATSKV) Close() error {
	return n.conn.Drain()
}

func init() {
	RegisterKVFactory(KVTypeNATS, NewNATSKV)
}
