// Package context 在请求上下文中携带存储管理器，并为 logger 附加追踪 ID.
package context

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/docvault/pkg/internal/storage"
	dbc "github.com/yeisme/docvault/pkg/internal/storage/db"
	kvc "github.com/yeisme/docvault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/docvault/pkg/internal/storage/mq"
	s3c "github.com/yeisme/docvault/pkg/internal/storage/s3"
)

type managerKey struct{}

// WithStorageManager 把 Manager 放进 ctx.
func WithStorageManager(ctx context.Context, mgr *storage.Manager) context.Context {
	return context.WithValue(ctx, managerKey{}, mgr)
}

// GetManager 取出 Manager，没有时返回 nil.
func GetManager(ctx context.Context) *storage.Manager {
	mgr, _ := ctx.Value(managerKey{}).(*storage.Manager)
	return mgr
}

// fromManager 在 Manager 存在时取其中的某个客户端.
func fromManager[T any](ctx context.Context, get func(*storage.Manager) T) T {
	if mgr := GetManager(ctx); mgr != nil {
		return get(mgr)
	}

	var zero T

	return zero
}

// GetS3Client 对象存储.
func GetS3Client(ctx context.Context) s3c.ObjectStore {
	return fromManager(ctx, (*storage.Manager).GetS3Client)
}

// GetDBClient 数据库.
func GetDBClient(ctx context.Context) *dbc.Client {
	return fromManager(ctx, (*storage.Manager).GetDBClient)
}

// GetMQClient 事件队列，未配置时为 nil.
func GetMQClient(ctx context.Context) *mqc.Client {
	return fromManager(ctx, (*storage.Manager).GetMQClient)
}

// GetKVClient 缓存存储.
func GetKVClient(ctx context.Context) *kvc.Client {
	return fromManager(ctx, (*storage.Manager).GetKVClient)
}

// WithTraceContext 当前 span 在记录时，给 logger 加上 trace_id 与 span_id.
func WithTraceContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() || !sc.IsSampled() {
		return logger
	}

	return logger.With().
		Str("trace_id", sc.TraceID().String()).
		Str("span_id", sc.SpanID().String()).
		Logger()
}
