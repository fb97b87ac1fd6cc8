// Package storage 聚合文档服务依赖的存储资源：关系库、对象存储、KV 缓存与消息队列.
//
// Example:
//
//	mgr, err := storage.Init(ctx)
//	if err != nil {
//		return err
//	}
//	defer mgr.Close()
//
//	db := mgr.GetDBClient()
//	objects := mgr.GetS3Client()
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yeisme/docvault/pkg/configs"
	dbc "github.com/yeisme/docvault/pkg/internal/storage/db"
	kvc "github.com/yeisme/docvault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/docvault/pkg/internal/storage/mq"
	s3c "github.com/yeisme/docvault/pkg/internal/storage/s3"
	nlog "github.com/yeisme/docvault/pkg/log"
)

// Manager 聚合所有存储资源. MQ 只在启用领域事件时初始化，否则为 nil.
type Manager struct {
	DB *dbc.Client
	S3 s3c.ObjectStore
	KV *kvc.Client
	MQ *mqc.Client
}

var (
	mgr     *Manager
	mgrErr  error
	mgrOnce sync.Once
)

// Init 使用全局配置初始化默认存储，重复调用返回同一实例.
func Init(ctx context.Context) (*Manager, error) {
	mgrOnce.Do(func() {
		mgr, mgrErr = New(ctx, configs.GetConfig())
		if mgrErr == nil {
			nlog.Logger().Info().Msg("storage manager initialized")
		}
	})

	return mgr, mgrErr
}

// New 按配置创建存储资源，任一失败时关闭已创建的资源.
func New(ctx context.Context, cfg *configs.AppConfig) (*Manager, error) {
	m := &Manager{}

	var err error

	if m.DB, err = dbc.New(ctx, &cfg.DB); err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	if err = m.DB.Migrate(ctx); err != nil {
		_ = m.Close()
		return nil, err
	}

	if m.S3, err = s3c.New(ctx, &cfg.S3); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("s3: %w", err)
	}

	if m.KV, err = kvc.New(ctx, &cfg.KV); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("kv: %w", err)
	}

	if cfg.Events.Enabled {
		if m.MQ, err = mqc.New(ctx, &cfg.MQ); err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("mq: %w", err)
		}
	}

	return m, nil
}

// GetS3Client 获取对象存储.
func (m *Manager) GetS3Client() s3c.ObjectStore { return m.S3 }

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client { return m.DB }

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client { return m.KV }

// GetMQClient 获取 MQ 客户端，未启用事件时为 nil.
func (m *Manager) GetMQClient() *mqc.Client { return m.MQ }

// HealthCheck 并发检查关系库与对象存储，返回各组件的错误（nil 表示健康）.
func (m *Manager) HealthCheck(ctx context.Context) map[string]error {
	var (
		mu  sync.Mutex
		out = map[string]error{}
		g   errgroup.Group
	)

	check := func(name string, fn func(context.Context) error) {
		g.Go(func() error {
			err := fn(ctx)

			mu.Lock()
			out[name] = err
			mu.Unlock()

			return nil
		})
	}

	if m.DB != nil {
		check("database", m.DB.HealthCheck)
	}

	if m.S3 != nil {
		check("object_store", m.S3.HealthCheck)
	}

	_ = g.Wait()

	return out
}

// Close 释放资源.
func (m *Manager) Close() error {
	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}

	return errors.Join(errs...)
}
