// Package s3 封装文档所在的对象存储.
//
// 所有文档位于同一个桶内，生命周期阶段由键前缀区分（import/、review/、archive/）.
// 上层只依赖 ObjectStore 接口；MinIO 实现用于生产，MemoryStore 用于测试与本地体验.
//
// Example:
//
//	store, err := s3.New(ctx, &configs.GetConfig().S3)
//	if err != nil {
//		return err
//	}
//	objs, _ := store.List(ctx, "import/")
//	for _, o := range objs {
//		fmt.Println(o.Key, o.Size)
//	}
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yeisme/docvault/pkg/configs"
	nlog "github.com/yeisme/docvault/pkg/log"
)

// ErrObjectNotFound 对象不存在.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo 对象元数据.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ETag         string    `json:"etag,omitempty"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// ObjectStore 单桶对象存储.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// List 递归列出前缀下的对象，不含 "目录" 占位.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Copy(ctx context.Context, src, dst string) error
	// Remove 删除对象，对象不存在不是错误.
	Remove(ctx context.Context, key string) error
	HealthCheck(ctx context.Context) error
}

// Client 包装 MinIO 客户端，绑定到配置的桶.
type Client struct {
	*minio.Client

	bucket string
}

var _ ObjectStore = (*Client)(nil)

// New 按驱动创建对象存储. minio 驱动会在桶不存在时创建它.
func New(ctx context.Context, cfg *configs.S3Config) (ObjectStore, error) {
	if cfg.Driver == configs.S3DriverMemory {
		nlog.Logger().Warn().Msg("using in-memory object store, objects are lost on restart")
		return NewMemoryStore(), nil
	}

	return NewMinio(ctx, cfg)
}

// NewMinio 初始化 MinIO 客户端.
func NewMinio(ctx context.Context, cfg *configs.S3Config) (*Client, error) {
	endpoint := cfg.Endpoint
	secure := cfg.UseSSL

	// 允许完整 URL 形式的 endpoint
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		secure = secure || u.Scheme == "https"
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo("docvault", configs.AppVersion)

	exists, err := cli.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.BucketName, err)
	}

	if !exists {
		if err := cli.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.BucketName, err)
		}

		nlog.Logger().Info().Str("bucket", cfg.BucketName).Msg("bucket created")
	}

	nlog.Logger().Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.BucketName).Msg("s3 connected")

	return &Client{Client: cli, bucket: cfg.BucketName}, nil
}

// Bucket 返回绑定的桶名.
func (c *Client) Bucket() string { return c.bucket }

// Put 上传对象.
func (c *Client) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := c.PutObject(ctx, c.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}

	return nil
}

// Get 读取对象，先 Stat 以便把不存在映射为 ErrObjectNotFound.
func (c *Client) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if _, err := c.Stat(ctx, key); err != nil {
		return nil, err
	}

	obj, err := c.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapErr(key, err)
	}

	return obj, nil
}

// Stat 获取对象元数据.
func (c *Client) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	info, err := c.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, mapErr(key, err)
	}

	return toInfo(info), nil
}

// List 递归列出前缀下的对象.
func (c *Client) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo

	for obj := range c.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, obj.Err)
		}

		if obj.Size == 0 && len(obj.Key) > 0 && obj.Key[len(obj.Key)-1] == '/' {
			continue
		}

		out = append(out, toInfo(obj))
	}

	return out, nil
}

// Copy 桶内复制对象.
func (c *Client) Copy(ctx context.Context, src, dst string) error {
	_, err := c.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: c.bucket, Object: dst},
		minio.CopySrcOptions{Bucket: c.bucket, Object: src},
	)
	if err != nil {
		return mapErr(src, err)
	}

	return nil
}

// Remove 删除对象，S3 删除本身是幂等的.
func (c *Client) Remove(ctx context.Context, key string) error {
	if err := c.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}

	return nil
}

// HealthCheck 通过检查桶是否存在来验证连接.
func (c *Client) HealthCheck(ctx context.Context) error {
	ok, err := c.BucketExists(ctx, c.bucket)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("bucket %s does not exist", c.bucket)
	}

	return nil
}

func toInfo(o minio.ObjectInfo) ObjectInfo {
	return ObjectInfo{
		Key:          o.Key,
		Size:         o.Size,
		ETag:         o.ETag,
		ContentType:  o.ContentType,
		LastModified: o.LastModified,
	}
}

func mapErr(key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	default:
		return fmt.Errorf("s3 %s: %w", key, err)
	}
}
