package configs

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// S3Driver 对象存储实现.
type S3Driver string

const (
	S3DriverMinio  S3Driver = "minio"  // S3 兼容服务
	S3DriverMemory S3Driver = "memory" // 进程内，仅用于本地体验与测试
)

// S3Config MinIO S3存储配置.
type S3Config struct {
	Driver          S3Driver      `mapstructure:"driver"            rule:"oneof=minio memory"`
	Endpoint        string        `mapstructure:"endpoint"          rule:"required"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	BucketName      string        `mapstructure:"bucket_name"       rule:"required"`
	Region          string        `mapstructure:"region"`
	Folders         FoldersConfig `mapstructure:"folders"`
}

// FoldersConfig 生命周期各阶段在存储桶中的目录前缀.
type FoldersConfig struct {
	Import  string `mapstructure:"import"  rule:"required"`
	Review  string `mapstructure:"review"  rule:"required"`
	Archive string `mapstructure:"archive" rule:"required"`
}

const (
	DefaultS3Endpoint        = "localhost:9000" // 默认S3端点
	DefaultS3AccessKeyID     = "minioadmin"     // 默认访问密钥ID
	DefaultS3SecretAccessKey = "minioadmin"     // 默认秘密访问密钥
	DefaultS3UseSSL          = false            // 默认是否使用SSL
	DefaultS3BucketName      = "docvault"       // 默认存储桶名称
	DefaultS3Region          = "us-east-1"      // 默认区域

	DefaultImportFolder  = "import/"  // 待处理
	DefaultReviewFolder  = "review/"  // 待审核
	DefaultArchiveFolder = "archive/" // 已归档
)

// GetEndpointURL 获取完整的端点URL.
func (c *S3Config) GetEndpointURL() string {
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s", scheme, c.Endpoint)
}

// Normalized 返回保证以 "/" 结尾的目录前缀.
func (f FoldersConfig) Normalized() FoldersConfig {
	return FoldersConfig{
		Import:  withSlash(f.Import, DefaultImportFolder),
		Review:  withSlash(f.Review, DefaultReviewFolder),
		Archive: withSlash(f.Archive, DefaultArchiveFolder),
	}
}

func withSlash(p, def string) string {
	p = strings.TrimLeft(strings.TrimSpace(p), "/")
	if p == "" {
		return def
	}

	if !strings.HasSuffix(p, "/") {
		p += "/"
	}

	return p
}

// setDefaults 设置 S3 配置的默认值.
func (c *S3Config) setDefaults(v *viper.Viper) {
	v.SetDefault("s3.driver", S3DriverMinio)
	v.SetDefault("s3.endpoint", DefaultS3Endpoint)
	v.SetDefault("s3.access_key_id", DefaultS3AccessKeyID)
	v.SetDefault("s3.secret_access_key", DefaultS3SecretAccessKey)
	v.SetDefault("s3.use_ssl", DefaultS3UseSSL)
	v.SetDefault("s3.bucket_name", DefaultS3BucketName)
	v.SetDefault("s3.region", DefaultS3Region)
	v.SetDefault("s3.folders.import", DefaultImportFolder)
	v.SetDefault("s3.folders.review", DefaultReviewFolder)
	v.SetDefault("s3.folders.archive", DefaultArchiveFolder)
}
