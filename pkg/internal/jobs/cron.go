// Package jobs 负责注册与实现文档维护的定时任务（基于 scheduler）.
package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/service"
	"github.com/yeisme/docvault/pkg/internal/types"
	"github.com/yeisme/docvault/pkg/log"
	"github.com/yeisme/docvault/pkg/scheduler"
)

// Maintainer 定时任务依赖的文档操作，*service.DocumentService 满足该接口.
type Maintainer interface {
	Cleanup(ctx context.Context, dryRun bool) (types.CleanupResponse, error)
	ScanBucket(ctx context.Context, dryRun bool) (types.ScanResponse, error)
}

var _ Maintainer = (*service.DocumentService)(nil)

// RegisterCronJobs 按配置注册定时任务，返回实际注册的任务名：
//   - cleanup_deleted 清除软删除的文档（默认每天 03:00）
//   - bucket_scan 登记收件目录中遗漏的对象（默认关闭）
func RegisterCronJobs(sched *scheduler.Scheduler, m Maintainer, cfg configs.JobsConfig) ([]string, error) {
	if sched == nil || m == nil {
		return nil, errors.New("scheduler and document service are required")
	}

	specs := []struct {
		name string
		cfg  configs.CronJobConfig
		job  scheduler.Job
	}{
		{JobCleanupDeleted, cfg.CleanupDeleted, Cleanup(m)},
		{JobBucketScan, cfg.BucketScan, BucketScan(m)},
	}

	var names []string

	for _, sp := range specs {
		if !sp.cfg.Enabled {
			continue
		}

		if err := sched.AddCron(sp.name, sp.cfg.Cron, sp.job); err != nil {
			return names, fmt.Errorf("register %s: %w", sp.name, err)
		}

		names = append(names, sp.name)
	}

	return names, nil
}

// Cleanup 清除到期的软删除文档.
func Cleanup(m Maintainer) scheduler.Job {
	return func(ctx context.Context) error {
		res, err := m.Cleanup(ctx, false)
		if err != nil {
			return err
		}

		if res.Total > 0 {
			log.Component("jobs").Info().Str("job", JobCleanupDeleted).
				Int("purged", res.Purged).Int("candidates", res.Total).Msg("deleted documents purged")
		}

		if res.Purged < res.Total {
			return fmt.Errorf("%d of %d documents could not be purged", res.Total-res.Purged, res.Total)
		}

		return nil
	}
}

// BucketScan 登记收件目录中未入库的对象.
func BucketScan(m Maintainer) scheduler.Job {
	return func(ctx context.Context) error {
		res, err := m.ScanBucket(ctx, false)
		if err != nil {
			return err
		}

		if res.Created > 0 || res.Errors > 0 {
			log.Component("jobs").Info().Str("job", JobBucketScan).
				Int("created", res.Created).Int("exists", res.Exists).Int("errors", res.Errors).Msg("bucket scanned")
		}

		if res.Errors > 0 {
			return fmt.Errorf("%d objects failed to register", res.Errors)
		}

		return nil
	}
}
