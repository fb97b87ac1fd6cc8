package jobs

// 任务名称，也是 /scheduler/jobs/:name 的路径参数.
const (
	JobCleanupDeleted = "cleanup_deleted"
	JobBucketScan     = "bucket_scan"
)
