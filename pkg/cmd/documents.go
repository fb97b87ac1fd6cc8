package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yeisme/docvault/pkg/app"
	"github.com/yeisme/docvault/pkg/internal/service"
)

var (
	dryRun bool

	// 对指定文档执行 AI 分类.
	classifyCmd = &cobra.Command{
		Use:   "classify <id>...",
		Short: "classify uploaded documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *service.DocumentService) (any, error) {
				return svc.ClassifyBatch(ctx, args)
			})
		},
	}

	// 登记收件目录中未入库的对象.
	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "register objects under the import folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *service.DocumentService) (any, error) {
				return svc.ScanBucket(ctx, dryRun)
			})
		},
	}

	// 清除软删除的文档.
	cleanupCmd = &cobra.Command{
		Use:   "cleanup",
		Short: "purge soft-deleted documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *service.DocumentService) (any, error) {
				return svc.Cleanup(ctx, dryRun)
			})
		},
	}

	// 打印按状态与类别的统计.
	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "print document counts by status and category",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *service.DocumentService) (any, error) {
				return svc.Stats(ctx)
			})
		},
	}
)

// withService 初始化存储与文档服务，执行 fn 并打印结果.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *service.DocumentService) (any, error)) error {
	ctx := cmd.Context()

	cfg, mgr, err := app.Bootstrap(ctx, configPath)
	if err != nil {
		return err
	}
	defer mgr.Close()

	res, err := fn(ctx, service.NewFromManager(mgr, cfg))
	if err != nil {
		return err
	}

	return printJSON(cmd, res)
}

// registerDocumentCommands 注册文档运维命令.
func registerDocumentCommands() {
	for _, c := range []*cobra.Command{scanCmd, cleanupCmd} {
		c.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing")
	}

	rootCmd.AddCommand(classifyCmd, scanCmd, cleanupCmd, statsCmd)
}
