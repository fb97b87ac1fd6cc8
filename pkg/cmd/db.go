package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/storage/db"
)

var (
	dbCmd = &cobra.Command{
		Use:   "db",
		Short: "Database related commands",
	}

	dbListCmd = &cobra.Command{
		Use:     "ls",
		Short:   "list all registered database types",
		Aliases: []string{"list"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered database types:")

			for _, dbType := range db.GetRegisteredDBTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), " - "+string(dbType))
			}
		},
	}

	// 连接数据库并执行健康检查.
	dbPingCmd = &cobra.Command{
		Use:     "ping",
		Short:   "connect to the configured database",
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configs.GetConfig().DB

			client, err := db.New(cmd.Context(), &cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.HealthCheck(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s ok\n", cfg.Family())

			return nil
		},
	}

	// 创建或更新文档表结构.
	dbMigrateCmd = &cobra.Command{
		Use:     "migrate",
		Short:   "create or update the documents table",
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configs.GetConfig().DB

			client, err := db.New(cmd.Context(), &cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Migrate(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "migration done")

			return nil
		},
	}
)

// registerDBCommands 注册数据库相关命令.
func registerDBCommands() {
	rootCmd.AddCommand(dbCmd)

	dbCmd.AddCommand(dbListCmd, dbPingCmd, dbMigrateCmd)
}
