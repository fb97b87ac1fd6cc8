// Package cmd 定义 docvault 的 cobra 命令：serve 启动服务，其余子命令用于运维（配置、数据库、缓存、事件、文档批处理）.
package cmd

import (
	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/yeisme/docvault/pkg/configs"
)

var (
	// configPath 配置文件或目录.
	configPath string
	// debug 打印更多调试信息.
	debug bool

	rootCmd = &cobra.Command{
		Use:           "docvault",
		Short:         "Document intake, classification, review and archive service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "print debug output")

	registerServeCommands()
	registerConfigsCommands()
	registerDBCommands()
	registerKVCommands()
	registerMQCommands()
	registerDocumentCommands()
	registerEventsCommands()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig 只加载配置，不连接存储.
func loadConfig(*cobra.Command, []string) error {
	return configs.InitConfig(configPath)
}

// printJSON 以缩进 JSON 打印结果.
func printJSON(cmd *cobra.Command, v any) error {
	b, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write(append(b, '\n'))

	return err
}
