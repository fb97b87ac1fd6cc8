package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/yeisme/docvault/pkg/configs"
)

var (
	// config 子命令.
	configCmd = &cobra.Command{
		Use:               "config",
		Short:             "config subcommands",
		PersistentPreRunE: loadConfig,
	}

	// 打印当前使用的配置文件路径.
	pathCmd = &cobra.Command{
		Use:   "path",
		Short: "print the path of the current config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configs.GetViper().ConfigFileUsed()
			if cfg == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no config file used (maybe using defaults or env)")

				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), cfg)

			return nil
		},
	}

	// 打印合并默认值、配置文件与环境变量之后的配置.
	showCmd = &cobra.Command{
		Use:     "show",
		Short:   "print the current config values",
		Aliases: []string{"debug"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				configs.GetViper().Debug()
			}

			c := *configs.GetConfig()
			c.Intake.WebhookSecret = redact(c.Intake.WebhookSecret)
			c.AI.Providers = slices.Clone(c.AI.Providers)

			for i := range c.AI.Providers {
				c.AI.Providers[i].APIKey = redact(c.AI.Providers[i].APIKey)
			}

			return printJSON(cmd, c)
		},
	}

	// 校验配置.
	validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "validate the current config",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := configs.GetConfig().Validate(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "config ok")

			return nil
		},
	}
)

func redact(s string) string {
	if s == "" {
		return ""
	}

	return "******"
}

// registerConfigsCommands 注册 CLI 子命令.
func registerConfigsCommands() {
	configCmd.AddCommand(pathCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)

	rootCmd.AddCommand(configCmd)
}
