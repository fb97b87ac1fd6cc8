package cmd

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/yeisme/docvault/pkg/configs"
	kv "github.com/yeisme/docvault/pkg/internal/storage/kv"
)

var (
	kvCmd = &cobra.Command{
		Use:     "kv",
		Short:   "inspect the cache store (search, near-duplicate and http caches)",
		Aliases: []string{"cache"},
	}

	kvListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered kv types",
		Aliases: []string{"ls"},
		Run: func(cmd *cobra.Command, _ []string) {
			for _, t := range kv.GetRegisteredKVTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
		},
	}

	kvKeysCmd = &cobra.Command{
		Use:     "keys [pattern]",
		Short:   "list cached keys, e.g. 'search:*'",
		Args:    cobra.MaximumNArgs(1),
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}

			return withKV(cmd, func(ctx context.Context, store *kv.Client) error {
				keys, err := store.Keys(ctx, pattern)
				if err != nil {
					return err
				}

				slices.Sort(keys)

				for _, k := range keys {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}

				return nil
			})
		},
	}

	kvGetCmd = &cobra.Command{
		Use:     "get <key>",
		Short:   "print a cached value",
		Args:    cobra.ExactArgs(1),
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKV(cmd, func(ctx context.Context, store *kv.Client) error {
				b, err := store.Get(ctx, args[0])
				if err != nil {
					return err
				}

				_, err = cmd.OutOrStdout().Write(append(b, '\n'))

				return err
			})
		},
	}

	// 按模式批量失效，常用于分类规则变更后清掉搜索缓存.
	kvFlushCmd = &cobra.Command{
		Use:     "flush <pattern>",
		Short:   "delete every key matching pattern",
		Args:    cobra.ExactArgs(1),
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKV(cmd, func(ctx context.Context, store *kv.Client) error {
				keys, err := store.Keys(ctx, args[0])
				if err != nil {
					return err
				}

				for _, k := range keys {
					if err := store.Delete(ctx, k); err != nil {
						return err
					}
				}

				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d keys\n", len(keys))

				return nil
			})
		},
	}
)

// withKV 按配置打开 KV 并在结束后关闭.
func withKV(cmd *cobra.Command, fn func(context.Context, *kv.Client) error) error {
	ctx := cmd.Context()

	store, err := kv.New(ctx, &configs.GetConfig().KV)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(ctx, store)
}

// registerKVCommands 注册 KV 相关命令.
func registerKVCommands() {
	rootCmd.AddCommand(kvCmd)
	kvCmd.AddCommand(kvListCmd, kvKeysCmd, kvGetCmd, kvFlushCmd)
}
