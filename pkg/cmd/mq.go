package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/docvault/pkg/configs"
	mq "github.com/yeisme/docvault/pkg/internal/storage/mq"
	"github.com/yeisme/docvault/pkg/queue"
)

var (
	mqCmd = &cobra.Command{
		Use:   "mq",
		Short: "message queue commands",
	}

	mqListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered mq types",
		Aliases: []string{"ls"},
		Run: func(cmd *cobra.Command, _ []string) {
			current := string(configs.GetConfig().MQ.Type)

			for _, t := range mq.GetRegisteredMQTypes() {
				mark := " "
				if string(t) == current {
					mark = "*"
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, t)
			}
		},
	}

	mqTopicsCmd = &cobra.Command{
		Use:   "topics",
		Short: "list document event topics",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, t := range queue.DocumentTopics {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
		},
	}

	// 发布一条测试事件，用于确认订阅方与 broker 连通.
	mqPingCmd = &cobra.Command{
		Use:     "ping <document-id>",
		Short:   "publish a document.ingested test event",
		Args:    cobra.ExactArgs(1),
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := mq.New(ctx, &configs.GetConfig().MQ)
			if err != nil {
				return err
			}
			defer client.Close()

			msg, err := queue.NewWatermillMessage(queue.TopicDocumentIngested,
				queue.DocumentEvent{ID: args[0], Status: "uploaded"},
				queue.WithProducer("docvault-cli"))
			if err != nil {
				return err
			}

			if err := client.Publish(ctx, queue.TopicDocumentIngested, msg); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "published %s via %s\n", msg.UUID, client.Type())

			return nil
		},
	}
)

// registerMQCommands 注册 MQ 相关命令.
func registerMQCommands() {
	rootCmd.AddCommand(mqCmd)
	mqCmd.AddCommand(mqListCmd, mqTopicsCmd, mqPingCmd)
}
