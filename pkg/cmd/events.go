package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/spf13/cobra"

	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/storage/mq"
	"github.com/yeisme/docvault/pkg/queue"
)

var (
	eventsCmd = &cobra.Command{
		Use:   "events",
		Short: "document event commands",
	}

	// 订阅文档事件并逐行打印，Ctrl-C 退出.
	eventsTailCmd = &cobra.Command{
		Use:     "tail [topic]...",
		Short:   "print document events as they are published",
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			topics := args
			if len(topics) == 0 {
				topics = queue.DocumentTopics
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := mq.New(ctx, &configs.GetConfig().MQ)
			if err != nil {
				return err
			}
			defer client.Close()

			return tail(ctx, cmd, client, topics)
		},
	}
)

func tail(ctx context.Context, cmd *cobra.Command, client *mq.Client, topics []string) error {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		out = cmd.OutOrStdout()
	)

	for _, topic := range topics {
		ch, err := client.Subscribe(ctx, topic)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}

		wg.Go(func() {
			for msg := range ch {
				line := formatEvent(topic, msg)

				mu.Lock()
				fmt.Fprintln(out, line)
				mu.Unlock()

				msg.Ack()
			}
		})
	}

	wg.Wait()

	return nil
}

func formatEvent(topic string, msg *message.Message) string {
	env, err := queue.ParseDocumentEvent(msg)
	if err != nil {
		return fmt.Sprintf("%s\t<undecodable: %v>", topic, err)
	}

	p := env.Payload

	return fmt.Sprintf("%s\t%s\t%s\t%s\t%s",
		env.Header.OccurredAt.Format(time.RFC3339), env.Header.Topic, p.ID, p.Status, p.FilePath)
}

// registerEventsCommands 注册事件命令.
func registerEventsCommands() {
	eventsCmd.AddCommand(eventsTailCmd)
	rootCmd.AddCommand(eventsCmd)
}
