package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"spendtrack/internal/config"
	"spendtrack/internal/events"
)

var errNoBroker = errors.New("AMQP_URL is not set, activity messages are not published")

func (a *App) activityCmd() *cobra.Command {
	var queue, filter string

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Follow create, update and delete activity from the message broker",
		Long: `Print activity messages published by the web front end as they arrive.
Stop with Ctrl-C. Without --queue a temporary queue is used and nothing is
kept once the command exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.AMQPURL == "" {
				return errNoBroker
			}
			consumer, err := events.NewAMQPConsumer(a.cfg.AMQPURL, a.cfg.AMQPExchange, queue, filter, a.logger)
			if err != nil {
				return err
			}
			defer consumer.Close()
			fmt.Fprintln(a.out, FormatHint("Listening on queue "+consumer.Queue()+", press Ctrl-C to stop"))

			err = consumer.Consume(cmd.Context(), printActivity(a.out))
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().String("amqp-url", "", "AMQP broker URL")
	_ = a.v.BindPFlag(config.KeyAMQPURL, cmd.Flags().Lookup("amqp-url"))
	cmd.Flags().StringVar(&queue, "queue", "", "durable queue name (default: temporary queue)")
	cmd.Flags().StringVar(&filter, "filter", "#", `routing key pattern, e.g. "expense.*"`)
	return cmd
}

func printActivity(w io.Writer) events.Handler {
	return func(_ context.Context, msg events.ActivityMessage) error {
		_, err := fmt.Fprintln(w, formatActivity(msg))
		return err
	}
}

func formatActivity(msg events.ActivityMessage) string {
	line := fmt.Sprintf("%s  %-17s #%d",
		msg.Timestamp.Local().Format("2006-01-02 15:04:05"),
		msg.RoutingKey(),
		msg.ID)
	if msg.Session != "" {
		line += "  " + FormatHint("session "+msg.Session)
	}
	return line
}
