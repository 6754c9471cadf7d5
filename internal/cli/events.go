package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/akimenko/graphflow/internal/mq"
)

// NewEventsCmd создаёт группу команд для наблюдения за событиями.
func NewEventsCmd(outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Observe engine events",
	}

	cmd.AddCommand(newEventsTailCmd(outputFn))

	return cmd
}

func newEventsTailCmd(outputFn func() *Output) *cobra.Command {
	var amqpURL, pattern string

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Stream live events from RabbitMQ",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			// Служебные логи соединения не должны мешать потоку событий
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))

			conn, err := mq.NewConnection(amqpURL, logger)
			if err != nil {
				return fmt.Errorf("connect to RabbitMQ: %w", err)
			}
			defer conn.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out.Success(fmt.Sprintf("Tailing events matching %q, Ctrl+C to stop", pattern))

			stream := mq.NewStream(conn, logger)
			err = stream.Run(ctx, pattern, func(env mq.Envelope) {
				out.JSON(env)
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&amqpURL, "amqp-url", mq.DefaultURL(), "RabbitMQ connection URL")
	cmd.Flags().StringVar(&pattern, "pattern", "#", "topic pattern to subscribe (e.g. execution.#)")

	return cmd
}
