package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/simonyos/travelagent/internal/logging"
	"github.com/simonyos/travelagent/internal/service"
)

var shutdownTimeout time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve travel queries over NATS",
	Long: `Serve travel queries over NATS request/reply.

Every request runs in its own conversation. All requests share the tool
registry and the backend pacing gate, so concurrent conversations never
exceed the configured call rate. Several servers may join the same queue
group to share the load.

Examples:
  travelagent serve
  TRAVELAGENT_NATS_URL=nats://broker:4222 travelagent serve --provider openai`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	logger := logging.Component(a.logger, "service")

	nc := natsConfig(a.cfg)
	conn, err := service.Connect(nc, "travelagent-serve", logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	server := service.NewServer(conn, nc, a.agent, logger)
	if err := server.Start(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on %s (queue %s) with %s/%s\n",
		nc.Subject, nc.URL, nc.Queue, a.provider.Name(), a.provider.ModelName())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down", "active", server.Active())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func init() {
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "How long to wait for in-flight requests on shutdown")
	rootCmd.AddCommand(serveCmd)
}
