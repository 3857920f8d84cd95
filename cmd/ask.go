package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/simonyos/travelagent/internal/agent"
	"github.com/simonyos/travelagent/internal/render"
	"github.com/simonyos/travelagent/internal/service"
)

var (
	remoteFlag       bool
	conversationFlag bool
	jsonFlag         bool
	verboseFlag      bool
)

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Answer a single travel query",
	Long: `Answer a single travel query and exit.

Examples:
  travelagent ask "What's the weather in Tokyo for the next 5 days?"
  travelagent ask --provider offline "Plan a 10 day trip to Paris and London with a budget of $5000"
  travelagent ask --remote --conversation "Attractions in New York"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		result *agent.Result
		err    error
	)
	if remoteFlag {
		result, err = askRemote(ctx, query)
	} else {
		result, err = askLocal(ctx, cmd.ErrOrStderr(), query)
	}
	if result == nil && err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonFlag {
		return writeJSON(out, result, err)
	}

	r, rerr := render.New(render.Options{})
	if rerr != nil {
		return rerr
	}
	if conversationFlag {
		fmt.Fprintln(out, r.Transcript(result.Conversation))
		fmt.Fprintln(out, r.Separator())
	}
	printResult(out, r, result, err)
	if err != nil {
		return errRunFailed
	}
	return nil
}

func askLocal(ctx context.Context, progress io.Writer, query string) (*agent.Result, error) {
	a, err := newApp(true)
	if err != nil {
		return nil, err
	}
	if !jsonFlag {
		a.agent.SetEventHandler(render.NewProgress(progress, verboseFlag))
	}
	return a.agent.Run(ctx, query)
}

func askRemote(ctx context.Context, query string) (*agent.Result, error) {
	a, err := newApp(false)
	if err != nil {
		return nil, err
	}
	nc := natsConfig(a.cfg)
	conn, err := service.Connect(nc, "travelagent-ask", a.logger)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	resp, err := service.NewClient(conn, nc).Ask(ctx, query)
	if resp == nil {
		return nil, err
	}
	return &agent.Result{
		ID:           resp.ID,
		Query:        query,
		Answer:       resp.Answer,
		State:        resp.State,
		Iterations:   resp.Iterations,
		Conversation: resp.Conversation,
		ToolCalls:    resp.ToolCalls,
		Failure:      resp.Failure,
	}, err
}

func writeJSON(out io.Writer, result *agent.Result, runErr error) error {
	payload := struct {
		*agent.Result
		Error string `json:"error,omitempty"`
	}{Result: result}
	if runErr != nil {
		payload.Error = runErr.Error()
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return err
	}
	if runErr != nil {
		return errRunFailed
	}
	return nil
}

func init() {
	askCmd.Flags().BoolVar(&remoteFlag, "remote", false, "Send the query to a running 'travelagent serve' over NATS")
	askCmd.Flags().BoolVar(&conversationFlag, "conversation", false, "Print the full conversation transcript")
	askCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the result as JSON")
	askCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Show tool output while running")
	rootCmd.AddCommand(askCmd)
}
