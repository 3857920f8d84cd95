package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/simonyos/travelagent/internal/agent"
	"github.com/simonyos/travelagent/internal/config"
	"github.com/simonyos/travelagent/internal/render"
)

var (
	providerFlag string
	modelFlag    string
	configFlag   string
	logLevelFlag string
)

// errRunFailed marks a failure that was already reported to the user.
var errRunFailed = errors.New("run failed")

var rootCmd = &cobra.Command{
	Use:   "travelagent",
	Short: "Multi-destination travel planning agent",
	Long: `travelagent answers travel questions by letting an LLM call travel tools:
weather forecasts, tourist attractions, budget allocation and flight/hotel search.

Each line typed at the prompt is an independent query.

Supported providers:
  gemini     - Google Gemini API (default, requires GEMINI_API_KEY)
  openai     - OpenAI-compatible chat completions (requires OPENAI_API_KEY)
  anthropic  - Anthropic messages API (requires ANTHROPIC_API_KEY)
  offline    - keyword-based planner, no API key needed`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.SetPath(configFlag)
	},
	RunE: runREPL,
}

func runREPL(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	r, err := render.New(render.Options{})
	if err != nil {
		return err
	}
	a.agent.SetEventHandler(render.NewProgress(cmd.ErrOrStderr(), false))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", r.Badge(a.provider.Name()+" · "+a.provider.ModelName()),
		"Ask about weather, attractions, budgets or flights. Type 'exit' to quit.")

	return repl(ctx, cmd.InOrStdin(), out, func(query string) {
		result, err := a.agent.Run(ctx, query)
		printResult(out, r, result, err)
	})
}

// repl reads queries line by line until EOF, "exit" or cancellation.
func repl(ctx context.Context, in io.Reader, out io.Writer, handle func(query string)) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\n› ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit", "/exit", "/quit":
			return nil
		}

		handle(line)
		if ctx.Err() != nil {
			return nil
		}
	}
}

func printResult(out io.Writer, r *render.Renderer, result *agent.Result, err error) {
	if err != nil {
		fmt.Fprint(out, r.Failure(result, err))
		return
	}
	fmt.Fprintln(out, r.Answer(result))
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&providerFlag, "provider", "p", "", "LLM provider (gemini, openai, anthropic, offline)")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "Model to use (provider-specific)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default ~/.config/travelagent/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")
}
