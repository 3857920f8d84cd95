package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/simonyos/travelagent/internal/agent"
	"github.com/simonyos/travelagent/internal/config"
	"github.com/simonyos/travelagent/internal/llm"
	"github.com/simonyos/travelagent/internal/logging"
	"github.com/simonyos/travelagent/internal/resilience"
	"github.com/simonyos/travelagent/internal/service"
	"github.com/simonyos/travelagent/internal/tools"
	"github.com/simonyos/travelagent/internal/travel"
)

// app holds everything a command needs, built once from config and flags.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	catalog  *travel.Catalog
	registry *tools.Registry
	provider llm.Provider
	agent    *agent.Agent
}

// newApp loads config and wires the registry. The provider and agent are
// only built when withAgent is set.
func newApp(withAgent bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	logger, err := logging.New(level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	catalog, err := loadCatalog(cfg.Travel.Catalog)
	if err != nil {
		return nil, err
	}
	alloc, err := travel.AllocatorByName(cfg.Budget.Allocation)
	if err != nil {
		return nil, err
	}
	registry, err := travel.NewRegistry(travel.Options{Catalog: catalog, Allocator: alloc})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, catalog: catalog, registry: registry}
	if !withAgent {
		return a, nil
	}

	a.provider, err = newProvider(cfg, catalog)
	if err != nil {
		return nil, err
	}

	// The offline planner has no rate limit to respect.
	spacing := cfg.Backend.MinCallSpacing
	if a.provider.Name() == "offline" {
		spacing = 0
	}

	a.agent = agent.New(a.provider, registry, resilience.NewGate(spacing), agent.Config{
		MaxIterations:   cfg.Agent.MaxIterations,
		ToolConcurrency: cfg.Agent.ToolConcurrency,
		Retry: resilience.Policy{
			MaxAttempts:  cfg.Backend.MaxRetries,
			InitialDelay: cfg.Backend.InitialRetryDelay,
			MaxDelay:     cfg.Backend.MaxRetryDelay,
		},
		CallTimeout: cfg.Backend.CallTimeout,
		Logger:      logging.Component(logger, "agent"),
	})
	return a, nil
}

func loadCatalog(path string) (*travel.Catalog, error) {
	if path == "" {
		return travel.DefaultCatalog()
	}
	return travel.LoadCatalogFile(path)
}

// newProvider creates the backend named by --provider or the config.
func newProvider(cfg *config.Config, catalog *travel.Catalog) (llm.Provider, error) {
	name := cfg.Provider
	if providerFlag != "" {
		name = providerFlag
	}
	model := cfg.Model
	if modelFlag != "" {
		model = modelFlag
	}
	temperature := cfg.Temperature

	name = strings.ToLower(name)
	if name != "offline" && cfg.APIKey(name) == "" && isKnownProvider(name) {
		return nil, fmt.Errorf("%w for %s: set %s_API_KEY or run 'travelagent config set %s <key>'",
			llm.ErrMissingAPIKey, name, strings.ToUpper(name), name)
	}

	switch name {
	case "gemini":
		p := llm.NewGemini(cfg.GeminiKey, model)
		p.Temperature = &temperature
		return p, nil
	case "openai":
		p := llm.NewOpenAI(cfg.OpenAIKey, model, cfg.OpenAIBaseURL)
		p.Temperature = &temperature
		return p, nil
	case "anthropic":
		p := llm.NewAnthropic(cfg.AnthropicKey, model)
		p.Temperature = &temperature
		return p, nil
	case "offline":
		return travel.NewOfflinePlanner(catalog), nil
	}
	return nil, fmt.Errorf("unknown provider: %s (supported: %s)", name, strings.Join(config.Providers, ", "))
}

func isKnownProvider(name string) bool {
	for _, p := range config.Providers {
		if p == name {
			return true
		}
	}
	return false
}

func natsConfig(cfg *config.Config) service.NATSConfig {
	nc := service.DefaultNATSConfig()
	nc.URL = cfg.NATS.URL
	nc.Subject = cfg.NATS.Subject
	nc.Queue = cfg.NATS.Queue
	nc.RequestTimeout = cfg.NATS.RequestTimeout
	return nc
}
