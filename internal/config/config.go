package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// API Keys
	GeminiKey    string `mapstructure:"gemini_api_key"`
	OpenAIKey    string `mapstructure:"openai_api_key"`
	AnthropicKey string `mapstructure:"anthropic_api_key"`

	// Backend selection
	Provider      string  `mapstructure:"provider"`
	Model         string  `mapstructure:"model"`
	Temperature   float64 `mapstructure:"temperature"`
	OpenAIBaseURL string  `mapstructure:"openai_base_url"`

	Backend BackendConfig `mapstructure:"backend"`
	Agent   AgentConfig   `mapstructure:"agent"`
	Budget  BudgetConfig  `mapstructure:"budget"`
	Travel  TravelConfig  `mapstructure:"travel"`
	Log     LogConfig     `mapstructure:"log"`
	NATS    NATSConfig    `mapstructure:"nats"`
}

// BackendConfig controls pacing and retries of model calls.
type BackendConfig struct {
	MinCallSpacing    time.Duration `mapstructure:"min_call_spacing"`
	MaxRetries        int           `mapstructure:"max_retries"`
	InitialRetryDelay time.Duration `mapstructure:"initial_retry_delay"`
	MaxRetryDelay     time.Duration `mapstructure:"max_retry_delay"`
	CallTimeout       time.Duration `mapstructure:"call_timeout"`
}

type AgentConfig struct {
	MaxIterations   int `mapstructure:"max_iterations"`
	ToolConcurrency int `mapstructure:"tool_concurrency"`
}

type BudgetConfig struct {
	Allocation string `mapstructure:"allocation"`
}

// TravelConfig points at an alternative mock catalog. Empty uses the
// embedded one.
type TravelConfig struct {
	Catalog string `mapstructure:"catalog"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	Subject        string        `mapstructure:"subject"`
	Queue          string        `mapstructure:"queue"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Providers lists the accepted values of the provider key.
var Providers = []string{"gemini", "openai", "anthropic", "offline"}

// EnvPrefix prefixes environment overrides: backend.max_retries is read from
// TRAVELAGENT_BACKEND_MAX_RETRIES.
const EnvPrefix = "TRAVELAGENT"

var defaults = map[string]any{
	"gemini_api_key":              "",
	"openai_api_key":              "",
	"anthropic_api_key":           "",
	"provider":                    "gemini",
	"model":                       "",
	"temperature":                 0.7,
	"openai_base_url":             "https://api.openai.com/v1",
	"backend.min_call_spacing":    "4s",
	"backend.max_retries":         5,
	"backend.initial_retry_delay": "2s",
	"backend.max_retry_delay":     "60s",
	"backend.call_timeout":        "60s",
	"agent.max_iterations":        10,
	"agent.tool_concurrency":      4,
	"budget.allocation":           "even",
	"travel.catalog":              "",
	"log.level":                   "info",
	"log.format":                  "text",
	"nats.url":                    "nats://127.0.0.1:4222",
	"nats.subject":                "travelagent.ask",
	"nats.queue":                  "travelagent",
	"nats.request_timeout":        "5m",
}

// aliases are the short forms accepted by Set, Get and Delete.
var aliases = map[string]string{
	"gemini":    "gemini_api_key",
	"openai":    "openai_api_key",
	"anthropic": "anthropic_api_key",
	"base_url":  "openai_base_url",
}

// fallbackEnv is consulted when an API key is set neither in the file nor
// through a TRAVELAGENT_ variable.
var fallbackEnv = map[string]string{
	"gemini_api_key":    "GEMINI_API_KEY",
	"openai_api_key":    "OPENAI_API_KEY",
	"anthropic_api_key": "ANTHROPIC_API_KEY",
}

var (
	configDir  string
	configFile string
	current    *Config
)

func init() {
	// Use ~/.config/travelagent for config
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	configDir = filepath.Join(home, ".config", "travelagent")
	configFile = filepath.Join(configDir, "config.yaml")
}

// SetPath makes path the config file for subsequent calls. An empty path
// keeps the default.
func SetPath(path string) {
	if path == "" {
		return
	}
	configFile = path
	configDir = filepath.Dir(path)
	current = nil
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return configFile
}

// Load reads defaults, the config file and the environment, in increasing
// order of precedence. A missing file is not an error.
func Load() (*Config, error) {
	if current != nil {
		return current, nil
	}

	v := newViper()
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	applyFallbackEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	current = cfg
	return current, nil
}

// Get returns the current config, loading if necessary. It falls back to the
// defaults when the file cannot be read.
func Get() *Config {
	if current == nil {
		if _, err := Load(); err != nil {
			cfg := &Config{}
			_ = newDefaultsViper().Unmarshal(cfg)
			return cfg
		}
	}
	return current
}

func newViper() *viper.Viper {
	v := newDefaultsViper()
	v.SetConfigFile(configFile)
	if filepath.Ext(configFile) == "" {
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func newDefaultsViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}

func applyFallbackEnv(cfg *Config) {
	if cfg.GeminiKey == "" {
		cfg.GeminiKey = os.Getenv(fallbackEnv["gemini_api_key"])
	}
	if cfg.OpenAIKey == "" {
		cfg.OpenAIKey = os.Getenv(fallbackEnv["openai_api_key"])
	}
	if cfg.AnthropicKey == "" {
		cfg.AnthropicKey = os.Getenv(fallbackEnv["anthropic_api_key"])
	}
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if !contains(Providers, c.Provider) {
		return fmt.Errorf("invalid provider %q: expected one of %s", c.Provider, strings.Join(Providers, ", "))
	}
	if c.Backend.MaxRetries < 1 {
		return fmt.Errorf("backend.max_retries must be at least 1")
	}
	if c.Backend.MinCallSpacing < 0 {
		return fmt.Errorf("backend.min_call_spacing must not be negative")
	}
	if c.Agent.MaxIterations < 1 {
		return fmt.Errorf("agent.max_iterations must be at least 1")
	}
	if c.Agent.ToolConcurrency < 1 {
		return fmt.Errorf("agent.tool_concurrency must be at least 1")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log.format %q: expected text or json", c.Log.Format)
	}
	return nil
}

// APIKey returns the key for the named provider.
func (c *Config) APIKey(provider string) string {
	switch provider {
	case "gemini":
		return c.GeminiKey
	case "openai":
		return c.OpenAIKey
	case "anthropic":
		return c.AnthropicKey
	}
	return ""
}

// Keys returns every known config key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func canonicalKey(key string) (string, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if full, ok := aliases[key]; ok {
		key = full
	}
	if _, ok := defaults[key]; !ok {
		return "", fmt.Errorf("unknown config key: %s", key)
	}
	return key, nil
}

func isSecret(key string) bool {
	return strings.HasSuffix(key, "_api_key")
}

// Set updates a config value by key and writes the file. Only keys set
// explicitly are persisted.
func Set(key, value string) error {
	key, err := canonicalKey(key)
	if err != nil {
		return err
	}
	typed, err := parseValue(key, value)
	if err != nil {
		return err
	}

	doc, err := readFile()
	if err != nil {
		return err
	}
	setPath(doc, strings.Split(key, "."), typed)
	return writeFile(doc)
}

// Delete removes a config value from the file, restoring its default.
func Delete(key string) error {
	key, err := canonicalKey(key)
	if err != nil {
		return err
	}

	doc, err := readFile()
	if err != nil {
		return err
	}
	deletePath(doc, strings.Split(key, "."))
	return writeFile(doc)
}

// Lookup returns the effective value of key for display. Secrets are masked.
func Lookup(key string) (string, error) {
	key, err := canonicalKey(key)
	if err != nil {
		return "", err
	}
	values, err := effectiveValues()
	if err != nil {
		return "", err
	}
	return values[key], nil
}

// ListKeys returns every key with its effective value (secrets masked).
// Keys taken from the environment are marked "(env)".
func ListKeys() (map[string]string, error) {
	return effectiveValues()
}

func effectiveValues() (map[string]string, error) {
	v := newViper()
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	result := make(map[string]string, len(defaults))
	for _, key := range Keys() {
		value := v.GetString(key)
		fromEnv := false
		if env, ok := fallbackEnv[key]; ok && value == "" && os.Getenv(env) != "" {
			value, fromEnv = os.Getenv(env), true
		}
		if _, ok := os.LookupEnv(envName(key)); ok {
			fromEnv = true
		}

		if isSecret(key) {
			if value == "" {
				result[key] = ""
				continue
			}
			value = maskKey(value)
		}
		if fromEnv {
			value += " (env)"
		}
		result[key] = value
	}
	return result, nil
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// parseValue turns a command-line string into the YAML scalar stored for key.
func parseValue(key, value string) (any, error) {
	switch def := defaults[key].(type) {
	case int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%s: expected an integer, got %q", key, value)
		}
		return n, nil
	case float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: expected a number, got %q", key, value)
		}
		return f, nil
	case string:
		if _, err := time.ParseDuration(def); err == nil && def != "" {
			if _, err := time.ParseDuration(value); err != nil {
				return nil, fmt.Errorf("%s: expected a duration like 4s, got %q", key, value)
			}
		}
		if key == "provider" && !contains(Providers, value) {
			return nil, fmt.Errorf("invalid provider %q: expected one of %s", value, strings.Join(Providers, ", "))
		}
	}
	return value, nil
}

func readFile() (map[string]any, error) {
	doc := map[string]any{}
	data, err := os.ReadFile(configFile)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

func writeFile(doc map[string]any) error {
	// Ensure config directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	current = nil
	return nil
}

func setPath(doc map[string]any, path []string, value any) {
	for _, part := range path[:len(path)-1] {
		child, ok := doc[part].(map[string]any)
		if !ok {
			child = map[string]any{}
			doc[part] = child
		}
		doc = child
	}
	doc[path[len(path)-1]] = value
}

func deletePath(doc map[string]any, path []string) {
	if len(path) == 1 {
		delete(doc, path[0])
		return
	}
	child, ok := doc[path[0]].(map[string]any)
	if !ok {
		return
	}
	deletePath(child, path[1:])
	if len(child) == 0 {
		delete(doc, path[0])
	}
}

// maskKey shows only first 4 and last 4 characters
func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
