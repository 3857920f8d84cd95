package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonyos/travelagent/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage travelagent configuration",
	Long: `Manage travelagent configuration including API keys and defaults.

Values are read from the config file, then TRAVELAGENT_* environment
variables (backend.max_retries is TRAVELAGENT_BACKEND_MAX_RETRIES).

Examples:
  travelagent config                              # Show current config
  travelagent config set gemini <key>             # Set Gemini API key
  travelagent config set provider openai          # Set default provider
  travelagent config set backend.min_call_spacing 1s
  travelagent config delete gemini                # Remove Gemini API key`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showConfig(cmd)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Shortcuts:
  gemini, openai, anthropic  - API keys
  base_url                   - OpenAI-compatible base URL

Run 'travelagent config' to see every key.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Set(args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s successfully.\n", args[0])
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		val, err := config.Lookup(args[0])
		if err != nil {
			return err
		}
		if val == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is not set\n", args[0])
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], val)
		return nil
	},
}

var configDeleteCmd = &cobra.Command{
	Use:     "delete <key>",
	Aliases: []string{"remove", "unset"},
	Short:   "Delete a configuration value",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", args[0])
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.ConfigPath())
	},
}

func showConfig(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration file: %s\n\n", config.ConfigPath())

	keys, err := config.ListKeys()
	if err != nil {
		return err
	}
	for _, k := range config.Keys() {
		v := keys[k]
		if v == "" {
			v = "(not set)"
		}
		fmt.Fprintf(out, "  %s: %s\n", k, v)
	}
	return nil
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configDeleteCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}
