package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simonyos/travelagent/internal/tools"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Inspect and call the travel tools directly",
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the registered tools and their parameters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, def := range a.registry.List() {
			fmt.Fprintf(out, "%s\n  %s\n", def.Name, def.Description)
			for _, line := range describeParams(def.Parameters) {
				fmt.Fprintf(out, "    %s\n", line)
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

var toolsCallCmd = &cobra.Command{
	Use:   "call <name> [json-args]",
	Short: "Validate and run one tool",
	Long: `Validate and run one tool without a model.

Examples:
  travelagent tools call get_weather_forecast '{"city": "Tokyo", "days": 3}'
  travelagent tools call optimize_budget '{"destinations": ["Paris", "London"], "total_budget": 5000, "days": 10}'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}

		params := map[string]any{}
		if len(args) == 2 {
			if err := json.Unmarshal([]byte(args[1]), &params); err != nil {
				return fmt.Errorf("arguments must be a JSON object: %w", err)
			}
		}

		result, err := a.registry.Dispatch(cmd.Context(), args[0], params)
		if err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("%s", result.Error)
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(result.Output, "\n"))
		return nil
	},
}

// describeParams lists one line per parameter, required ones first.
func describeParams(schema *tools.JSONSchema) []string {
	if schema == nil || len(schema.Properties) == 0 {
		return nil
	}

	required := make(map[string]bool, len(schema.Required))
	for _, r := range schema.Required {
		required[r] = true
	}
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if required[names[i]] != required[names[j]] {
			return required[names[i]]
		}
		return names[i] < names[j]
	})

	lines := make([]string, 0, len(names))
	for _, name := range names {
		prop := schema.Properties[name]
		line := fmt.Sprintf("%s (%s", name, prop.Type)
		if required[name] {
			line += ", required"
		}
		line += ")"
		if len(prop.Enum) > 0 {
			line += " one of " + strings.Join(prop.Enum, "|")
		}
		if prop.Description != "" {
			line += ": " + prop.Description
		}
		lines = append(lines, line)
	}
	return lines
}

func init() {
	toolsCmd.AddCommand(toolsListCmd)
	toolsCmd.AddCommand(toolsCallCmd)
	rootCmd.AddCommand(toolsCmd)
}
