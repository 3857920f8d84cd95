package travel

import (
	"context"
	"fmt"
	"strings"

	"github.com/simonyos/travelagent/internal/tools"
)

// Allocator splits a total budget across destinations.
type Allocator interface {
	Name() string

	// Allocate returns one amount per destination. days and dailyCosts have
	// the same length; every days entry is at least 1.
	Allocate(total float64, days []int, dailyCosts []float64) []float64
}

// EvenSplit gives every day of the trip the same share of the budget.
type EvenSplit struct{}

func (EvenSplit) Name() string { return "even" }

func (EvenSplit) Allocate(total float64, days []int, _ []float64) []float64 {
	totalDays := sum(days)
	out := make([]float64, len(days))
	for i, d := range days {
		out[i] = round2(total * float64(d) / float64(totalDays))
	}
	return out
}

// CostWeighted weights each destination by days times its estimated daily cost.
type CostWeighted struct{}

func (CostWeighted) Name() string { return "cost_weighted" }

func (CostWeighted) Allocate(total float64, days []int, dailyCosts []float64) []float64 {
	weights := make([]float64, len(days))
	var totalWeight float64
	for i, d := range days {
		weights[i] = float64(d) * dailyCosts[i]
		totalWeight += weights[i]
	}
	if totalWeight <= 0 {
		return EvenSplit{}.Allocate(total, days, dailyCosts)
	}
	out := make([]float64, len(days))
	for i, w := range weights {
		out[i] = round2(total * w / totalWeight)
	}
	return out
}

// AllocatorByName resolves the budget.allocation setting.
func AllocatorByName(name string) (Allocator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "even":
		return EvenSplit{}, nil
	case "cost_weighted", "cost-weighted", "weighted":
		return CostWeighted{}, nil
	}
	return nil, fmt.Errorf("unknown budget allocation %q (want even or cost_weighted)", name)
}

// SplitDays divides days across n destinations; the first days%n
// destinations get one extra day.
func SplitDays(days, n int) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, n)
	for i := range out {
		out[i] = days / n
		if i < days%n {
			out[i]++
		}
	}
	return out
}

// DestinationBudget is the plan for one destination.
type DestinationBudget struct {
	Name          string  `json:"name"`
	Days          int     `json:"days"`
	Budget        float64 `json:"budget"`
	DailyCost     float64 `json:"daily_cost"`
	EstimatedCost float64 `json:"estimated_cost"`
	OverBudget    bool    `json:"over_budget"`
}

// BudgetPlan is the structured result of optimize_budget.
type BudgetPlan struct {
	TotalBudget    float64             `json:"total_budget"`
	TotalDays      int                 `json:"total_days"`
	DailyAverage   float64             `json:"daily_average"`
	Allocation     string              `json:"allocation"`
	Destinations   []DestinationBudget `json:"destinations"`
	EstimatedTotal float64             `json:"estimated_total"`
	Remaining      float64             `json:"remaining"`
	Note           string              `json:"note,omitempty"`
}

const (
	noteExceeded = "Budget exceeded! Consider reducing days or choosing cheaper destinations."
	noteGood     = "Good budget allocation with buffer for unexpected expenses."
)

// PlanBudget allocates total across destinations with the given days each.
func PlanBudget(catalog *Catalog, alloc Allocator, destinations []string, total float64, days []int) BudgetPlan {
	totalDays := sum(days)
	costs := make([]float64, len(destinations))
	for i, d := range destinations {
		costs[i] = catalog.DailyCost(d)
	}
	budgets := alloc.Allocate(total, days, costs)

	plan := BudgetPlan{
		TotalBudget:  total,
		TotalDays:    totalDays,
		DailyAverage: round2(total / float64(totalDays)),
		Allocation:   alloc.Name(),
	}

	var estimated float64
	for i, name := range destinations {
		est := float64(days[i]) * costs[i]
		estimated += est
		plan.Destinations = append(plan.Destinations, DestinationBudget{
			Name:          name,
			Days:          days[i],
			Budget:        budgets[i],
			DailyCost:     costs[i],
			EstimatedCost: round2(est),
			OverBudget:    est > budgets[i]*1.2,
		})
	}
	plan.EstimatedTotal = round2(estimated)
	plan.Remaining = round2(total - estimated)

	switch {
	case plan.Remaining < 0:
		plan.Note = noteExceeded
	case plan.Remaining > total*0.2:
		plan.Note = noteGood
	}
	return plan
}

func (p BudgetPlan) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Budget Optimization for %.2f USD:\n", p.TotalBudget)
	fmt.Fprintf(&sb, "Total days: %d\n", p.TotalDays)
	fmt.Fprintf(&sb, "Average daily budget: $%.2f\n", p.DailyAverage)
	fmt.Fprintf(&sb, "Allocation: %s\n\n", p.Allocation)

	for i, d := range p.Destinations {
		fmt.Fprintf(&sb, "Destination %d: %s (%d days)\n", i+1, d.Name, d.Days)
		fmt.Fprintf(&sb, "  Estimated cost: $%.2f ($%.0f/day)\n", d.EstimatedCost, d.DailyCost)
		fmt.Fprintf(&sb, "  Recommended budget: $%.2f\n", d.Budget)
		if d.OverBudget {
			sb.WriteString("  Warning: This destination may exceed budget\n")
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Remaining budget: $%.2f\n", p.Remaining)
	if p.Note != "" {
		sb.WriteString(p.Note + "\n")
	}
	return sb.String()
}

type budgetArgs struct {
	Destinations       []string `mapstructure:"destinations"`
	TotalBudget        float64  `mapstructure:"total_budget"`
	Days               int      `mapstructure:"days"`
	DaysPerDestination []int    `mapstructure:"days_per_destination"`
}

// BudgetTool implements optimize_budget.
type BudgetTool struct {
	tools.BaseTool
	catalog   *Catalog
	allocator Allocator
}

// NewBudgetTool creates the budget allocation tool.
func NewBudgetTool(catalog *Catalog, alloc Allocator) *BudgetTool {
	if alloc == nil {
		alloc = EvenSplit{}
	}
	return &BudgetTool{
		BaseTool: tools.BaseTool{
			Def: tools.ToolDefinition{
				Name: "optimize_budget",
				Description: "Allocate a total travel budget across destinations. " +
					"Give either the total number of days or the days for each destination.",
				Parameters: &tools.JSONSchema{
					Type: "object",
					Properties: map[string]*tools.JSONSchema{
						"destinations": {
							Type:        "array",
							Description: "Destination cities in travel order",
							Items:       &tools.JSONSchema{Type: "string"},
							MinItems:    tools.Int(1),
						},
						"total_budget": {
							Type:             "number",
							Description:      "Total budget in USD",
							ExclusiveMinimum: tools.Float(0),
						},
						"days": {
							Type:        "integer",
							Description: "Total trip length in days, split evenly across destinations",
							Minimum:     tools.Float(1),
						},
						"days_per_destination": {
							Type:        "array",
							Description: "Days to spend in each destination, same order as destinations",
							Items:       &tools.JSONSchema{Type: "integer", Minimum: tools.Float(1)},
						},
					},
					Required: []string{"destinations", "total_budget"},
				},
			},
		},
		catalog:   catalog,
		allocator: alloc,
	}
}

// Validate adds the rules the schema cannot express.
func (t *BudgetTool) Validate(args map[string]any) error {
	if err := t.BaseTool.Validate(args); err != nil {
		return err
	}
	var a budgetArgs
	if err := decodeArgs(args, &a); err != nil {
		return tools.InvalidArgument("", "%v", err)
	}
	_, err := a.dayPlan()
	return err
}

func (a budgetArgs) dayPlan() ([]int, error) {
	hasDays := a.Days > 0
	hasPer := len(a.DaysPerDestination) > 0
	switch {
	case hasDays && hasPer:
		return nil, tools.InvalidArgument("days", "give either days or days_per_destination, not both")
	case hasPer:
		if len(a.DaysPerDestination) != len(a.Destinations) {
			return nil, tools.InvalidArgument("days_per_destination",
				"has %d entries but there are %d destinations", len(a.DaysPerDestination), len(a.Destinations))
		}
		return a.DaysPerDestination, nil
	case hasDays:
		if a.Days < len(a.Destinations) {
			return nil, tools.InvalidArgument("days",
				"%d days cannot cover %d destinations", a.Days, len(a.Destinations))
		}
		return SplitDays(a.Days, len(a.Destinations)), nil
	}
	return nil, tools.InvalidArgument("days", "either days or days_per_destination is required")
}

// Execute returns the budget plan.
func (t *BudgetTool) Execute(ctx context.Context, args map[string]any) (tools.ToolResult, error) {
	var a budgetArgs
	if err := decodeArgs(args, &a); err != nil {
		return tools.ToolResult{}, err
	}
	days, err := a.dayPlan()
	if err != nil {
		return tools.ToolResult{}, err
	}
	plan := PlanBudget(t.catalog, t.allocator, a.Destinations, a.TotalBudget, days)
	return tools.ToolResult{Success: true, Output: plan.String(), Data: plan}, nil
}

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}
