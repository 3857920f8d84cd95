package travel

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/simonyos/travelagent/internal/llm"
	"github.com/simonyos/travelagent/internal/tools"
)

func newTestRegistry(t *testing.T, alloc Allocator) *tools.Registry {
	t.Helper()
	reg, err := NewRegistry(Options{Allocator: alloc})
	require.NoError(t, err)
	return reg
}

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	require.Len(t, c.Weather, 5)
	require.Len(t, c.Flights, 3)
	require.Len(t, c.Hotels, 3)

	city, ok := c.City("  NEW   york ")
	require.True(t, ok)
	require.Equal(t, "New York", city.Name)

	require.Equal(t, 120.0, c.DailyCost("Tokyo"))
	require.Equal(t, 100.0, c.DailyCost("Atlantis"))
}

func TestParseCatalog(t *testing.T) {
	_, err := ParseCatalog([]byte("cities: {}\n"))
	require.ErrorIs(t, err, ErrEmptyCatalog)

	_, err = ParseCatalog([]byte("weather: [unclosed"))
	require.Error(t, err)

	c, err := ParseCatalog([]byte(`
weather:
  - {day: 1, temp: "10°C", condition: Snow, humidity: "90%"}
cities:
  Oslo:
    daily_cost: 210
    weather:
      - {day: 1, temp: "-3°C", condition: Snow, humidity: "85%"}
`))
	require.NoError(t, err)
	require.Equal(t, 100.0, c.DefaultDailyCost)
	require.Equal(t, 210.0, c.DailyCost("oslo"))
	require.Equal(t, "-3°C", c.Forecast("Oslo")[0].Temp)
	require.Equal(t, "10°C", c.Forecast("Bergen")[0].Temp)
}

func TestWeather_TokyoFiveDays(t *testing.T) {
	reg := newTestRegistry(t, nil)

	res, err := reg.Dispatch(context.Background(), "get_weather_forecast", map[string]any{"city": "Tokyo", "days": float64(5)})
	require.NoError(t, err)
	require.True(t, res.Success)

	f, ok := res.Data.(Forecast)
	require.True(t, ok)
	require.Equal(t, "Tokyo", f.City)
	require.Len(t, f.Days, 5)

	lines := strings.Split(strings.TrimSpace(res.Output), "\n")
	require.Equal(t, "Weather forecast for Tokyo:", lines[0])
	require.Equal(t, "Day 1: 22°C, Sunny, Humidity: 65%", lines[1])
	require.Len(t, lines, 6)
}

func TestWeather_DaysBounds(t *testing.T) {
	reg := newTestRegistry(t, nil)
	ctx := context.Background()

	res, err := reg.Dispatch(ctx, "get_weather_forecast", map[string]any{"city": "Paris"})
	require.NoError(t, err)
	require.Len(t, res.Data.(Forecast).Days, MaxForecastDays, "days defaults to 5")

	res, err = reg.Dispatch(ctx, "get_weather_forecast", map[string]any{"city": "Paris", "days": float64(2)})
	require.NoError(t, err)
	require.Len(t, res.Data.(Forecast).Days, 2)

	res, err = reg.Dispatch(ctx, "get_weather_forecast", map[string]any{"city": "Paris", "days": float64(14)})
	require.NoError(t, err)
	require.Len(t, res.Data.(Forecast).Days, MaxForecastDays, "long requests are clamped")

	for _, days := range []float64{0, -3, 2.5} {
		_, err := reg.Dispatch(ctx, "get_weather_forecast", map[string]any{"city": "Paris", "days": days})
		var verr *tools.ArgumentValidationError
		require.ErrorAs(t, err, &verr, "days=%v", days)
		require.Equal(t, "days", verr.Field)
	}
}

func TestAttractions(t *testing.T) {
	reg := newTestRegistry(t, nil)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantNames []string
	}{
		{
			name:      "known city all",
			args:      map[string]any{"city": "london"},
			wantNames: []string{"Big Ben", "British Museum", "Tower Bridge", "Hyde Park"},
		},
		{
			name:      "known city filtered",
			args:      map[string]any{"city": "New York", "category": "museum"},
			wantNames: []string{"Metropolitan Museum of Art"},
		},
		{
			name:      "unknown city",
			args:      map[string]any{"city": "Lisbon"},
			wantNames: []string{"Lisbon City Center", "Lisbon Museum", "Lisbon Park"},
		},
		{
			name:      "no match",
			args:      map[string]any{"city": "Paris", "category": "park"},
			wantNames: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := reg.Dispatch(ctx, "search_tourist_attractions", tt.args)
			require.NoError(t, err)
			list := res.Data.(AttractionList)
			names := make([]string, 0, len(list.Attractions))
			for _, a := range list.Attractions {
				names = append(names, a.Name)
			}
			require.Equal(t, tt.wantNames, names)
		})
	}

	res, _ := reg.Dispatch(ctx, "search_tourist_attractions", map[string]any{"city": "Paris"})
	require.Contains(t, res.Output, "1. Eiffel Tower (landmark) - Rating: 4.8/5, Price: €25")

	_, err := reg.Dispatch(ctx, "search_tourist_attractions", map[string]any{"city": "Paris", "category": "zoo"})
	var verr *tools.ArgumentValidationError
	require.ErrorAs(t, err, &verr)
}

func TestBudget_EvenSplitArithmetic(t *testing.T) {
	reg := newTestRegistry(t, nil)

	res, err := reg.Dispatch(context.Background(), "optimize_budget", map[string]any{
		"destinations": []any{"Tokyo", "New York"},
		"total_budget": float64(5000),
		"days":         float64(10),
	})
	require.NoError(t, err)

	plan := res.Data.(BudgetPlan)
	require.Equal(t, 10, plan.TotalDays)
	require.Equal(t, 500.00, plan.DailyAverage)
	require.Equal(t, "even", plan.Allocation)
	require.Len(t, plan.Destinations, 2)

	require.Equal(t, "Tokyo", plan.Destinations[0].Name)
	require.Equal(t, 5, plan.Destinations[0].Days)
	require.Equal(t, 2500.00, plan.Destinations[0].Budget)
	require.Equal(t, 600.00, plan.Destinations[0].EstimatedCost)

	require.Equal(t, "New York", plan.Destinations[1].Name)
	require.Equal(t, 5, plan.Destinations[1].Days)
	require.Equal(t, 2500.00, plan.Destinations[1].Budget)
	require.Equal(t, 1000.00, plan.Destinations[1].EstimatedCost)

	require.Equal(t, 3400.00, plan.Remaining)
	require.Equal(t, noteGood, plan.Note)

	require.Contains(t, res.Output, "Average daily budget: $500.00")
	require.Contains(t, res.Output, "Recommended budget: $2500.00")
}

func TestBudget_UnevenDaysAndWarnings(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	plan := PlanBudget(c, EvenSplit{}, []string{"Paris", "London", "Tokyo"}, 1000, SplitDays(7, 3))
	require.Equal(t, []int{3, 2, 2}, []int{plan.Destinations[0].Days, plan.Destinations[1].Days, plan.Destinations[2].Days})
	require.Equal(t, 142.86, plan.DailyAverage)
	require.Equal(t, 428.57, plan.Destinations[0].Budget)
	require.Equal(t, 285.71, plan.Destinations[1].Budget)
	require.False(t, plan.Destinations[0].OverBudget)
	require.True(t, plan.Destinations[1].OverBudget, "London estimate 360 exceeds 1.2 x 285.71")
	require.Equal(t, -50.00, plan.Remaining)
	require.Equal(t, noteExceeded, plan.Note)
	require.Contains(t, plan.String(), "Warning: This destination may exceed budget")
}

func TestBudget_CostWeighted(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	plan := PlanBudget(c, CostWeighted{}, []string{"Tokyo", "New York"}, 3200, []int{5, 5})
	// weights 600 and 1000
	require.Equal(t, 1200.00, plan.Destinations[0].Budget)
	require.Equal(t, 2000.00, plan.Destinations[1].Budget)
	require.Equal(t, "cost_weighted", plan.Allocation)
}

func TestBudget_Validation(t *testing.T) {
	reg := newTestRegistry(t, nil)

	tests := []struct {
		name      string
		args      map[string]any
		wantField string
	}{
		{
			name:      "neither days nor per destination",
			args:      map[string]any{"destinations": []any{"Paris"}, "total_budget": 100.0},
			wantField: "days",
		},
		{
			name:      "both",
			args:      map[string]any{"destinations": []any{"Paris"}, "total_budget": 100.0, "days": 2.0, "days_per_destination": []any{2.0}},
			wantField: "days",
		},
		{
			name:      "length mismatch",
			args:      map[string]any{"destinations": []any{"Paris", "Rome"}, "total_budget": 100.0, "days_per_destination": []any{2.0}},
			wantField: "days_per_destination",
		},
		{
			name:      "too few days",
			args:      map[string]any{"destinations": []any{"Paris", "Rome"}, "total_budget": 100.0, "days": 1.0},
			wantField: "days",
		},
		{
			name:      "zero budget",
			args:      map[string]any{"destinations": []any{"Paris"}, "total_budget": 0.0, "days": 1.0},
			wantField: "total_budget",
		},
		{
			name:      "no destinations",
			args:      map[string]any{"destinations": []any{}, "total_budget": 10.0, "days": 1.0},
			wantField: "destinations",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Dispatch(context.Background(), "optimize_budget", tt.args)
			var verr *tools.ArgumentValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tt.wantField, verr.Field)
			require.Equal(t, "optimize_budget", verr.Tool)
		})
	}

	res, err := reg.Dispatch(context.Background(), "optimize_budget", map[string]any{
		"destinations":         []any{"Paris", "Rome"},
		"total_budget":         900.0,
		"days_per_destination": []any{1.0, 2.0},
	})
	require.NoError(t, err)
	require.Equal(t, 300.00, res.Data.(BudgetPlan).Destinations[0].Budget)
}

func TestAllocatorByName(t *testing.T) {
	a, err := AllocatorByName("")
	require.NoError(t, err)
	require.Equal(t, "even", a.Name())

	a, err = AllocatorByName("Cost_Weighted")
	require.NoError(t, err)
	require.Equal(t, "cost_weighted", a.Name())

	_, err = AllocatorByName("greedy")
	require.Error(t, err)
}

func TestSplitDays(t *testing.T) {
	require.Equal(t, []int{5, 5}, SplitDays(10, 2))
	require.Equal(t, []int{4, 3, 3}, SplitDays(10, 3))
	require.Nil(t, SplitDays(10, 0))
}

func TestFlightsHotels(t *testing.T) {
	reg := newTestRegistry(t, nil)
	ctx := context.Background()

	res, err := reg.Dispatch(ctx, "search_flights_hotels", map[string]any{
		"origin": "London", "destination": "Paris", "departure_date": "2025-06-01",
	})
	require.NoError(t, err)
	require.Contains(t, res.Output, "Departure: 2025-06-01 (One-way)")
	require.Contains(t, res.Output, "1. Air Travel Co: $450, Duration: 8h 30m, Stops: 1")
	require.Len(t, res.Data.(TripSearch).Hotels, 3)

	res, err = reg.Dispatch(ctx, "search_flights_hotels", map[string]any{
		"origin": "London", "destination": "Paris", "departure_date": "2025-06-01", "return_date": "2025-06-04",
	})
	require.NoError(t, err)
	require.Equal(t, 3, res.Data.(TripSearch).Nights)
	require.Contains(t, res.Output, "Return: 2025-06-04")
	require.Contains(t, res.Output, "$360 for 3 nights")

	_, err = reg.Dispatch(ctx, "search_flights_hotels", map[string]any{
		"origin": "London", "destination": "Paris", "departure_date": "2025-06-05", "return_date": "2025-06-01",
	})
	var verr *tools.ArgumentValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "return_date", verr.Field)

	_, err = reg.Dispatch(ctx, "search_flights_hotels", map[string]any{
		"origin": "London", "destination": "Paris", "departure_date": "06/01/2025",
	})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "departure_date", verr.Field)
}

func TestToolsAreIdempotent(t *testing.T) {
	reg := newTestRegistry(t, nil)
	calls := []struct {
		name string
		args map[string]any
	}{
		{"get_weather_forecast", map[string]any{"city": "Tokyo", "days": 3.0}},
		{"search_tourist_attractions", map[string]any{"city": "Paris"}},
		{"optimize_budget", map[string]any{"destinations": []any{"Tokyo", "London"}, "total_budget": 4000.0, "days": 9.0}},
		{"search_flights_hotels", map[string]any{"origin": "Paris", "destination": "Tokyo", "departure_date": "2025-03-01"}},
	}

	for _, c := range calls {
		first, err := reg.Dispatch(context.Background(), c.name, c.args)
		require.NoError(t, err)
		second, err := reg.Dispatch(context.Background(), c.name, c.args)
		require.NoError(t, err)
		require.Equal(t, first, second, c.name)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	reg := newTestRegistry(t, nil)
	require.Equal(t, 4, reg.Len())

	err := Register(reg, Options{})
	var dup *tools.DuplicateNameError
	require.True(t, errors.As(err, &dup))
}

func TestOfflinePlanner_Plan(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	p := NewOfflinePlanner(c)

	reqs := p.Plan("What's the weather in Tokyo for the next 5 days?")
	require.Len(t, reqs, 1)
	require.Equal(t, "get_weather_forecast", reqs[0].Name)
	require.Equal(t, "Tokyo", reqs[0].Arguments["city"])
	require.Equal(t, 5.0, reqs[0].Arguments["days"])
	require.Empty(t, reqs[0].ID)

	reqs = p.Plan("Split a budget of $5000 between Tokyo and New York for 10 days")
	require.Len(t, reqs, 1)
	require.Equal(t, "optimize_budget", reqs[0].Name)
	require.Equal(t, []any{"Tokyo", "New York"}, reqs[0].Arguments["destinations"])
	require.Equal(t, 5000.0, reqs[0].Arguments["total_budget"])
	require.Equal(t, 10.0, reqs[0].Arguments["days"])

	reqs = p.Plan("Plan a 5-day trip to Paris and Tokyo with a budget of $3,000.")
	names := make([]string, 0, len(reqs))
	for _, r := range reqs {
		names = append(names, r.Name)
	}
	require.Equal(t, []string{
		"get_weather_forecast", "get_weather_forecast",
		"search_tourist_attractions", "search_tourist_attractions",
		"optimize_budget",
	}, names)
	require.Equal(t, 3000.0, reqs[4].Arguments["total_budget"])

	reqs = p.Plan("Find flights and hotels from London to Paris, 2025-06-01 to 2025-06-08")
	require.Len(t, reqs, 1)
	require.Equal(t, "London", reqs[0].Arguments["origin"])
	require.Equal(t, "Paris", reqs[0].Arguments["destination"])
	require.Equal(t, "2025-06-08", reqs[0].Arguments["return_date"])
}

func TestOfflinePlanner_Turns(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	p := NewOfflinePlanner(c)
	reg := newTestRegistry(t, nil)
	ctx := context.Background()

	resp, err := p.GenerateWithTools(ctx, []llm.Message{{Role: llm.RoleUser, Content: "hello there"}}, reg.Specs())
	require.NoError(t, err)
	require.True(t, resp.Done())
	require.Contains(t, resp.Content, "Tokyo")

	resp, err = p.GenerateWithTools(ctx, []llm.Message{{Role: llm.RoleUser, Content: "weather in Paris"}}, []llm.ToolSpec{{Name: "optimize_budget"}})
	require.NoError(t, err)
	require.True(t, resp.Done(), "tools that are not offered are never requested")

	resp, err = p.GenerateWithTools(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: "weather in Paris"},
		{Role: llm.RoleAssistant, ToolRequests: []llm.ToolRequest{{ID: "a", Name: "get_weather_forecast"}}},
		{Role: llm.RoleTool, ToolCallID: "a", Name: "get_weather_forecast", Content: "Weather forecast for Paris:\nDay 1: 22°C, Sunny, Humidity: 65%"},
	}, reg.Specs())
	require.NoError(t, err)
	require.True(t, resp.Done())
	require.Contains(t, resp.Content, "## Weather")
	require.Contains(t, resp.Content, "Day 1: 22°C, Sunny")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = p.GenerateWithTools(cancelled, []llm.Message{{Role: llm.RoleUser, Content: "hi"}}, nil)
	require.ErrorIs(t, err, context.Canceled)
}
