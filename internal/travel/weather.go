package travel

import (
	"context"
	"fmt"
	"strings"

	"github.com/simonyos/travelagent/internal/tools"
)

// MaxForecastDays is the longest forecast the mock service offers.
const MaxForecastDays = 5

// Forecast is the structured result of get_weather_forecast.
type Forecast struct {
	City string          `json:"city"`
	Days []DailyForecast `json:"days"`
}

// String renders the forecast the way the model sees it.
func (f Forecast) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Weather forecast for %s:\n", f.City)
	for _, d := range f.Days {
		fmt.Fprintf(&sb, "Day %d: %s, %s, Humidity: %s\n", d.Day, d.Temp, d.Condition, d.Humidity)
	}
	return sb.String()
}

type weatherArgs struct {
	City string `mapstructure:"city"`
	Days int    `mapstructure:"days"`
}

// WeatherTool implements get_weather_forecast.
type WeatherTool struct {
	tools.BaseTool
	catalog *Catalog
}

// NewWeatherTool creates the weather forecast tool.
func NewWeatherTool(catalog *Catalog) *WeatherTool {
	return &WeatherTool{
		BaseTool: tools.BaseTool{
			Def: tools.ToolDefinition{
				Name:        "get_weather_forecast",
				Description: "Get the weather forecast for a city for the next few days (at most 5; longer requests are shortened).",
				Parameters: &tools.JSONSchema{
					Type: "object",
					Properties: map[string]*tools.JSONSchema{
						"city": {
							Type:        "string",
							Description: "Name of the city",
						},
						"days": {
							Type:        "integer",
							Description: "Number of days to forecast (1-5)",
							Minimum:     tools.Float(1),
							Default:     MaxForecastDays,
						},
					},
					Required: []string{"city"},
				},
			},
		},
		catalog: catalog,
	}
}

// Forecast computes the forecast for city over days. Requests beyond the
// available pattern are clamped to it.
func (t *WeatherTool) Forecast(city string, days int) Forecast {
	pattern := t.catalog.Forecast(city)
	if days <= 0 || days > len(pattern) {
		days = len(pattern)
	}
	out := make([]DailyForecast, days)
	copy(out, pattern[:days])
	return Forecast{City: city, Days: out}
}

// Execute returns the mock forecast.
func (t *WeatherTool) Execute(ctx context.Context, args map[string]any) (tools.ToolResult, error) {
	var a weatherArgs
	if err := decodeArgs(args, &a); err != nil {
		return tools.ToolResult{}, err
	}
	f := t.Forecast(a.City, a.Days)
	return tools.ToolResult{Success: true, Output: f.String(), Data: f}, nil
}
