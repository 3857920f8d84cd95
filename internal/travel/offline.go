package travel

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/simonyos/travelagent/internal/llm"
)

// OfflinePlanner is an llm.Provider that plans tool calls from keyword rules
// instead of a model. On a user turn it requests tools for the cities,
// dates and amounts it finds; after tool results it writes a summary.
type OfflinePlanner struct {
	catalog *Catalog
}

// NewOfflinePlanner creates a planner that recognises the catalog's cities.
func NewOfflinePlanner(catalog *Catalog) *OfflinePlanner {
	return &OfflinePlanner{catalog: catalog}
}

func (p *OfflinePlanner) Name() string      { return "offline" }
func (p *OfflinePlanner) ModelName() string { return "keyword-rules" }

var (
	daysRe   = regexp.MustCompile(`(?i)\b(\d+)[\s-]*days?\b`)
	moneyRe  = regexp.MustCompile(`(?i)(?:\$\s*([\d,]+(?:\.\d+)?))|(?:budget of\s*([\d,]+(?:\.\d+)?))|(?:([\d,]+(?:\.\d+)?)\s*(?:usd|dollars))`)
	dateRe   = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	originRe = regexp.MustCompile(`(?i)\bfrom\s+([a-z][a-z ]*?)(?:\s+to\b|\s+on\b|[,.?!]|$)`)
)

var toolTitles = map[string]string{
	"get_weather_forecast":       "Weather",
	"search_tourist_attractions": "Attractions",
	"optimize_budget":            "Budget",
	"search_flights_hotels":      "Flights & Hotels",
}

// GenerateWithTools answers one turn.
func (p *OfflinePlanner) GenerateWithTools(ctx context.Context, messages []llm.Message, specs []llm.ToolSpec) (*llm.ToolCallResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, &llm.FatalError{Provider: p.Name(), Err: errors.New("empty conversation")}
	}

	if messages[len(messages)-1].Role == llm.RoleTool {
		return &llm.ToolCallResponse{Content: summarize(messages)}, nil
	}

	var query string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleUser {
			query = messages[i].Content
			break
		}
	}

	requests := filterAvailable(p.Plan(query), specs)
	if len(requests) == 0 {
		return &llm.ToolCallResponse{Content: p.help()}, nil
	}
	return &llm.ToolCallResponse{ToolRequests: requests}, nil
}

// Plan derives tool requests from a free-text query. Request IDs are left
// empty for the agent loop to assign.
func (p *OfflinePlanner) Plan(query string) []llm.ToolRequest {
	lower := strings.ToLower(query)
	cities := p.findCities(query)
	days := firstInt(daysRe, query)
	budget := firstAmount(query)
	dates := dateRe.FindAllString(query, 2)

	wantWeather := containsAny(lower, "weather", "forecast", "temperature")
	wantAttractions := containsAny(lower, "attraction", "sights", "things to do", "see in", "museum", "landmark")
	wantBudget := strings.Contains(lower, "budget") && budget > 0
	wantFlights := containsAny(lower, "flight", "hotel") && len(dates) > 0
	if containsAny(lower, "trip", "itinerary", "plan") && !wantWeather && !wantAttractions {
		wantWeather, wantAttractions = true, true
	}

	var requests []llm.ToolRequest
	add := func(name string, args map[string]any) {
		requests = append(requests, llm.ToolRequest{Name: name, Arguments: args})
	}

	if wantWeather {
		forecastDays := MaxForecastDays
		if days > 0 && days < MaxForecastDays {
			forecastDays = days
		}
		for _, c := range cities {
			add("get_weather_forecast", map[string]any{"city": c, "days": float64(forecastDays)})
		}
	}
	if wantAttractions {
		category := CategoryAll
		switch {
		case strings.Contains(lower, "museum"):
			category = CategoryMuseum
		case strings.Contains(lower, "park"):
			category = CategoryPark
		case strings.Contains(lower, "landmark"):
			category = CategoryLandmark
		}
		for _, c := range cities {
			add("search_tourist_attractions", map[string]any{"city": c, "category": category})
		}
	}
	if wantBudget && len(cities) > 0 {
		dests := make([]any, len(cities))
		for i, c := range cities {
			dests[i] = c
		}
		tripDays := days
		if tripDays < len(cities) {
			tripDays = 3 * len(cities)
		}
		add("optimize_budget", map[string]any{
			"destinations": dests,
			"total_budget": budget,
			"days":         float64(tripDays),
		})
	}
	if wantFlights {
		if origin, dest := p.route(query, cities); origin != "" && dest != "" {
			args := map[string]any{"origin": origin, "destination": dest, "departure_date": dates[0]}
			if len(dates) > 1 {
				args["return_date"] = dates[1]
			}
			add("search_flights_hotels", args)
		}
	}
	return requests
}

// findCities returns catalog cities mentioned in query, in order of mention.
func (p *OfflinePlanner) findCities(query string) []string {
	lower := strings.ToLower(query)
	type hit struct {
		pos  int
		name string
	}
	var hits []hit
	for key, city := range p.catalog.Cities {
		if pos := strings.Index(lower, key); pos >= 0 {
			hits = append(hits, hit{pos: pos, name: city.Name})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	names := make([]string, 0, len(hits))
	for _, h := range hits {
		names = append(names, h.name)
	}
	return names
}

func (p *OfflinePlanner) route(query string, cities []string) (string, string) {
	var origin string
	if m := originRe.FindStringSubmatch(query); m != nil {
		origin = strings.TrimSpace(m[1])
		if c, ok := p.catalog.City(origin); ok {
			origin = c.Name
		}
	}
	for _, c := range cities {
		if !strings.EqualFold(c, origin) {
			return origin, c
		}
	}
	return origin, ""
}

func (p *OfflinePlanner) help() string {
	names := p.catalog.CityNames()
	sort.Strings(names)
	return "I can check weather forecasts, find attractions, split a travel budget and search flights and hotels. " +
		"Tell me where you want to go, for example one of: " + strings.Join(names, ", ") + "."
}

func summarize(messages []llm.Message) string {
	start := len(messages)
	for start > 0 && messages[start-1].Role == llm.RoleTool {
		start--
	}

	var sb strings.Builder
	sb.WriteString("Here is what I found for your trip.\n")
	for _, m := range messages[start:] {
		title := toolTitles[m.Name]
		if title == "" {
			title = m.Name
		}
		fmt.Fprintf(&sb, "\n## %s\n\n", title)
		if m.IsError {
			fmt.Fprintf(&sb, "This lookup failed: %s\n", m.Content)
			continue
		}
		for _, line := range strings.Split(strings.TrimRight(m.Content, "\n"), "\n") {
			if line == "" {
				sb.WriteString("\n")
				continue
			}
			sb.WriteString("    " + line + "\n")
		}
	}
	return sb.String()
}

func filterAvailable(requests []llm.ToolRequest, specs []llm.ToolSpec) []llm.ToolRequest {
	if len(specs) == 0 {
		return requests
	}
	available := make(map[string]bool, len(specs))
	for _, s := range specs {
		available[s.Name] = true
	}
	out := requests[:0]
	for _, r := range requests {
		if available[r.Name] {
			out = append(out, r)
		}
	}
	return out
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func firstInt(re *regexp.Regexp, s string) int {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func firstAmount(s string) float64 {
	m := moneyRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	for _, g := range m[1:] {
		if g == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(g, ",", ""), 64)
		if err == nil {
			return v
		}
	}
	return 0
}

var _ llm.Provider = (*OfflinePlanner)(nil)
