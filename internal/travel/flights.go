package travel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/simonyos/travelagent/internal/tools"
)

// TripSearch is the structured result of search_flights_hotels.
type TripSearch struct {
	Origin        string   `json:"origin"`
	Destination   string   `json:"destination"`
	DepartureDate string   `json:"departure_date"`
	ReturnDate    string   `json:"return_date,omitempty"`
	Nights        int      `json:"nights,omitempty"`
	Flights       []Flight `json:"flights"`
	Hotels        []Hotel  `json:"hotels"`
}

func (s TripSearch) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Flight & Hotel Search: %s → %s\n", s.Origin, s.Destination)
	fmt.Fprintf(&sb, "Departure: %s", s.DepartureDate)
	if s.ReturnDate != "" {
		fmt.Fprintf(&sb, ", Return: %s\n\n", s.ReturnDate)
	} else {
		sb.WriteString(" (One-way)\n\n")
	}

	sb.WriteString("FLIGHT OPTIONS:\n")
	for i, f := range s.Flights {
		fmt.Fprintf(&sb, "%d. %s: $%.0f, Duration: %s, Stops: %d\n", i+1, f.Airline, f.Price, f.Duration, f.Stops)
	}

	sb.WriteString("\nHOTEL OPTIONS:\n")
	for i, h := range s.Hotels {
		fmt.Fprintf(&sb, "%d. %s (%s): $%.0f/night, Rating: %.1f/5", i+1, h.Name, h.Location, h.PricePerNight, h.Rating)
		if s.Nights > 0 {
			fmt.Fprintf(&sb, ", $%.0f for %d nights", h.PricePerNight*float64(s.Nights), s.Nights)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

type tripArgs struct {
	Origin        string `mapstructure:"origin"`
	Destination   string `mapstructure:"destination"`
	DepartureDate string `mapstructure:"departure_date"`
	ReturnDate    string `mapstructure:"return_date"`
}

// FlightsHotelsTool implements search_flights_hotels.
type FlightsHotelsTool struct {
	tools.BaseTool
	catalog *Catalog
}

// NewFlightsHotelsTool creates the flight and hotel search tool.
func NewFlightsHotelsTool(catalog *Catalog) *FlightsHotelsTool {
	return &FlightsHotelsTool{
		BaseTool: tools.BaseTool{
			Def: tools.ToolDefinition{
				Name:        "search_flights_hotels",
				Description: "Search for flights and hotels between two cities. Omit return_date for a one-way trip.",
				Parameters: &tools.JSONSchema{
					Type: "object",
					Properties: map[string]*tools.JSONSchema{
						"origin":         {Type: "string", Description: "Origin city"},
						"destination":    {Type: "string", Description: "Destination city"},
						"departure_date": {Type: "string", Format: "date", Description: "Departure date (YYYY-MM-DD)"},
						"return_date":    {Type: "string", Format: "date", Description: "Return date (YYYY-MM-DD), optional"},
					},
					Required: []string{"origin", "destination", "departure_date"},
				},
			},
		},
		catalog: catalog,
	}
}

// Validate checks that the return date is not before departure.
func (t *FlightsHotelsTool) Validate(args map[string]any) error {
	if err := t.BaseTool.Validate(args); err != nil {
		return err
	}
	var a tripArgs
	if err := decodeArgs(args, &a); err != nil {
		return tools.InvalidArgument("", "%v", err)
	}
	_, err := a.nights()
	return err
}

func (a tripArgs) nights() (int, error) {
	if a.ReturnDate == "" {
		return 0, nil
	}
	dep, err := time.Parse(time.DateOnly, a.DepartureDate)
	if err != nil {
		return 0, tools.InvalidArgument("departure_date", "expected YYYY-MM-DD")
	}
	ret, err := time.Parse(time.DateOnly, a.ReturnDate)
	if err != nil {
		return 0, tools.InvalidArgument("return_date", "expected YYYY-MM-DD")
	}
	if ret.Before(dep) {
		return 0, tools.InvalidArgument("return_date", "%s is before departure %s", a.ReturnDate, a.DepartureDate)
	}
	return int(ret.Sub(dep).Hours() / 24), nil
}

// Search returns the mock offers for a trip.
func (t *FlightsHotelsTool) Search(origin, destination, departure, ret string) (TripSearch, error) {
	a := tripArgs{Origin: origin, Destination: destination, DepartureDate: departure, ReturnDate: ret}
	nights, err := a.nights()
	if err != nil {
		return TripSearch{}, err
	}
	return TripSearch{
		Origin:        origin,
		Destination:   destination,
		DepartureDate: departure,
		ReturnDate:    ret,
		Nights:        nights,
		Flights:       append([]Flight(nil), t.catalog.Flights...),
		Hotels:        append([]Hotel(nil), t.catalog.Hotels...),
	}, nil
}

// Execute returns flight and hotel options.
func (t *FlightsHotelsTool) Execute(ctx context.Context, args map[string]any) (tools.ToolResult, error) {
	var a tripArgs
	if err := decodeArgs(args, &a); err != nil {
		return tools.ToolResult{}, err
	}
	s, err := t.Search(a.Origin, a.Destination, a.DepartureDate, a.ReturnDate)
	if err != nil {
		return tools.ToolResult{}, err
	}
	return tools.ToolResult{Success: true, Output: s.String(), Data: s}, nil
}
