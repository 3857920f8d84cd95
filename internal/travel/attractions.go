package travel

import (
	"context"
	"fmt"
	"strings"

	"github.com/simonyos/travelagent/internal/tools"
)

// Attraction categories accepted by search_tourist_attractions.
const (
	CategoryAll      = "all"
	CategoryLandmark = "landmark"
	CategoryMuseum   = "museum"
	CategoryPark     = "park"
)

// AttractionList is the structured result of search_tourist_attractions.
type AttractionList struct {
	City        string       `json:"city"`
	Category    string       `json:"category"`
	Attractions []Attraction `json:"attractions"`
}

func (l AttractionList) String() string {
	if len(l.Attractions) == 0 {
		return fmt.Sprintf("No %s attractions found in %s.\n", l.Category, l.City)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tourist attractions in %s:\n", l.City)
	for i, a := range l.Attractions {
		fmt.Fprintf(&sb, "%d. %s (%s) - Rating: %.1f/5, Price: %s\n", i+1, a.Name, a.Type, a.Rating, a.Price)
	}
	return sb.String()
}

type attractionArgs struct {
	City     string `mapstructure:"city"`
	Category string `mapstructure:"category"`
}

// AttractionsTool implements search_tourist_attractions.
type AttractionsTool struct {
	tools.BaseTool
	catalog *Catalog
}

// NewAttractionsTool creates the attraction search tool.
func NewAttractionsTool(catalog *Catalog) *AttractionsTool {
	return &AttractionsTool{
		BaseTool: tools.BaseTool{
			Def: tools.ToolDefinition{
				Name:        "search_tourist_attractions",
				Description: "Search for tourist attractions in a city, optionally filtered by category.",
				Parameters: &tools.JSONSchema{
					Type: "object",
					Properties: map[string]*tools.JSONSchema{
						"city": {
							Type:        "string",
							Description: "Name of the city",
						},
						"category": {
							Type:        "string",
							Description: "Type of attraction",
							Enum:        []string{CategoryAll, CategoryLandmark, CategoryMuseum, CategoryPark},
							Default:     CategoryAll,
						},
					},
					Required: []string{"city"},
				},
			},
		},
		catalog: catalog,
	}
}

// Search lists attractions in city. Cities outside the catalog get a
// generic set built from the city name.
func (t *AttractionsTool) Search(city, category string) AttractionList {
	if category == "" {
		category = CategoryAll
	}

	var all []Attraction
	if c, ok := t.catalog.City(city); ok {
		all = c.Attractions
	} else {
		all = []Attraction{
			{Name: city + " City Center", Type: CategoryLandmark, Rating: 4.5, Price: "Free"},
			{Name: city + " Museum", Type: CategoryMuseum, Rating: 4.4, Price: "$15"},
			{Name: city + " Park", Type: CategoryPark, Rating: 4.3, Price: "Free"},
		}
	}

	list := AttractionList{City: city, Category: category, Attractions: []Attraction{}}
	for _, a := range all {
		if category == CategoryAll || a.Type == category {
			list.Attractions = append(list.Attractions, a)
		}
	}
	return list
}

// Execute returns the matching attractions.
func (t *AttractionsTool) Execute(ctx context.Context, args map[string]any) (tools.ToolResult, error) {
	var a attractionArgs
	if err := decodeArgs(args, &a); err != nil {
		return tools.ToolResult{}, err
	}
	list := t.Search(a.City, a.Category)
	return tools.ToolResult{Success: true, Output: list.String(), Data: list}, nil
}
