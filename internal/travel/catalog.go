// Package travel implements the mock travel tools: weather forecasts,
// tourist attractions, budget allocation and flight/hotel search. All data
// comes from a YAML catalog, embedded by default.
package travel

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// ErrEmptyCatalog is returned when a catalog file has no weather pattern.
var ErrEmptyCatalog = errors.New("catalog has no weather data")

// DailyForecast is one day of a mock forecast.
type DailyForecast struct {
	Day       int    `yaml:"day" json:"day"`
	Temp      string `yaml:"temp" json:"temp"`
	Condition string `yaml:"condition" json:"condition"`
	Humidity  string `yaml:"humidity" json:"humidity"`
}

// Attraction is a point of interest in a city.
type Attraction struct {
	Name   string  `yaml:"name" json:"name"`
	Type   string  `yaml:"type" json:"type"`
	Rating float64 `yaml:"rating" json:"rating"`
	Price  string  `yaml:"price" json:"price"`
}

// City holds per-destination data. Weather overrides the catalog-wide
// pattern when set.
type City struct {
	Name        string          `yaml:"name"`
	DailyCost   float64         `yaml:"daily_cost"`
	Attractions []Attraction    `yaml:"attractions"`
	Weather     []DailyForecast `yaml:"weather"`
}

// Flight is a mock flight offer.
type Flight struct {
	Airline  string  `yaml:"airline" json:"airline"`
	Price    float64 `yaml:"price" json:"price"`
	Duration string  `yaml:"duration" json:"duration"`
	Stops    int     `yaml:"stops" json:"stops"`
}

// Hotel is a mock hotel offer.
type Hotel struct {
	Name          string  `yaml:"name" json:"name"`
	PricePerNight float64 `yaml:"price_per_night" json:"price_per_night"`
	Rating        float64 `yaml:"rating" json:"rating"`
	Location      string  `yaml:"location" json:"location"`
}

// Catalog is the complete mock data set.
type Catalog struct {
	DefaultDailyCost float64         `yaml:"default_daily_cost"`
	Weather          []DailyForecast `yaml:"weather"`
	Cities           map[string]City `yaml:"cities"`
	Flights          []Flight        `yaml:"flights"`
	Hotels           []Hotel         `yaml:"hotels"`
}

// ParseCatalog decodes a YAML catalog. City keys are matched
// case-insensitively.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("error parsing catalog: %w", err)
	}
	if len(c.Weather) == 0 {
		return nil, ErrEmptyCatalog
	}
	if c.DefaultDailyCost <= 0 {
		c.DefaultDailyCost = 100
	}

	cities := make(map[string]City, len(c.Cities))
	for key, city := range c.Cities {
		if city.Name == "" {
			city.Name = key
		}
		cities[normalizeCity(key)] = city
	}
	c.Cities = cities
	return &c, nil
}

// LoadCatalogFile reads a catalog from disk.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading catalog: %w", err)
	}
	return ParseCatalog(data)
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = ParseCatalog(embeddedCatalog)
	})
	return defaultCatalog, defaultErr
}

func normalizeCity(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// City looks a city up by name, ignoring case and extra whitespace.
func (c *Catalog) City(name string) (City, bool) {
	city, ok := c.Cities[normalizeCity(name)]
	return city, ok
}

// DailyCost is the estimated cost per day in a city, or the default for
// cities the catalog does not know.
func (c *Catalog) DailyCost(name string) float64 {
	if city, ok := c.City(name); ok && city.DailyCost > 0 {
		return city.DailyCost
	}
	return c.DefaultDailyCost
}

// Forecast returns the weather pattern for a city.
func (c *Catalog) Forecast(name string) []DailyForecast {
	if city, ok := c.City(name); ok && len(city.Weather) > 0 {
		return city.Weather
	}
	return c.Weather
}

// CityNames returns the display names of all known cities.
func (c *Catalog) CityNames() []string {
	names := make([]string, 0, len(c.Cities))
	for _, city := range c.Cities {
		names = append(names, city.Name)
	}
	return names
}
