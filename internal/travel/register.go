package travel

import (
	"github.com/simonyos/travelagent/internal/tools"
)

// Options configures the travel tools.
type Options struct {
	// Catalog defaults to the embedded catalog.
	Catalog *Catalog

	// Allocator defaults to EvenSplit.
	Allocator Allocator
}

// Register adds the four travel tools to reg.
func Register(reg *tools.Registry, opts Options) error {
	catalog := opts.Catalog
	if catalog == nil {
		var err error
		if catalog, err = DefaultCatalog(); err != nil {
			return err
		}
	}

	for _, t := range []tools.Tool{
		NewWeatherTool(catalog),
		NewAttractionsTool(catalog),
		NewBudgetTool(catalog, opts.Allocator),
		NewFlightsHotelsTool(catalog),
	} {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding only the travel tools.
func NewRegistry(opts Options) (*tools.Registry, error) {
	reg := tools.NewRegistry()
	if err := Register(reg, opts); err != nil {
		return nil, err
	}
	return reg, nil
}
