package travel

import (
	"fmt"
	"math"

	"github.com/mitchellh/mapstructure"
)

// decodeArgs decodes validated tool arguments into a typed struct. JSON
// numbers arrive as float64 and are converted to the field types.
func decodeArgs(input map[string]any, out any) error {
	cfg := &mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           out,
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
