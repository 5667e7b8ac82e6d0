package tool

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecodeArgs decodes model-supplied arguments into a typed request struct.
// WeaklyTypedInput smooths over the model encoding integers as floats or
// numbers as strings.
func DecodeArgs(args map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "json",
	})
	if err != nil {
		return fmt.Errorf("building decoder: %w", err)
	}
	if err := decoder.Decode(args); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}
