package tool

import (
	"encoding/json"
	"fmt"
)

// ValidateArgs checks args against a declared parameter schema: required
// fields must be present and values must match the declared primitive types.
// Unknown keys are ignored so a chattier model does not break execution.
func ValidateArgs(args map[string]any, schema *Schema) error {
	if schema == nil {
		return nil
	}
	if args == nil {
		args = map[string]any{}
	}

	for _, field := range schema.Required {
		if _, exists := args[field]; !exists {
			return fmt.Errorf("%w: missing required field %q", ErrInvalidArguments, field)
		}
	}

	for key, value := range args {
		prop, ok := schema.Properties[key]
		if !ok {
			continue
		}
		if err := validateType(value, prop.Type); err != nil {
			return fmt.Errorf("%w: field %q: %v", ErrInvalidArguments, key, err)
		}
	}

	return nil
}

func validateType(value any, expected Type) error {
	switch expected {
	case TypeString:
		if _, ok := value.(string); ok {
			return nil
		}
	case TypeNumber:
		if isNumber(value) {
			return nil
		}
	case TypeInteger:
		if isInteger(value) {
			return nil
		}
	case TypeBoolean:
		if _, ok := value.(bool); ok {
			return nil
		}
	case TypeArray:
		if _, ok := value.([]any); ok {
			return nil
		}
	case TypeObject:
		if _, ok := value.(map[string]any); ok {
			return nil
		}
	case "":
		return nil
	default:
		return fmt.Errorf("unsupported schema type %q", expected)
	}
	return fmt.Errorf("expected %s but got %T", expected, value)
}

func isNumber(value any) bool {
	switch v := value.(type) {
	case float32, float64:
		return true
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	}
	return false
}

func isInteger(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return v == float32(int64(v))
	case float64:
		// Models routinely encode integers as JSON numbers.
		return v == float64(int64(v))
	case json.Number:
		_, err := v.Int64()
		return err == nil
	}
	return false
}
