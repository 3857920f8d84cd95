package tools

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"time"
)

// ValidateArgs checks args against schema: types, required fields, enums,
// numeric bounds, array length and item schemas, and date formats.
// Properties not described by the schema are ignored.
func ValidateArgs(schema *JSONSchema, args map[string]any) error {
	if schema == nil {
		return nil
	}
	if args == nil {
		args = map[string]any{}
	}
	return validateValue(args, schema, "")
}

func validateValue(value any, schema *JSONSchema, path string) error {
	if schema == nil {
		return nil
	}

	if schema.Type != "" {
		if err := checkType(value, schema.Type); err != nil {
			return fieldError(path, err.Error())
		}
	}

	if len(schema.Enum) > 0 {
		s, _ := value.(string)
		if !slices.Contains(schema.Enum, s) {
			return fieldError(path, fmt.Sprintf("expected one of %v but got %v", schema.Enum, value))
		}
	}

	if schema.Minimum != nil || schema.Maximum != nil || schema.ExclusiveMinimum != nil {
		num, ok := toFloat64(value)
		if !ok {
			return fieldError(path, fmt.Sprintf("expected number but got %T", value))
		}
		if schema.Minimum != nil && num < *schema.Minimum {
			return fieldError(path, fmt.Sprintf("value %v is less than minimum %v", num, *schema.Minimum))
		}
		if schema.ExclusiveMinimum != nil && num <= *schema.ExclusiveMinimum {
			return fieldError(path, fmt.Sprintf("value %v must be greater than %v", num, *schema.ExclusiveMinimum))
		}
		if schema.Maximum != nil && num > *schema.Maximum {
			return fieldError(path, fmt.Sprintf("value %v exceeds maximum %v", num, *schema.Maximum))
		}
	}

	if schema.Format == "date" {
		s, _ := value.(string)
		if _, err := time.Parse(time.DateOnly, s); err != nil {
			return fieldError(path, fmt.Sprintf("expected a date as YYYY-MM-DD but got %q", s))
		}
	}

	switch schema.Type {
	case "object":
		obj := value.(map[string]any)
		for _, field := range schema.Required {
			if v, ok := obj[field]; !ok || v == nil {
				return fieldError(joinPath(path, field), "missing required argument")
			}
		}
		for key, child := range obj {
			prop, ok := schema.Properties[key]
			if !ok || child == nil {
				continue
			}
			if err := validateValue(child, prop, joinPath(path, key)); err != nil {
				return err
			}
		}
	case "array":
		rv := reflect.ValueOf(value)
		if schema.MinItems != nil && rv.Len() < *schema.MinItems {
			return fieldError(path, fmt.Sprintf("expected at least %d items but got %d", *schema.MinItems, rv.Len()))
		}
		for i := 0; i < rv.Len(); i++ {
			if err := validateValue(rv.Index(i).Interface(), schema.Items, path+"["+strconv.Itoa(i)+"]"); err != nil {
				return err
			}
		}
	}

	return nil
}

func checkType(value any, expected string) error {
	ok := true
	switch expected {
	case "object":
		_, ok = value.(map[string]any)
	case "array":
		ok = value != nil && reflect.TypeOf(value).Kind() == reflect.Slice
	case "string":
		_, ok = value.(string)
	case "boolean":
		_, ok = value.(bool)
	case "number":
		_, ok = toFloat64(value)
	case "integer":
		num, isNum := toFloat64(value)
		ok = isNum && num == math.Trunc(num)
	}
	if !ok {
		return fmt.Errorf("expected %s but got %s", expected, describe(value))
	}
	return nil
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func describe(value any) string {
	if value == nil {
		return "null"
	}
	return fmt.Sprintf("%T", value)
}

func joinPath(base, field string) string {
	if base == "" {
		return field
	}
	return base + "." + field
}

func fieldError(path, reason string) *ArgumentValidationError {
	return &ArgumentValidationError{Field: path, Reason: reason}
}

// withDefaults returns a copy of args with absent top-level properties set to
// their schema default.
func withDefaults(schema *JSONSchema, args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	if schema == nil {
		return out
	}
	for name, prop := range schema.Properties {
		if _, ok := out[name]; !ok && prop.Default != nil {
			out[name] = prop.Default
		}
	}
	return out
}
