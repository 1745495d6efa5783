package configvalidator

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrUnknownField returns when an unknown field appears in the config.
var ErrUnknownField = errors.New("unknown field")

// CheckForUnknownFields checks that every key of the config map has a field
// with the same `mapstructure` tag in the config struct. Nested maps are
// checked against nested structs.
func CheckForUnknownFields(configMap map[string]any, config any) error {
	return checkForUnknownFields(configMap, reflect.TypeOf(config), "")
}

func checkForUnknownFields(configMap map[string]any, t reflect.Type, currentPath string) error {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	fields := fieldsByTag(t)

	for key, val := range configMap {
		fullPath := key
		if currentPath != "" {
			fullPath = currentPath + "." + key
		}

		field, ok := fields[key]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, fullPath)
		}

		nested, isMap := val.(map[string]any)
		isStruct := field.Type.Kind() == reflect.Struct

		switch {
		case isMap && isStruct:
			if err := checkForUnknownFields(nested, field.Type, fullPath); err != nil {
				return err
			}
		case isMap != isStruct:
			return fmt.Errorf("%w: %s", ErrUnknownField, fullPath)
		}
	}

	return nil
}

func fieldsByTag(t reflect.Type) map[string]reflect.StructField {
	fields := make(map[string]reflect.StructField, t.NumField())
	for i := range t.NumField() {
		field := t.Field(i)
		if tag := field.Tag.Get("mapstructure"); tag != "" {
			fields[tag] = field
		} else {
			fields[field.Name] = field
		}
	}
	return fields
}
