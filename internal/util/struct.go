package util

import (
	"reflect"

	"github.com/pkg/errors"
)

// IsStructInitialized reports whether all fields of the given struct pointer
// are non-zero, skipping fields tagged `wire:"-"`. Used for readiness checks
// of dependency containers.
func IsStructInitialized(s interface{}) error {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return errors.Errorf("expected struct, got %s", v.Kind())
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("wire") == "-" {
			continue
		}
		if v.Field(i).IsZero() {
			return errors.Errorf("field %s.%s is not initialized", t.Name(), field.Name)
		}
	}
	return nil
}
