package web

import (
	"net/url"
	"strconv"
)

// The form helpers mirror browser submission semantics: a field that is
// present but empty still counts as submitted, so fallbacks apply only
// when the field is missing entirely. Unparseable numbers fall back on
// insert and are skipped on update.

func formString(form url.Values, name, fallback string) string {
	if form.Has(name) {
		return form.Get(name)
	}
	return fallback
}

func formStringPtr(form url.Values, name string) *string {
	if !form.Has(name) {
		return nil
	}
	value := form.Get(name)
	return &value
}

func formInt64(form url.Values, name string, fallback int64) int64 {
	if !form.Has(name) {
		return fallback
	}
	value, err := strconv.ParseInt(form.Get(name), 10, 64)
	if err != nil {
		return fallback
	}
	return value
}

func formInt64Ptr(form url.Values, name string) *int64 {
	if !form.Has(name) {
		return nil
	}
	value, err := strconv.ParseInt(form.Get(name), 10, 64)
	if err != nil {
		return nil
	}
	return &value
}

func formFloat(form url.Values, name string, fallback float64) float64 {
	if !form.Has(name) {
		return fallback
	}
	value, err := strconv.ParseFloat(form.Get(name), 64)
	if err != nil {
		return fallback
	}
	return value
}

func formFloatPtr(form url.Values, name string) *float64 {
	if !form.Has(name) {
		return nil
	}
	value, err := strconv.ParseFloat(form.Get(name), 64)
	if err != nil {
		return nil
	}
	return &value
}

// intValue coerces a scanned row cell to int64 for selector matching.
func intValue(v interface{}) int64 {
	switch value := v.(type) {
	case int64:
		return value
	case int32:
		return int64(value)
	case int:
		return int64(value)
	case float64:
		return int64(value)
	case []byte:
		parsed, _ := strconv.ParseInt(string(value), 10, 64)
		return parsed
	case string:
		parsed, _ := strconv.ParseInt(value, 10, 64)
		return parsed
	default:
		return 0
	}
}
