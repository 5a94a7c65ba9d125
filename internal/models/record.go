package models

import (
	"encoding/json"
	"strconv"
)

// RawRecord is one scraper item as decoded from the dataset. Its shape varies per source,
// so every read goes through the accessors below, which never panic on a missing or
// mistyped key.
type RawRecord map[string]interface{}

// AsRecord converts a decoded JSON object into a RawRecord; anything else yields nil.
func AsRecord(v interface{}) RawRecord {
	switch m := v.(type) {
	case RawRecord:
		return m
	case map[string]interface{}:
		return RawRecord(m)
	}
	return nil
}

// Get walks path through nested objects.
func (r RawRecord) Get(path ...string) (interface{}, bool) {
	var cur interface{} = r
	for _, key := range path {
		m := AsRecord(cur)
		if m == nil {
			return nil, false
		}
		v, ok := m[key]
		if !ok || v == nil {
			return nil, false
		}
		cur = v
	}
	return cur, cur != nil
}

// Text returns the value at path rendered as a string. Empty strings, zero numbers,
// booleans and composite values all come back as "".
func (r RawRecord) Text(path ...string) string {
	v, _ := r.Get(path...)
	return ToText(v)
}

// Map returns the object at path, or nil.
func (r RawRecord) Map(path ...string) RawRecord {
	v, _ := r.Get(path...)
	return AsRecord(v)
}

// List returns the array at path, or nil.
func (r RawRecord) List(path ...string) []interface{} {
	v, _ := r.Get(path...)
	if l, ok := v.([]interface{}); ok {
		return l
	}
	return nil
}

// Number returns the numeric value at path. Numeric strings are accepted.
func (r RawRecord) Number(path ...string) (float64, bool) {
	v, ok := r.Get(path...)
	if !ok {
		return 0, false
	}
	return ToNumber(v)
}

// Bool reports whether the value at path is literally true.
func (r RawRecord) Bool(path ...string) bool {
	v, _ := r.Get(path...)
	b, ok := v.(bool)
	return ok && b
}

// ToText renders scalar JSON values as text; see Text.
func ToText(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		if f, err := t.Float64(); err == nil && f == 0 {
			return ""
		}
		return t.String()
	case float64:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		if t == 0 {
			return ""
		}
		return strconv.Itoa(t)
	case int64:
		if t == 0 {
			return ""
		}
		return strconv.FormatInt(t, 10)
	}
	return ""
}

// ToNumber converts numbers and numeric strings to float64.
func ToNumber(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}

// FirstText returns the first non-empty Text among the given paths.
func (r RawRecord) FirstText(paths ...[]string) string {
	for _, p := range paths {
		if s := r.Text(p...); s != "" {
			return s
		}
	}
	return ""
}
