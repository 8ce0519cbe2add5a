package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is a flat content record keyed by field slug. Nested payloads (asset
// records, denormalized foreign-key values) are themselves Records.
type Record map[string]any

// Get returns the value stored under key. Dotted keys walk nested records.
func (r Record) Get(key string) (any, bool) {
	if r == nil || key == "" {
		return nil, false
	}
	if value, ok := r[key]; ok {
		return value, true
	}
	head, rest, found := strings.Cut(key, ".")
	if !found {
		return nil, false
	}
	nested, ok := AsRecord(r[head])
	if !ok {
		return nil, false
	}
	return nested.Get(rest)
}

// String returns the value under key formatted as a string, or "" when it is
// absent or nil.
func (r Record) String(key string) string {
	value, ok := r.Get(key)
	if !ok {
		return ""
	}
	return FormatID(value)
}

// ID returns the record identifier as a string, or "" for a nil record or a
// record without an id.
func (r Record) ID() string {
	if r == nil {
		return ""
	}
	return r.String("id")
}

// Path returns the asset path of the record.
func (r Record) Path() string {
	return r.String("path")
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// AsRecord converts decoded JSON objects into a Record.
func AsRecord(value any) (Record, bool) {
	switch typed := value.(type) {
	case Record:
		return typed, typed != nil
	case map[string]any:
		return Record(typed), typed != nil
	default:
		return nil, false
	}
}

// FormatID renders identifiers consistently regardless of whether they were
// decoded from JSON (float64), built in code (int) or read from the DOM
// (string). Integral floats drop their fraction.
func FormatID(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		if typed == math.Trunc(typed) && typed >= -(1<<63) && typed < 1<<63 {
			return strconv.FormatInt(int64(typed), 10)
		}
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return FormatID(float64(typed))
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case int32:
		return strconv.FormatInt(int64(typed), 10)
	case uint:
		return strconv.FormatUint(uint64(typed), 10)
	case uint64:
		return strconv.FormatUint(typed, 10)
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}
