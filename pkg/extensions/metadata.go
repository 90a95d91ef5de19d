// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

import "time"

// Metadata carries the variable part of audit events and auth claims:
// alignment endpoints, identity-provider attributes, request correlation
// ids. A defined type instead of a bare map so signatures say what the
// values are for and access can be type-checked.
//
// Common keys: "request_id", "source_id", "target_id", "department",
// "mfa_verified", "duration_ms".
//
// # Thread Safety
//
// Not thread-safe. Build a Metadata on one goroutine, then treat it as
// read-only.
type Metadata map[string]any

// NewMetadata creates an empty Metadata ready for chained Set calls.
func NewMetadata() Metadata {
	return make(Metadata)
}

// Set adds or replaces a key and returns the map for chaining.
func (m Metadata) Set(key string, value any) Metadata {
	m[key] = value
	return m
}

// Get returns the raw value and whether the key exists.
func (m Metadata) Get(key string) (any, bool) {
	value, ok := m[key]
	return value, ok
}

// typedGet reports ok only when the key exists and holds exactly T.
func typedGet[T any](m Metadata, key string) (T, bool) {
	var zero T
	value, ok := m[key]
	if !ok {
		return zero, false
	}
	typed, ok := value.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// GetString returns the value when it is a string.
func (m Metadata) GetString(key string) (string, bool) {
	return typedGet[string](m, key)
}

// GetInt returns the value when it is an int.
func (m Metadata) GetInt(key string) (int, bool) {
	return typedGet[int](m, key)
}

// GetInt64 returns the value when it is an int64.
func (m Metadata) GetInt64(key string) (int64, bool) {
	return typedGet[int64](m, key)
}

// GetFloat64 returns the value when it is a float64.
func (m Metadata) GetFloat64(key string) (float64, bool) {
	return typedGet[float64](m, key)
}

// GetBool returns the value when it is a bool.
func (m Metadata) GetBool(key string) (bool, bool) {
	return typedGet[bool](m, key)
}

// GetTime returns the value when it is a time.Time.
func (m Metadata) GetTime(key string) (time.Time, bool) {
	return typedGet[time.Time](m, key)
}

// Has reports whether the key exists, regardless of its value.
func (m Metadata) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// Delete removes a key. Missing keys are a no-op.
func (m Metadata) Delete(key string) Metadata {
	delete(m, key)
	return m
}

// Clone returns a shallow copy: keys are independent, pointer values are
// shared.
func (m Metadata) Clone() Metadata {
	clone := make(Metadata, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}

// Merge copies every entry of other into m, overwriting existing keys.
// A nil other is a no-op.
func (m Metadata) Merge(other Metadata) Metadata {
	for k, v := range other {
		m[k] = v
	}
	return m
}

// Keys returns the key set in unspecified order.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of entries.
func (m Metadata) Len() int {
	return len(m)
}
