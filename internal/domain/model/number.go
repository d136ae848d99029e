// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is an optional numeric value from an upstream payload.
// Valid is false when the field was absent, null, or not a number.
type Number struct {
	Value float64
	Valid bool
}

// Some returns a present Number.
func Some(v float64) Number {
	return Number{Value: v, Valid: true}
}

// Get returns the value and whether it is present.
func (n Number) Get() (float64, bool) {
	return n.Value, n.Valid
}

// Truthy reports whether the value is present and non-zero.
func (n Number) Truthy() bool {
	return n.Valid && n.Value != 0
}

// UnmarshalJSON accepts JSON numbers and numeric strings. Every other
// shape leaves the Number absent instead of failing the whole document.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	switch v := raw.(type) {
	case float64:
		*n = Some(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			*n = Some(f)
		}
	}
	return nil
}

// MarshalJSON writes absent values as null.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}
