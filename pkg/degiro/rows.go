package degiro

import (
	"encoding/json"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

// The trading endpoint encodes every entity as an array of name/value
// pairs instead of a plain object. rowDecoder collects the pairs of one
// entity and exposes typed, presence-checked accessors over them.
type rowField struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

type row struct {
	Value []rowField `json:"value"`
}

type rowDecoder struct {
	entity string
	fields map[string]json.RawMessage
}

func newRowDecoder(entity string, r row) *rowDecoder {
	fields := make(map[string]json.RawMessage, len(r.Value))
	for _, field := range r.Value {
		fields[field.Name] = field.Value
	}
	return &rowDecoder{entity: entity, fields: fields}
}

// str decodes a required string field.
func (d *rowDecoder) str(name string) (string, error) {
	raw, ok := d.fields[name]
	if !ok || string(raw) == "null" {
		return "", &trading.DecodeError{Entity: d.entity, Field: name}
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", &trading.DecodeError{Entity: d.entity, Field: name, Cause: err}
	}

	return value, nil
}

// f64 decodes a required numeric field.
func (d *rowDecoder) f64(name string) (float64, error) {
	raw, ok := d.fields[name]
	if !ok || string(raw) == "null" {
		return 0, &trading.DecodeError{Entity: d.entity, Field: name}
	}

	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, &trading.DecodeError{Entity: d.entity, Field: name, Cause: err}
	}

	return value, nil
}

// optF64 decodes an optional numeric field, falling back to zero.
func (d *rowDecoder) optF64(name string) float64 {
	raw, ok := d.fields[name]
	if !ok || string(raw) == "null" {
		return 0
	}

	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0
	}

	return value
}

// optStr decodes an optional string field, falling back to empty.
func (d *rowDecoder) optStr(name string) string {
	raw, ok := d.fields[name]
	if !ok || string(raw) == "null" {
		return ""
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}

	return value
}

// obj decodes a required object field into target.
func (d *rowDecoder) obj(name string, target interface{}) error {
	raw, ok := d.fields[name]
	if !ok || string(raw) == "null" {
		return &trading.DecodeError{Entity: d.entity, Field: name}
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return &trading.DecodeError{Entity: d.entity, Field: name, Cause: err}
	}

	return nil
}
