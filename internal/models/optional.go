package models

import (
	"bytes"
	"encoding/json"
	"time"
)

var jsonNull = []byte("null")

// OptionalTime distinguishes an absent JSON field from an explicit null.
// Set is false when the field was omitted; Set true with a nil Value means
// the caller is clearing the field.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, jsonNull) {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

func (o OptionalTime) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Value == nil {
		return jsonNull, nil
	}
	return json.Marshal(o.Value)
}

// OptionalString is the string counterpart of OptionalTime. An explicit
// null and an empty string both clear the field.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, jsonNull) {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

func (o OptionalString) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Value == nil {
		return jsonNull, nil
	}
	return json.Marshal(o.Value)
}

// SomeTime builds a present OptionalTime.
func SomeTime(t time.Time) OptionalTime {
	return OptionalTime{Set: true, Value: &t}
}

// SomeString builds a present OptionalString.
func SomeString(s string) OptionalString {
	return OptionalString{Set: true, Value: &s}
}
