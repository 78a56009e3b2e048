package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Optional is a field of a partial update.
// Set is false when the field was absent; Null is true when it was an explicit null.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a present, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null returns a present Optional holding an explicit null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// UnmarshalJSON is only called for keys present in the payload, which is what makes Set meaningful.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// NullFieldError is returned when a non-nullable field is set to null.
type NullFieldError struct {
	Field string
}

func (e *NullFieldError) Error() string {
	return fmt.Sprintf("field %q cannot be null", e.Field)
}

// EventPatch lists the fields of an event update. Only fields with Set are applied.
type EventPatch struct {
	Title       Optional[string]
	Description Optional[string]
	Start       Optional[time.Time]
	End         Optional[time.Time]
	AllDay      Optional[bool]
	Location    Optional[string]
	RRule       Optional[string]
	Status      Optional[string]
}

// Validate rejects explicit nulls on fields that are not nullable.
func (p EventPatch) Validate() error {
	switch {
	case p.Title.Null:
		return &NullFieldError{Field: "title"}
	case p.Start.Null:
		return &NullFieldError{Field: "start_datetime"}
	case p.End.Null:
		return &NullFieldError{Field: "end_datetime"}
	case p.AllDay.Null:
		return &NullFieldError{Field: "all_day"}
	case p.Status.Null:
		return &NullFieldError{Field: "status"}
	}
	return nil
}

// Empty reports whether the patch carries no field at all.
func (p EventPatch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Start.Set && !p.End.Set &&
		!p.AllDay.Set && !p.Location.Set && !p.RRule.Set && !p.Status.Set
}

// Apply copies the present fields onto e. Call Validate first.
func (p EventPatch) Apply(e *Event) {
	if p.Title.Set {
		e.Title = p.Title.Value
	}
	if p.Description.Set {
		e.Description = nullable(p.Description)
	}
	if p.Start.Set {
		e.Start = p.Start.Value
	}
	if p.End.Set {
		e.End = p.End.Value
	}
	if p.AllDay.Set {
		e.AllDay = p.AllDay.Value
	}
	if p.Location.Set {
		e.Location = nullable(p.Location)
	}
	if p.RRule.Set {
		e.RRule = nullable(p.RRule)
	}
	if p.Status.Set {
		e.Status = p.Status.Value
	}
}

func nullable(o Optional[string]) *string {
	if o.Null {
		return nil
	}
	v := o.Value
	return &v
}
