package craby

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Nullable is a value that is either present or absent.
// The zero value is absent.
type Nullable[T any] struct {
	val     T
	present bool
}

// Some returns a present Nullable holding v.
func Some[T any](v T) Nullable[T] {
	return Nullable[T]{val: v, present: true}
}

// None returns an absent Nullable.
func None[T any]() Nullable[T] {
	return Nullable[T]{}
}

// IsPresent reports whether n holds a value.
func (n Nullable[T]) IsPresent() bool { return n.present }

// Unwrap returns the held value. It panics when n is absent: reading an
// absent value without a fallback is a programming error.
func (n Nullable[T]) Unwrap() T {
	if !n.present {
		var zero T
		panic(fmt.Sprintf("craby: Unwrap of absent Nullable[%T]", zero))
	}
	return n.val
}

// UnwrapOr returns the held value, or fallback when n is absent.
func (n Nullable[T]) UnwrapOr(fallback T) T {
	if !n.present {
		return fallback
	}
	return n.val
}

// Get returns the held value and whether it is present.
func (n Nullable[T]) Get() (T, bool) { return n.val, n.present }

func (n Nullable[T]) String() string {
	if !n.present {
		return "null"
	}
	return fmt.Sprint(n.val)
}

// MarshalJSON encodes an absent value as null.
func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.present {
		return []byte("null"), nil
	}
	return json.Marshal(n.val)
}

// UnmarshalJSON decodes null as absent.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*n = Nullable[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Some(v)
	return nil
}

// boundary exposes any Nullable instantiation to the marshaler.
func (n Nullable[T]) boundary() (any, bool) {
	if !n.present {
		return nil, false
	}
	return n.val, true
}

type nullable interface {
	boundary() (any, bool)
}
