// SPDX-License-Identifier: GPL-3.0-only

// Package store abstracts the external data layer that exposes controller
// state as named, typed nodes to remote consumers.
package store

import (
	"context"
	"strconv"
)

//go:generate mockgen -source=store.go -destination=mocks/store_mock.go -package=mocks

// Kind is the value type tag of a node.
type Kind int

const (
	KindBool Kind = iota
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is a tagged variant carried by a node: a kind plus the matching
// payload. Using one variant type instead of per-kind node types keeps the
// publisher to a single codepath with a tag switch.
type Value struct {
	kind Kind
	b    bool
	f    float64
	s    string
}

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Float returns a floating-point value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Kind returns the value's type tag.
func (v Value) Kind() Kind { return v.kind }

// Encode renders the value as its canonical textual payload.
func (v Value) Encode() []byte {
	switch v.kind {
	case KindBool:
		return []byte(strconv.FormatBool(v.b))
	case KindFloat:
		return []byte(strconv.FormatFloat(v.f, 'g', -1, 64))
	default:
		return []byte(v.s)
	}
}

func (v Value) String() string {
	return string(v.Encode())
}

// Store is the data-layer collaborator. Node paths form a fixed hierarchy,
// e.g. "devices/gamepad/left-stick/x"; nodes are registered once at startup
// and mutated on each detected change.
type Store interface {
	// RegisterNode creates the node and sets its initial value.
	RegisterNode(ctx context.Context, path string, initial Value) error

	// SetValue writes a new value to an existing node.
	SetValue(ctx context.Context, path string, value Value) error

	// Close releases the connection to the data layer.
	Close() error
}
