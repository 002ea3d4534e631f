// SPDX-License-Identifier: GPL-3.0-only

package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hwbridge/gamepad-bridge/internal/store"
)

func TestValue_Encode(t *testing.T) {
	tests := []struct {
		name     string
		value    store.Value
		kind     store.Kind
		expected string
	}{
		{
			name:     "true encodes as text",
			value:    store.Bool(true),
			kind:     store.KindBool,
			expected: "true",
		},
		{
			name:     "false encodes as text",
			value:    store.Bool(false),
			kind:     store.KindBool,
			expected: "false",
		},
		{
			name:     "zero float",
			value:    store.Float(0),
			kind:     store.KindFloat,
			expected: "0",
		},
		{
			name:     "negative float keeps full precision",
			value:    store.Float(-0.5),
			kind:     store.KindFloat,
			expected: "-0.5",
		},
		{
			name:     "float one",
			value:    store.Float(1),
			kind:     store.KindFloat,
			expected: "1",
		},
		{
			name:     "string passes through",
			value:    store.String("neutral"),
			kind:     store.KindString,
			expected: "neutral",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.value.Kind())
			assert.Equal(t, tt.expected, string(tt.value.Encode()))
			assert.Equal(t, tt.expected, tt.value.String())
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "bool", store.KindBool.String())
	assert.Equal(t, "float", store.KindFloat.String())
	assert.Equal(t, "string", store.KindString.String())
	assert.Equal(t, "unknown", store.Kind(42).String())
}
