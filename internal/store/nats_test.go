// SPDX-License-Identifier: GPL-3.0-only

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNATS_SetValue_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// With a canceled context the write must be rejected before the
	// key-value bucket is touched.
	s := &NATS{}
	err := s.SetValue(ctx, "devices/gamepad/connected", Bool(true))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNATS_RegisterNode_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &NATS{}
	err := s.RegisterNode(ctx, "devices/gamepad/dpad", String("neutral"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNATS_Close_WithoutConnection(t *testing.T) {
	s := &NATS{}
	assert.NoError(t, s.Close())
	// Closing twice is safe
	assert.NoError(t, s.Close())
}
