// SPDX-License-Identifier: GPL-3.0-only

package dbus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwbridge/gamepad-bridge/internal/hid"
	"github.com/hwbridge/gamepad-bridge/internal/report"
)

// mockStateSource implements StateSource for testing.
type mockStateSource struct {
	connected bool
	info      hid.DeviceInfo
	state     report.State
	hasState  bool
}

func (m *mockStateSource) Connected() bool {
	return m.connected
}

func (m *mockStateSource) Info() hid.DeviceInfo {
	return m.info
}

func (m *mockStateSource) State() (report.State, bool) {
	return m.state, m.hasState
}

func TestNewServer(t *testing.T) {
	source := &mockStateSource{}
	server := NewServer(source)
	assert.NotNil(t, server)
	assert.Equal(t, source, server.source)
}

func TestServer_Constants(t *testing.T) {
	assert.Equal(t, "io.github.hwbridge.GamepadBridge", ServiceName)
	assert.Equal(t, "/io/github/hwbridge/GamepadBridge", ObjectPath)
	assert.Equal(t, "io.github.hwbridge.GamepadBridge", InterfaceName)
}

func TestServer_Status(t *testing.T) {
	tests := []struct {
		name      string
		source    *mockStateSource
		connected bool
		product   string
		serial    string
	}{
		{
			name: "connected gamepad",
			source: &mockStateSource{
				connected: true,
				info:      hid.DeviceInfo{Serial: "GP001", Product: "Logitech Gamepad F310"},
			},
			connected: true,
			product:   "Logitech Gamepad F310",
			serial:    "GP001",
		},
		{
			name:      "no gamepad",
			source:    &mockStateSource{},
			connected: false,
			product:   "",
			serial:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := NewServer(tt.source)

			connected, product, serial, err := server.Status()
			require.Nil(t, err)
			assert.Equal(t, tt.connected, connected)
			assert.Equal(t, tt.product, product)
			assert.Equal(t, tt.serial, serial)
		})
	}
}

func TestServer_GetState(t *testing.T) {
	source := &mockStateSource{
		connected: true,
		info:      hid.DeviceInfo{Serial: "GP001", Product: "Logitech Gamepad F310"},
		state: report.State{
			LeftStickX:   0.5,
			LeftStickY:   -0.25,
			RightTrigger: 1.0,
			Buttons:      report.ButtonA | report.ButtonL1,
			DPad:         report.DPadNE,
		},
		hasState: true,
	}
	server := NewServer(source)

	state, err := server.GetState()
	require.Nil(t, err)
	assert.Equal(t, 0.5, state.LeftStickX)
	assert.Equal(t, -0.25, state.LeftStickY)
	assert.Equal(t, 0.0, state.RightStickX)
	assert.Equal(t, 1.0, state.RightTrigger)
	assert.Equal(t, []string{"a", "l1"}, state.Buttons)
	assert.Equal(t, "ne", state.DPad)
}

func TestServer_GetState_NotConnected(t *testing.T) {
	server := NewServer(&mockStateSource{})

	_, err := server.GetState()
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "gamepad not connected")
}

func TestServer_GetState_NoStateYet(t *testing.T) {
	// Connected but no report decoded yet
	server := NewServer(&mockStateSource{connected: true})

	_, err := server.GetState()
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "no state available yet")
}

func TestServer_GetState_RateLimiting(t *testing.T) {
	source := &mockStateSource{connected: true, hasState: true}
	server := NewServer(source)

	// Exhaust the burst limit (rateLimitBurst = 5)
	var rateLimitHit bool
	for i := 0; i < 20; i++ {
		_, err := server.GetState()
		if err != nil {
			rateLimitHit = true
			assert.Contains(t, err.Error(), "rate limit exceeded")
			break
		}
	}

	assert.True(t, rateLimitHit, "Rate limiter should have been triggered")
}

func TestServer_StopWithoutStart(t *testing.T) {
	server := NewServer(&mockStateSource{})
	assert.NoError(t, server.Stop())
}

func TestServer_EmitWithoutConn(t *testing.T) {
	server := NewServer(&mockStateSource{})

	// Without a connection the emitters must be no-ops
	assert.NotPanics(t, func() {
		server.EmitDeviceConnected("Logitech Gamepad F310", "GP001")
		server.EmitDeviceDisconnected()
	})
}

// TestServer_ConcurrentStopAndEmit tests that Stop and signal emission
// methods don't race when called concurrently.
func TestServer_ConcurrentStopAndEmit(t *testing.T) {
	server := NewServer(&mockStateSource{})
	// Note: conn is nil, but we're testing mutex protection, not actual D-Bus calls

	var wg sync.WaitGroup
	const numGoroutines = 50

	// Start goroutines that emit signals (conn is nil, so they return early)
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			server.EmitDeviceConnected("GP001", "Test Gamepad")
		}()
	}

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			server.EmitDeviceDisconnected()
		}()
	}

	// Concurrently call Stop
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = server.Stop()
		}()
	}

	wg.Wait()
	// If we get here without a race detector complaint, the test passes
}
