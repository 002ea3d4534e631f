// SPDX-License-Identifier: GPL-3.0-only

// Package dbus provides the D-Bus status surface of the gamepad bridge.
package dbus

import (
	"errors"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/hwbridge/gamepad-bridge/internal/hid"
	"github.com/hwbridge/gamepad-bridge/internal/report"
)

// ErrNotConnected is returned when no gamepad is attached.
var ErrNotConnected = errors.New("gamepad not connected")

// ErrNoState is returned before the first report has been decoded.
var ErrNoState = errors.New("no state available yet")

// ErrRateLimitExceeded is returned when state queries exceed the rate limit.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

const (
	// rateLimitPerSecond is the maximum number of state queries per second.
	rateLimitPerSecond = 20

	// rateLimitBurst is the maximum burst size for state queries.
	rateLimitBurst = 5
)

const (
	// ServiceName is the D-Bus service name.
	ServiceName = "io.github.hwbridge.GamepadBridge"

	// ObjectPath is the D-Bus object path.
	ObjectPath = "/io/github/hwbridge/GamepadBridge"

	// InterfaceName is the D-Bus interface name.
	InterfaceName = "io.github.hwbridge.GamepadBridge"
)

// IntrospectXML is the D-Bus introspection XML for the service.
const IntrospectXML = `
<node name="` + ObjectPath + `">
  <interface name="` + InterfaceName + `">
    <method name="Status">
      <arg name="connected" type="b" direction="out"/>
      <arg name="product" type="s" direction="out"/>
      <arg name="serial" type="s" direction="out"/>
    </method>
    <method name="GetState">
      <arg name="state" type="(ddddddass)" direction="out"/>
    </method>
    <signal name="DeviceConnected">
      <arg name="product" type="s"/>
      <arg name="serial" type="s"/>
    </signal>
    <signal name="DeviceDisconnected"/>
  </interface>
  ` + introspect.IntrospectDataString + `
</node>
`

// StateSource is the bridge-side view the server reads from.
// This allows for mocking in tests.
type StateSource interface {
	// Connected reports whether a gamepad is currently attached.
	Connected() bool

	// Info returns information about the attached gamepad.
	Info() hid.DeviceInfo

	// State returns the most recently published state; the second return
	// is false until the first report has been decoded.
	State() (report.State, bool)
}

// StateInfo is the controller state as returned via D-Bus.
// Serializes to D-Bus type (ddddddass).
type StateInfo struct {
	LeftStickX   float64
	LeftStickY   float64
	RightStickX  float64
	RightStickY  float64
	LeftTrigger  float64
	RightTrigger float64
	Buttons      []string
	DPad         string
}

// Server implements the D-Bus status service.
//
// Thread safety: the StateSource is thread-safe on the bridge side; the
// connMu mutex protects the D-Bus connection field for signal emission.
type Server struct {
	conn        *dbus.Conn
	connMu      sync.RWMutex // Protects conn field only
	source      StateSource
	rateLimiter *rate.Limiter
}

// NewServer creates a new D-Bus server reading from the given source.
func NewServer(source StateSource) *Server {
	return &Server{
		source:      source,
		rateLimiter: rate.NewLimiter(rateLimitPerSecond, rateLimitBurst),
	}
}

// Start connects to the session bus and exports the service.
func (s *Server) Start() error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	// Ensure connection is closed if setup fails
	success := false
	defer func() {
		if !success {
			if closeErr := conn.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("Failed to close D-Bus connection during cleanup")
			}
		}
	}()

	// Export the server object
	err = conn.Export(s, ObjectPath, InterfaceName)
	if err != nil {
		return fmt.Errorf("failed to export server: %w", err)
	}

	// Export introspectable interface
	err = conn.Export(introspect.Introspectable(IntrospectXML), ObjectPath, "org.freedesktop.DBus.Introspectable")
	if err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	// Request the service name
	reply, err := conn.RequestName(ServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("name %s already taken", ServiceName)
	}

	// Store connection with mutex protection
	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	success = true
	log.Info().Str("service", ServiceName).Msg("D-Bus service started")
	return nil
}

// Stop disconnects from the session bus.
func (s *Server) Stop() error {
	s.connMu.Lock()
	conn := s.conn
	s.conn = nil
	s.connMu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// Status returns the connection status and identity of the gamepad.
func (s *Server) Status() (bool, string, string, *dbus.Error) {
	connected := s.source.Connected()
	info := s.source.Info()

	log.Debug().Bool("connected", connected).Msg("Status queried")
	return connected, info.Product, info.Serial, nil
}

// GetState returns the most recently published controller state.
func (s *Server) GetState() (StateInfo, *dbus.Error) {
	if !s.rateLimiter.Allow() {
		log.Warn().Msg("Rate limit exceeded for GetState")
		return StateInfo{}, dbus.MakeFailedError(ErrRateLimitExceeded)
	}

	if !s.source.Connected() {
		return StateInfo{}, dbus.MakeFailedError(ErrNotConnected)
	}

	state, ok := s.source.State()
	if !ok {
		return StateInfo{}, dbus.MakeFailedError(ErrNoState)
	}

	return StateInfo{
		LeftStickX:   state.LeftStickX,
		LeftStickY:   state.LeftStickY,
		RightStickX:  state.RightStickX,
		RightStickY:  state.RightStickY,
		LeftTrigger:  state.LeftTrigger,
		RightTrigger: state.RightTrigger,
		Buttons:      state.PressedNames(),
		DPad:         state.DPad.String(),
	}, nil
}

// EmitDeviceConnected emits the DeviceConnected signal.
func (s *Server) EmitDeviceConnected(product, serial string) {
	s.connMu.RLock()
	conn := s.conn
	s.connMu.RUnlock()

	if conn == nil {
		return
	}

	err := conn.Emit(ObjectPath, InterfaceName+".DeviceConnected", product, serial)
	if err != nil {
		log.Error().Err(err).Msg("Failed to emit DeviceConnected signal")
	}
	log.Info().Str("product", product).Str("serial", serial).Msg("Device connected")
}

// EmitDeviceDisconnected emits the DeviceDisconnected signal.
func (s *Server) EmitDeviceDisconnected() {
	s.connMu.RLock()
	conn := s.conn
	s.connMu.RUnlock()

	if conn == nil {
		return
	}

	err := conn.Emit(ObjectPath, InterfaceName+".DeviceDisconnected")
	if err != nil {
		log.Error().Err(err).Msg("Failed to emit DeviceDisconnected signal")
	}
	log.Info().Msg("Device disconnected")
}
