package hid

import (
	"fmt"
	"sync"
)

// Gamepad represents an open gamepad device handle.
type Gamepad struct {
	device Device
	mu     sync.Mutex
	closed bool
}

// NewGamepad creates a new Gamepad instance wrapping the given HID device.
func NewGamepad(device Device) *Gamepad {
	return &Gamepad{device: device}
}

// ErrGamepadClosed is returned when an operation is attempted on a closed gamepad.
var ErrGamepadClosed = fmt.Errorf("gamepad is closed")

// ReadReport reads the next raw input report into data. The call blocks
// until a report arrives, so the closed check happens before the read and
// Close is the way to interrupt a pending read.
func (g *Gamepad) ReadReport(data []byte) (int, error) {
	g.mu.Lock()
	closed := g.closed
	g.mu.Unlock()

	if closed {
		return 0, ErrGamepadClosed
	}

	n, err := g.device.Read(data)
	if err != nil {
		return 0, fmt.Errorf("failed to read input report: %w", err)
	}
	return n, nil
}

// Serial returns the serial number of the gamepad.
// This method does not require locking as device info is immutable.
func (g *Gamepad) Serial() string {
	return g.device.Info().Serial
}

// ProductName returns the product name of the gamepad.
// This method does not require locking as device info is immutable.
func (g *Gamepad) ProductName() string {
	return g.device.Info().Product
}

// Info returns information about the underlying device.
func (g *Gamepad) Info() DeviceInfo {
	return g.device.Info()
}

// Close closes the underlying HID device. Closing also unblocks a pending
// ReadReport.
func (g *Gamepad) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil // Already closed
	}

	g.closed = true
	return g.device.Close()
}
