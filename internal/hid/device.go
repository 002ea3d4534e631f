// Package hid provides abstractions for interacting with the gamepad's USB
// HID transport.
package hid

//go:generate mockgen -source=device.go -destination=mocks/device_mock.go -package=mocks

// DeviceInfo contains information about a HID device.
type DeviceInfo struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
	Serial       string
	Manufacturer string
	Product      string
	Interface    int
}

// Device represents an interface for HID device operations.
// This interface allows for mocking in tests.
type Device interface {
	// Read reads the next input report from the device's interrupt
	// endpoint, blocking until a report arrives.
	Read(data []byte) (int, error)

	// Close closes the device handle.
	Close() error

	// Info returns information about the device.
	Info() DeviceInfo
}

// DeviceOpener is a function type that opens a HID device.
type DeviceOpener func(vendorID, productID uint16) (Device, error)
