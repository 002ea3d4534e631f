package hid

import (
	"errors"
	"fmt"

	karalabehid "github.com/karalabe/hid"
)

const (
	// LogitechVendorID is the USB vendor ID for Logitech.
	LogitechVendorID uint16 = 0x046d

	// F310ProductID is the USB product ID for the Logitech F310 gamepad.
	F310ProductID uint16 = 0xc216
)

// ErrDeviceNotFound is returned when no matching gamepad is connected.
var ErrDeviceNotFound = errors.New("gamepad not found")

// HIDAPIDevice wraps a karalabe/hid device to implement the Device interface.
type HIDAPIDevice struct {
	device karalabehid.Device // karalabe/hid.Device is an interface
	info   DeviceInfo
}

// Verify HIDAPIDevice implements Device interface.
var _ Device = (*HIDAPIDevice)(nil)

// NewHIDAPIDevice creates a new HIDAPIDevice from an open hid.Device.
func NewHIDAPIDevice(device karalabehid.Device, info DeviceInfo) *HIDAPIDevice {
	return &HIDAPIDevice{
		device: device,
		info:   info,
	}
}

// Read reads the next input report from the device.
func (d *HIDAPIDevice) Read(data []byte) (int, error) {
	return d.device.Read(data)
}

// Close closes the device handle.
func (d *HIDAPIDevice) Close() error {
	return d.device.Close()
}

// Info returns information about the device.
func (d *HIDAPIDevice) Info() DeviceInfo {
	return d.info
}

// EnumerateGamepads returns a list of all connected gamepads matching the
// vendor and product ID. Returns an error if device enumeration fails.
func EnumerateGamepads(vendorID, productID uint16) ([]DeviceInfo, error) {
	var gamepads []DeviceInfo

	devices, err := karalabehid.Enumerate(vendorID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate HID devices: %w", err)
	}

	for _, device := range devices {
		gamepads = append(gamepads, DeviceInfo{
			Path:         device.Path,
			VendorID:     device.VendorID,
			ProductID:    device.ProductID,
			Serial:       device.Serial,
			Manufacturer: device.Manufacturer,
			Product:      device.Product,
			Interface:    device.Interface,
		})
	}

	return gamepads, nil
}

// OpenGamepad opens the first connected gamepad matching the vendor and
// product ID.
func OpenGamepad(vendorID, productID uint16) (*HIDAPIDevice, error) {
	devices, err := karalabehid.Enumerate(vendorID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	for _, deviceInfo := range devices {
		device, err := deviceInfo.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open gamepad %s: %w", deviceInfo.Path, err)
		}

		info := DeviceInfo{
			Path:         deviceInfo.Path,
			VendorID:     deviceInfo.VendorID,
			ProductID:    deviceInfo.ProductID,
			Serial:       deviceInfo.Serial,
			Manufacturer: deviceInfo.Manufacturer,
			Product:      deviceInfo.Product,
			Interface:    deviceInfo.Interface,
		}

		return NewHIDAPIDevice(device, info), nil
	}

	return nil, fmt.Errorf("%w: %04x:%04x", ErrDeviceNotFound, vendorID, productID)
}
