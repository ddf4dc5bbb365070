// Package ble provides BLE central access with hardware abstraction.
// The real implementation uses the system Bluetooth adapter; the fake
// allows testing the monitoring loop without hardware.
package ble

import "tinygo.org/x/bluetooth"

// ManufacturerData is one manufacturer-specific data element carried by an
// advertisement.
type ManufacturerData struct {
	CompanyID uint16
	Data      []byte
}

// Advertisement is one received advertisement, reduced to the fields the
// coordinator matches against.
type Advertisement struct {
	// Name is the advertised local name; may be empty.
	Name string

	// Address is the device address in canonical string form.
	Address string

	// HasHeartRateService reports whether the advertisement carries the
	// standard heart rate service UUID (0x180D).
	HasHeartRateService bool

	// ManufacturerData holds the manufacturer-specific elements, in
	// advertisement order. Fitness bands broadcast readings here.
	ManufacturerData []ManufacturerData

	// mac is the adapter-level address handle; set by the real central
	// and consumed by its Connect. Fakes leave it zero.
	mac bluetooth.Address
}

// Central abstracts the BLE adapter.
type Central interface {
	// Enable powers on the adapter. Blocks until the adapter reports
	// ready; there is no fixed timeout at this stage.
	Enable() error

	// Scan starts an active scan and delivers each advertisement to the
	// callback. It blocks until StopScan is called.
	Scan(callback func(Advertisement)) error

	// StopScan stops an in-progress scan.
	StopScan() error

	// Connect establishes a connection to the advertised device.
	Connect(adv Advertisement) (Peripheral, error)
}

// Peripheral is a connected heart rate device.
type Peripheral interface {
	// Subscribe discovers the heart rate service and measurement
	// characteristic and enables notifications, delivering each raw
	// payload to notify in arrival order. A missing service or
	// characteristic is an error.
	Subscribe(notify func(payload []byte)) error

	// Disconnect drops the connection.
	Disconnect() error
}
