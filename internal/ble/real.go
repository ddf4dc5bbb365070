package ble

import (
	"fmt"

	"tinygo.org/x/bluetooth"
)

// RealCentral drives the system Bluetooth adapter.
type RealCentral struct {
	adapter *bluetooth.Adapter
}

// NewRealCentral returns a central backed by the default adapter.
func NewRealCentral() *RealCentral {
	return &RealCentral{adapter: bluetooth.DefaultAdapter}
}

// Enable powers on the adapter.
func (c *RealCentral) Enable() error {
	if err := c.adapter.Enable(); err != nil {
		return fmt.Errorf("enable bluetooth adapter: %w", err)
	}
	return nil
}

// Scan delivers advertisements to the callback until StopScan.
func (c *RealCentral) Scan(callback func(Advertisement)) error {
	err := c.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
		var mfd []ManufacturerData
		for _, el := range result.ManufacturerData() {
			mfd = append(mfd, ManufacturerData{CompanyID: el.CompanyID, Data: el.Data})
		}
		callback(Advertisement{
			Name:                result.LocalName(),
			Address:             result.Address.String(),
			HasHeartRateService: result.HasServiceUUID(bluetooth.ServiceUUIDHeartRate),
			ManufacturerData:    mfd,
			mac:                 result.Address,
		})
	})
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	return nil
}

// StopScan stops an in-progress scan.
func (c *RealCentral) StopScan() error {
	if err := c.adapter.StopScan(); err != nil {
		return fmt.Errorf("stop scan: %w", err)
	}
	return nil
}

// Connect establishes a connection to the advertised device.
func (c *RealCentral) Connect(adv Advertisement) (Peripheral, error) {
	device, err := c.adapter.Connect(adv.mac, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", adv.Address, err)
	}
	return &realPeripheral{device: device}, nil
}

type realPeripheral struct {
	device bluetooth.Device
}

// Subscribe discovers the heart rate service and measurement characteristic
// and enables notifications.
func (p *realPeripheral) Subscribe(notify func(payload []byte)) error {
	services, err := p.device.DiscoverServices([]bluetooth.UUID{bluetooth.ServiceUUIDHeartRate})
	if err != nil {
		return fmt.Errorf("discover heart rate service: %w", err)
	}
	if len(services) == 0 {
		return fmt.Errorf("heart rate service not found")
	}

	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{bluetooth.CharacteristicUUIDHeartRateMeasurement})
	if err != nil {
		return fmt.Errorf("discover heart rate measurement characteristic: %w", err)
	}
	if len(chars) == 0 {
		return fmt.Errorf("heart rate measurement characteristic not found")
	}

	if err := chars[0].EnableNotifications(notify); err != nil {
		return fmt.Errorf("enable notifications: %w", err)
	}
	return nil
}

// Disconnect drops the connection.
func (p *realPeripheral) Disconnect() error {
	if err := p.device.Disconnect(); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}
