package ble

import (
	"errors"
	"sync"
)

// FakeCentral is a test double that replays scripted advertisements and
// hands out a scripted peripheral.
type FakeCentral struct {
	mu sync.Mutex

	// Advertisements are delivered, in order, to the Scan callback.
	Advertisements []Advertisement

	// Peripheral is returned by Connect.
	Peripheral *FakePeripheral

	// EnableError, ScanError and ConnectError, if set, are returned by
	// the corresponding calls.
	EnableError  error
	ScanError    error
	ConnectError error

	// Enabled and ScanStopped track calls for assertions.
	Enabled     bool
	ScanStopped bool

	// ConnectedTo records the advertisement passed to Connect.
	ConnectedTo *Advertisement

	stopScan chan struct{}
	scanning bool
}

// NewFakeCentral creates a FakeCentral with the given scripted advertisements.
func NewFakeCentral(advs ...Advertisement) *FakeCentral {
	return &FakeCentral{
		Advertisements: advs,
		Peripheral:     NewFakePeripheral(),
	}
}

// Enable marks the adapter as powered on.
func (c *FakeCentral) Enable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.EnableError != nil {
		return c.EnableError
	}
	c.Enabled = true
	return nil
}

// Scan replays the scripted advertisements, then blocks until StopScan.
func (c *FakeCentral) Scan(callback func(Advertisement)) error {
	c.mu.Lock()
	if c.ScanError != nil {
		err := c.ScanError
		c.mu.Unlock()
		return err
	}
	if c.scanning {
		c.mu.Unlock()
		return errors.New("already scanning")
	}
	c.scanning = true
	c.stopScan = make(chan struct{})
	stop := c.stopScan
	advs := c.Advertisements
	c.mu.Unlock()

	for _, adv := range advs {
		select {
		case <-stop:
			return nil
		default:
		}
		callback(adv)
	}

	<-stop
	return nil
}

// StopScan unblocks a pending Scan.
func (c *FakeCentral) StopScan() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.scanning {
		return errors.New("not scanning")
	}
	c.scanning = false
	c.ScanStopped = true
	close(c.stopScan)
	return nil
}

// Connect records the target and returns the scripted peripheral.
func (c *FakeCentral) Connect(adv Advertisement) (Peripheral, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ConnectError != nil {
		return nil, c.ConnectError
	}
	copied := adv
	c.ConnectedTo = &copied
	return c.Peripheral, nil
}

// FakePeripheral captures the notification callback so tests can push
// payloads through it.
type FakePeripheral struct {
	mu sync.Mutex

	// SubscribeError, if set, will be returned by Subscribe.
	SubscribeError error

	// DisconnectError, if set, will be returned by Disconnect.
	DisconnectError error

	// Disconnected tracks if Disconnect was called.
	Disconnected bool

	notify func([]byte)
}

// NewFakePeripheral creates a FakePeripheral for testing.
func NewFakePeripheral() *FakePeripheral {
	return &FakePeripheral{}
}

// Subscribe captures the notification callback.
func (p *FakePeripheral) Subscribe(notify func(payload []byte)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SubscribeError != nil {
		return p.SubscribeError
	}
	p.notify = notify
	return nil
}

// Disconnect marks the peripheral as disconnected.
func (p *FakePeripheral) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Disconnected = true
	return p.DisconnectError
}

// Notify pushes one raw payload through the captured callback, as if the
// device sent a notification. Panics if Subscribe was never called.
func (p *FakePeripheral) Notify(payload []byte) {
	p.mu.Lock()
	notify := p.notify
	p.mu.Unlock()
	if notify == nil {
		panic("ble: Notify called before Subscribe")
	}
	notify(payload)
}
