package printer

import (
	"context"

	"go.uber.org/zap"
)

// Enumerator lists printers
type Enumerator interface {
	Enumerate(ctx context.Context) ([]Descriptor, error)
}

// Discovery merges the spooler's queues with optional bus scans
type Discovery struct {
	system     Enumerator
	scanUSB    bool
	scanSerial bool
	logger     *zap.Logger

	// replaced in tests
	usbScan    func() ([]usbDevice, error)
	serialScan func() []string
}

// NewDiscovery creates a discovery over system. USB and serial scans add raw
// printers named usb:VID:PID and serial:<device>.
func NewDiscovery(system Enumerator, scanUSBBus, scanSerialPorts bool, logger *zap.Logger) *Discovery {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discovery{
		system:     system,
		scanUSB:    scanUSBBus,
		scanSerial: scanSerialPorts,
		logger:     logger.Named("discovery"),
		usbScan:    scanUSB,
		serialScan: scanSerial,
	}
}

// Enumerate lists every printer found. It fails only when the spooler query
// fails and the scans found nothing either.
func (d *Discovery) Enumerate(ctx context.Context) ([]Descriptor, error) {
	printers, sysErr := d.system.Enumerate(ctx)
	seen := make(map[string]bool, len(printers))
	for _, p := range printers {
		seen[p.Name] = true
	}
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			printers = append(printers, Descriptor{Name: name})
		}
	}

	if d.scanUSB {
		devices, err := d.usbScan()
		if err != nil {
			d.logger.Warn("USB scan failed", zap.Error(err))
		}
		for _, dev := range devices {
			d.logger.Debug("USB printer found", zap.String("description", dev.Description))
			add(usbName(dev.VID, dev.PID))
		}
	}

	if d.scanSerial {
		for _, port := range d.serialScan() {
			add(serialName(port))
		}
	}

	if sysErr != nil {
		if len(printers) == 0 {
			return nil, sysErr
		}
		d.logger.Warn("spooler query failed, using scanned printers only", zap.Error(sysErr))
	}
	if printers == nil {
		printers = []Descriptor{}
	}
	return printers, nil
}
