package printer

import (
	"fmt"
	"sync"

	"github.com/google/gousb"
)

// USBConnection is a raw link to a printer's bulk OUT endpoint
type USBConnection struct {
	ctx      *gousb.Context
	device   *gousb.Device
	cfg      *gousb.Config
	iface    *gousb.Interface
	endpoint *gousb.OutEndpoint
	release  func() // closes iface and cfg when claimed through DefaultInterface
	mu       sync.Mutex
}

// newUSBContext opens libusb. gousb panics when libusb cannot initialise, so
// the panic is turned into an error.
func newUSBContext() (ctx *gousb.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			ctx, err = nil, fmt.Errorf("USB support unavailable: %v", r)
		}
	}()
	return gousb.NewContext(), nil
}

// ConnectUSB opens the first device matching vid:pid and claims the first
// interface that has an OUT endpoint.
func ConnectUSB(vid, pid uint16) (*USBConnection, error) {
	ctx, err := newUSBContext()
	if err != nil {
		return nil, err
	}

	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("failed to open USB device: %w", err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("device not found: %04X:%04X", vid, pid)
	}
	dev.SetAutoDetach(true)

	conn := &USBConnection{ctx: ctx, device: dev}

	// Most printers expose their bulk endpoint on the default interface
	iface, done, err := dev.DefaultInterface()
	if err == nil {
		if ep := findOutEndpoint(iface); ep != nil {
			conn.endpoint, conn.release = ep, done
			return conn, nil
		}
		done()
	}

	var lastErr error
	for num, cfgDesc := range dev.Desc.Configs {
		cfg, err := dev.Config(num)
		if err != nil {
			lastErr = fmt.Errorf("failed to set config %d: %w", num, err)
			continue
		}

		for _, ifaceDesc := range cfgDesc.Interfaces {
			iface, err := cfg.Interface(ifaceDesc.Number, 0)
			if err != nil {
				lastErr = fmt.Errorf("failed to claim interface %d: %w", ifaceDesc.Number, err)
				continue
			}
			if ep := findOutEndpoint(iface); ep != nil {
				conn.cfg, conn.iface, conn.endpoint = cfg, iface, ep
				return conn, nil
			}
			iface.Close()
		}
		cfg.Close()
	}

	conn.Close()
	if lastErr != nil {
		return nil, fmt.Errorf("failed to connect to USB printer: %w", lastErr)
	}
	return nil, fmt.Errorf("no OUT endpoint found on USB printer %04X:%04X", vid, pid)
}

func findOutEndpoint(iface *gousb.Interface) *gousb.OutEndpoint {
	for _, epDesc := range iface.Setting.Endpoints {
		if epDesc.Direction != gousb.EndpointDirectionOut {
			continue
		}
		if ep, err := iface.OutEndpoint(epDesc.Number); err == nil {
			return ep
		}
	}
	return nil
}

// Write sends data to the USB printer
func (c *USBConnection) Write(data []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.endpoint.Write(data)
}

// Close releases the interface, device and libusb context
func (c *USBConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.release != nil {
		c.release()
	}
	if c.iface != nil {
		c.iface.Close()
	}
	if c.cfg != nil {
		c.cfg.Close()
	}
	if c.device != nil {
		c.device.Close()
	}
	if c.ctx != nil {
		c.ctx.Close()
	}

	return nil
}
