package printer

import (
	"fmt"

	"github.com/google/gousb"
)

// usbDevice is a USB printer found on the bus
type usbDevice struct {
	VID         uint16
	PID         uint16
	Description string
}

// isPrinterClass reports whether the device or any of its interfaces belongs
// to the USB printer class.
func isPrinterClass(desc *gousb.DeviceDesc) bool {
	if desc.Class == gousb.ClassPrinter {
		return true
	}
	for _, cfg := range desc.Configs {
		for _, iface := range cfg.Interfaces {
			for _, alt := range iface.AltSettings {
				if alt.Class == gousb.ClassPrinter {
					return true
				}
			}
		}
	}
	return false
}

// scanUSB lists printer-class devices. Only printers are opened, and only to
// read their names.
func scanUSB() ([]usbDevice, error) {
	ctx, err := newUSBContext()
	if err != nil {
		return nil, err
	}
	defer ctx.Close()

	devices, err := ctx.OpenDevices(isPrinterClass)
	// OpenDevices returns the devices it could open alongside the error
	defer func() {
		for _, dev := range devices {
			dev.Close()
		}
	}()
	if err != nil && len(devices) == 0 {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}

	found := make([]usbDevice, 0, len(devices))
	for _, dev := range devices {
		desc := dev.Desc

		manufacturer, _ := dev.Manufacturer()
		product, _ := dev.Product()

		description := fmt.Sprintf("USB: %04X:%04X", uint16(desc.Vendor), uint16(desc.Product))
		if manufacturer != "" || product != "" {
			description = fmt.Sprintf("USB: %s %s (%04X:%04X)",
				manufacturer, product, uint16(desc.Vendor), uint16(desc.Product))
		}

		found = append(found, usbDevice{
			VID:         uint16(desc.Vendor),
			PID:         uint16(desc.Product),
			Description: description,
		})
	}

	return found, nil
}
