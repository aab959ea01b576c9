package printer

import (
	"fmt"
	"sync"
	"time"

	"github.com/tarm/serial"
)

// SerialConnection is a raw link to a printer on a serial port
type SerialConnection struct {
	port *serial.Port
	mu   sync.Mutex
}

// ConnectSerial opens device at baud.
func ConnectSerial(device string, baud int) (*SerialConnection, error) {
	if baud == 0 {
		baud = defaultBaud
	}

	config := &serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: time.Second,
	}

	port, err := serial.OpenPort(config)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", device, err)
	}

	return &SerialConnection{
		port: port,
	}, nil
}

// Write sends data to the serial printer
func (c *SerialConnection) Write(data []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, err := c.port.Write(data)
	if err != nil {
		return n, err
	}
	return n, c.port.Flush()
}

// Close closes the serial port
func (c *SerialConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.port != nil {
		return c.port.Close()
	}

	return nil
}
