// Package printer submits rendered receipts to printers and lists the printers
// the host can reach.
package printer

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
)

// Descriptor is one printer as reported to clients
type Descriptor struct {
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefault"`
}

// Kind is the transport a printer name resolves to
type Kind int

const (
	KindSpooler Kind = iota
	KindNetwork
	KindSerial
	KindUSB
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindSerial:
		return "serial"
	case KindUSB:
		return "usb"
	default:
		return "spooler"
	}
}

// Name prefixes that select a raw transport
const (
	prefixNetwork = "tcp://"
	prefixSerial  = "serial:"
	prefixUSB     = "usb:"

	defaultNetworkPort = "9100"
	defaultBaud        = 9600
)

// Target is a parsed printer name
type Target struct {
	Kind    Kind
	Name    string // spooler queue name, or the name as given
	Address string // host:port for network printers
	Device  string // serial device path
	Baud    int
	VID     uint16
	PID     uint16
}

// ParseTarget resolves a printer name to a transport. Names without a known
// prefix go to the OS spooler unchanged.
func ParseTarget(name string) (Target, error) {
	switch {
	case strings.HasPrefix(name, prefixNetwork):
		hostport := strings.TrimSuffix(strings.TrimPrefix(name, prefixNetwork), "/")
		if hostport == "" {
			return Target{}, fmt.Errorf("printer %q: missing host", name)
		}
		if _, _, err := net.SplitHostPort(hostport); err != nil {
			hostport = net.JoinHostPort(strings.Trim(hostport, "[]"), defaultNetworkPort)
		}
		return Target{Kind: KindNetwork, Name: name, Address: hostport}, nil

	case strings.HasPrefix(name, prefixSerial):
		device := strings.TrimPrefix(name, prefixSerial)
		baud := defaultBaud
		if i := strings.LastIndex(device, "@"); i >= 0 {
			b, err := strconv.Atoi(device[i+1:])
			if err != nil || b <= 0 {
				return Target{}, fmt.Errorf("printer %q: invalid baud rate", name)
			}
			device, baud = device[:i], b
		}
		if device == "" {
			return Target{}, fmt.Errorf("printer %q: missing device", name)
		}
		return Target{Kind: KindSerial, Name: name, Device: device, Baud: baud}, nil

	case strings.HasPrefix(name, prefixUSB):
		parts := strings.Split(strings.TrimPrefix(name, prefixUSB), ":")
		if len(parts) != 2 {
			return Target{}, fmt.Errorf("printer %q: expected usb:VID:PID", name)
		}
		vid, err := strconv.ParseUint(parts[0], 16, 16)
		if err != nil {
			return Target{}, fmt.Errorf("printer %q: invalid vendor id: %w", name, err)
		}
		pid, err := strconv.ParseUint(parts[1], 16, 16)
		if err != nil {
			return Target{}, fmt.Errorf("printer %q: invalid product id: %w", name, err)
		}
		return Target{Kind: KindUSB, Name: name, VID: uint16(vid), PID: uint16(pid)}, nil

	default:
		return Target{Kind: KindSpooler, Name: name}, nil
	}
}

// Connection is an open raw link to a printer
type Connection interface {
	io.Writer
	Close() error
}

// Connect opens a raw link to t. Spooler targets have no raw link.
func Connect(ctx context.Context, t Target) (Connection, error) {
	switch t.Kind {
	case KindNetwork:
		return ConnectNetwork(ctx, t.Address)
	case KindSerial:
		return ConnectSerial(t.Device, t.Baud)
	case KindUSB:
		return ConnectUSB(t.VID, t.PID)
	default:
		return nil, fmt.Errorf("printer %q is not a raw printer", t.Name)
	}
}

func usbName(vid, pid uint16) string {
	return fmt.Sprintf("%s%04x:%04x", prefixUSB, vid, pid)
}

func serialName(device string) string {
	return prefixSerial + device
}
