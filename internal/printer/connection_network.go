package printer

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"
)

const networkDialTimeout = 5 * time.Second

// NetworkConnection is a raw TCP link to a printer, usually on port 9100
type NetworkConnection struct {
	conn net.Conn
	mu   sync.Mutex
}

// ConnectNetwork dials address. The dial gives up after a few seconds or when
// ctx ends, whichever comes first.
func ConnectNetwork(ctx context.Context, address string) (*NetworkConnection, error) {
	dialer := net.Dialer{Timeout: networkDialTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to network printer %s: %w", address, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
	}

	return &NetworkConnection{
		conn: conn,
	}, nil
}

// Write sends data to the network printer
func (c *NetworkConnection) Write(data []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn.Write(data)
}

// Close closes the network connection
func (c *NetworkConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return c.conn.Close()
	}

	return nil
}
