// Package i2cdev exposes a Linux I2C adapter (/dev/i2c-N) as a drivers.I2C
// bus, so the device drivers in this module run unchanged on a Raspberry Pi
// or any other Linux board.
package i2cdev

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/exp/io/i2c"
	"golang.org/x/exp/io/i2c/driver"
)

// DefaultPath is the first I2C adapter on most boards.
const DefaultPath = "/dev/i2c-1"

// ErrClosed is returned by Tx after Close.
var ErrClosed = errors.New("i2cdev: bus closed")

// Bus is a drivers.I2C on top of a driver.Opener. A connection is opened for
// each 7-bit address on first use and kept until Close. Bus is safe for
// concurrent use; transactions are serialized.
type Bus struct {
	opener driver.Opener

	mu     sync.Mutex
	conns  map[uint16]driver.Conn
	closed bool
}

// Open returns a bus on the adapter at path. Nothing is opened until the
// first transaction.
func Open(path string) *Bus {
	if path == "" {
		path = DefaultPath
	}
	return New(&i2c.Devfs{Dev: path})
}

// New returns a bus on top of o.
func New(o driver.Opener) *Bus {
	return &Bus{opener: o, conns: make(map[uint16]driver.Conn)}
}

// Tx writes w and then reads into r in a single transaction with the device
// at addr. Either may be empty.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	conn, err := b.conn(addr)
	if err != nil {
		return err
	}
	if err := conn.Tx(w, r); err != nil {
		return fmt.Errorf("i2cdev: tx %#02x: %w", addr, err)
	}
	return nil
}

func (b *Bus) conn(addr uint16) (driver.Conn, error) {
	if b.closed {
		return nil, ErrClosed
	}
	if conn, ok := b.conns[addr]; ok {
		return conn, nil
	}
	if addr > 0x7F {
		return nil, fmt.Errorf("i2cdev: address %#x is not a 7-bit address", addr)
	}
	conn, err := b.opener.Open(int(addr), false)
	if err != nil {
		return nil, fmt.Errorf("i2cdev: open %#02x: %w", addr, err)
	}
	b.conns[addr] = conn
	return conn, nil
}

// Close closes every connection. The first error is returned but all
// connections are closed.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	var first error
	for addr, conn := range b.conns {
		if err := conn.Close(); err != nil && first == nil {
			first = fmt.Errorf("i2cdev: close %#02x: %w", addr, err)
		}
		delete(b.conns, addr)
	}
	return first
}
