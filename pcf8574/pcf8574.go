// Package pcf8574 is a driver for the PCF8574 I2C GPIO expander, as found on the common "I2C backpack" boards that
// drive HD44780 character LCDs.
//
// This expander is somewhat limited: each pin can be set to either high (with a weak pullup) or low (grounded). There
// are no registers: every write replaces the state of all eight pins at once, which is how an LCD backpack is driven.
// The driver remembers the last byte written so callers can re-send it (for example to change a single bit).
//
// The LCD backpack wiring is fixed: P0 is RS, P1 is R/W, P2 is EN, P3 switches the backlight and P4..P7 carry D4..D7.
// R/W is tied low by the driver, so the display can be written but never read back.
//
// Datasheet: https://cdn-learn.adafruit.com/assets/assets/000/113/910/original/pcf8574.pdf
package pcf8574

import (
	"fmt"

	"tinygo.org/x/drivers"
)

// DefaultAddress is the address of an LCD backpack with all three address straps (A0..A2) pulled high. A bare chip
// with the straps grounded answers on BaseAddress.
const (
	DefaultAddress = 0x27
	BaseAddress    = 0x20
)

type Device struct {
	bus  drivers.I2C
	addr uint16
	// last byte put on the pins
	state uint8
}

type Config struct {
	Address uint8
}

// BusError is returned when a write to the expander fails. A failed write aborts whatever sequence was in progress;
// the pins keep the last value that was successfully latched.
type BusError struct {
	Addr  uint8
	Value byte
	Err   error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("pcf8574: write %#02x to %#02x: %v", e.Value, e.Addr, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

// New creates a new driver on the specified preconfigured I2C bus. The datasheet claims a maximum speed of 100 kHz.
func New(bus drivers.I2C) *Device {
	return &Device{
		bus:  bus,
		addr: DefaultAddress,
		// power-on state: everything high
		state: 0xFF,
	}
}

func (d *Device) Configure(c Config) {
	if c.Address == 0 {
		c.Address = DefaultAddress
	}

	d.addr = uint16(c.Address)
}

// Address returns the 7-bit bus address the device writes to.
func (d *Device) Address() uint8 {
	return uint8(d.addr)
}

// Write puts b on the eight output pins in a single one-byte transaction.
func (d *Device) Write(b byte) error {
	buf := [1]byte{b}
	if err := d.bus.Tx(d.addr, buf[:], nil); err != nil {
		return &BusError{Addr: uint8(d.addr), Value: b, Err: err}
	}
	d.state = b
	return nil
}

// Send writes every byte of payload in one transaction. The chip latches each byte on the pins as it is acknowledged,
// so this is equivalent to calling Write for each byte, minus the per-transaction overhead.
func (d *Device) Send(payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	if err := d.bus.Tx(d.addr, payload, nil); err != nil {
		return &BusError{Addr: uint8(d.addr), Value: payload[0], Err: err}
	}
	d.state = payload[len(payload)-1]
	return nil
}

// State returns the last byte successfully written to the pins.
func (d *Device) State() uint8 {
	return d.state
}
