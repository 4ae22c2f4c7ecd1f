// Package hd44780test provides an in-memory HD44780 controller sitting behind
// a PCF8574 backpack, for testing code that drives an LCD over I2C.
//
// Controller implements drivers.I2C. It decodes every expander byte written to
// it, latches nibbles on the falling edge of EN like the real chip does, and
// applies the resulting instructions to a DDRAM model. Tests can then inspect
// the raw bus traffic, the decoded instructions, or the visible text.
package hd44780test

import (
	"errors"
	"sync"
)

// Backpack pin layout, mirrored from the hd44780 package so the emulator does
// not depend on the code it tests.
const (
	pinRS = 0x01
	pinEN = 0x04
	pinBL = 0x08
)

const (
	ddramSize  = 0x80
	lineLength = 0x28
	row1Base   = 0x40
)

// ErrNack is returned by Tx for a wrong address or when failure injection
// triggers.
var ErrNack = errors.New("hd44780test: no acknowledge")

// Instruction is a value latched by the controller. In 8-bit mode (before the
// switch to 4-bit) only the upper four bits are meaningful.
type Instruction struct {
	Data  bool
	Value byte
}

type Controller struct {
	mu sync.Mutex

	addr uint8

	// FailAfter makes the n-th write from now on (1-based) fail with ErrNack.
	failAfter int
	failErr   error

	writes       []byte
	instructions []Instruction

	last     byte
	fourBit  bool
	pending  bool
	hi       byte
	ddram    [ddramSize]byte
	ac       uint8
	on       bool
	cursor   bool
	blink    bool
	incr     bool
	twoLines bool
	shift    int
}

// New returns a powered-up controller answering on addr, in 8-bit mode with
// blank DDRAM, as after the internal reset.
func New(addr uint8) *Controller {
	c := &Controller{addr: addr, incr: true}
	c.blank()
	return c
}

// Tx implements drivers.I2C. Reads are not supported: the backpack's R/W pin
// is tied low.
func (c *Controller) Tx(addr uint16, w, r []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if uint8(addr) != c.addr {
		return ErrNack
	}
	if len(r) > 0 {
		return errors.New("hd44780test: read not supported")
	}
	for _, b := range w {
		if c.failAfter > 0 {
			c.failAfter--
			if c.failAfter == 0 {
				return c.failErr
			}
		}
		c.write(b)
	}
	return nil
}

// FailAfter makes the n-th byte written from now on fail with err (ErrNack if
// nil). Earlier bytes are accepted.
func (c *Controller) FailAfter(n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		err = ErrNack
	}
	c.failAfter = n
	c.failErr = err
}

func (c *Controller) write(b byte) {
	c.writes = append(c.writes, b)
	prev := c.last
	c.last = b
	if prev&pinEN != 0 && b&pinEN == 0 {
		c.latch(prev>>4, prev&pinRS != 0)
	}
}

func (c *Controller) latch(nibble byte, rs bool) {
	if !c.fourBit {
		// D0..D3 are not wired: the low half reads as zero.
		c.exec(Instruction{Data: rs, Value: nibble << 4})
		return
	}
	if !c.pending {
		c.pending = true
		c.hi = nibble
		return
	}
	c.pending = false
	c.exec(Instruction{Data: rs, Value: c.hi<<4 | nibble})
}

func (c *Controller) exec(in Instruction) {
	c.instructions = append(c.instructions, in)
	if in.Data {
		c.ddram[c.ac] = in.Value
		c.advance()
		return
	}
	v := in.Value
	switch {
	case v&0x80 != 0:
		c.ac = v & 0x7F
	case v&0x40 != 0:
		// CGRAM address: not modelled
	case v&0x20 != 0:
		c.fourBit = v&0x10 == 0
		c.twoLines = v&0x08 != 0
	case v&0x10 != 0:
		right := v&0x04 != 0
		if v&0x08 != 0 {
			if right {
				c.shift++
			} else {
				c.shift--
			}
		} else {
			c.move(right)
		}
	case v&0x08 != 0:
		c.on = v&0x04 != 0
		c.cursor = v&0x02 != 0
		c.blink = v&0x01 != 0
	case v&0x04 != 0:
		c.incr = v&0x02 != 0
	case v&0x02 != 0:
		c.ac = 0
		c.shift = 0
	case v&0x01 != 0:
		c.blank()
		c.ac = 0
		c.shift = 0
		c.incr = true
	}
}

func (c *Controller) advance() {
	c.move(c.incr)
}

// move steps the address counter, wrapping between the two line ranges
// 0x00-0x27 and 0x40-0x67 the way the controller does in 2-line mode.
func (c *Controller) move(forward bool) {
	if forward {
		switch {
		case c.ac == lineLength-1 && c.twoLines:
			c.ac = row1Base
		case c.ac == row1Base+lineLength-1:
			c.ac = 0
		default:
			c.ac = (c.ac + 1) & 0x7F
		}
		return
	}
	switch {
	case c.ac == row1Base && c.twoLines:
		c.ac = lineLength - 1
	case c.ac == 0 && c.twoLines:
		c.ac = row1Base + lineLength - 1
	default:
		c.ac = (c.ac - 1) & 0x7F
	}
}

func (c *Controller) blank() {
	for i := range c.ddram {
		c.ddram[i] = ' '
	}
}

// Writes returns a copy of every byte written to the expander.
func (c *Controller) Writes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.writes...)
}

// WriteCount returns the number of bytes written to the expander so far.
func (c *Controller) WriteCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.writes)
}

// Instructions returns a copy of the values latched by the controller.
func (c *Controller) Instructions() []Instruction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Instruction(nil), c.instructions...)
}

// ResetLog forgets recorded writes and instructions, keeping controller state.
func (c *Controller) ResetLog() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = nil
	c.instructions = nil
}

// Line returns width characters of DDRAM starting at the first address of row.
func (c *Controller) Line(row, width int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	base := 0
	if row == 1 {
		base = row1Base
	}
	if base+width > ddramSize {
		width = ddramSize - base
	}
	return string(c.ddram[base : base+width])
}

// Cursor returns the address counter.
func (c *Controller) Cursor() uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ac
}

func (c *Controller) FourBit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fourBit
}

func (c *Controller) TwoLines() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.twoLines
}

// DisplayOn reports the display, cursor and blink flags.
func (c *Controller) DisplayOn() (on, cursor, blink bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.on, c.cursor, c.blink
}

func (c *Controller) Increment() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.incr
}

// Shift returns the net display shift, positive to the right.
func (c *Controller) Shift() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shift
}

// Backlight reports the backlight pin of the last byte written.
func (c *Controller) Backlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last&pinBL != 0
}
