// Package hd44780 drives a Hitachi HD44780-family character LCD through a
// PCF8574 "I2C backpack" in 4-bit mode.
//
// Only D4..D7 of the controller are wired, so every 8-bit instruction or
// character is sent as two nibbles, high nibble first. Each nibble is latched
// by pulsing the enable pin: the expander byte is written with EN low, then EN
// high, then EN low again, with PulseDelay between the writes. R/W is tied low
// on the backpack, which means the busy flag can never be read: the driver
// relies on fixed settle delays after slow instructions instead.
//
// The driver does not validate cursor positions. Writing past the end of a
// line is accepted and spills into the controller's off-screen RAM.
//
// Datasheet: https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
package hd44780

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Bus is the write side of the I/O expander. *pcf8574.Device implements it.
type Bus interface {
	Write(b byte) error
}

type Device struct {
	bus       Bus
	width     uint8
	height    uint8
	backlight bool
	sleep     func(time.Duration)
	log       *slog.Logger
}

// Config for an HD44780 display behind an I2C backpack.
type Config struct {
	// Width and Height default to a 16x2 module. Only 1 and 2 line displays
	// are supported.
	Width  uint8
	Height uint8
	// NoBacklight leaves the backlight off. By default it is switched on.
	NoBacklight bool
	// Sleep is used for every protocol delay. Defaults to time.Sleep.
	Sleep  func(time.Duration)
	Logger *slog.Logger
}

// ErrInvalidSize is returned by Configure for unsupported display geometries.
var ErrInvalidSize = errors.New("hd44780: unsupported display size")

// InitStep names a step of the initialization sequence.
type InitStep uint8

const (
	StepWakeup InitStep = iota + 1
	StepFourBitMode
	StepFunctionSet
	StepDisplayOff
	StepClear
	StepEntryMode
	StepDisplayOn
)

func (s InitStep) String() string {
	switch s {
	case StepWakeup:
		return "wakeup"
	case StepFourBitMode:
		return "four-bit-mode"
	case StepFunctionSet:
		return "function-set"
	case StepDisplayOff:
		return "display-off"
	case StepClear:
		return "clear"
	case StepEntryMode:
		return "entry-mode"
	case StepDisplayOn:
		return "display-on"
	}
	return fmt.Sprintf("step(%d)", uint8(s))
}

// InitError reports the initialization step that failed. The display must be
// considered unusable: the sequence is not retried.
type InitError struct {
	Step InitStep
	Err  error
}

func (e *InitError) Error() string {
	return "hd44780: init " + e.Step.String() + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// New creates a driver on top of a configured expander. It does not touch the
// device; call Configure to initialize the controller.
func New(bus Bus) *Device {
	return &Device{
		bus:       bus,
		width:     DefaultWidth,
		height:    DefaultHeight,
		backlight: true,
		sleep:     time.Sleep,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Configure runs the "initialization by instruction" sequence, bringing the
// controller from an unknown power-on state into 4-bit mode with the display
// on, cleared, and the cursor hidden.
func (d *Device) Configure(cfg Config) error {
	if cfg.Width == 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height == 0 {
		cfg.Height = DefaultHeight
	}
	if cfg.Height > 2 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, cfg.Width, cfg.Height)
	}
	if cfg.Sleep != nil {
		d.sleep = cfg.Sleep
	}
	if cfg.Logger != nil {
		d.log = cfg.Logger
	}
	d.width = cfg.Width
	d.height = cfg.Height
	d.backlight = !cfg.NoBacklight

	d.log.Debug("hd44780:init", slog.Int("width", int(d.width)), slog.Int("height", int(d.height)))
	if err := d.init(); err != nil {
		d.log.Error("hd44780:init-failed", slog.Any("reason", err))
		return err
	}
	return nil
}

func (d *Device) init() error {
	d.sleep(PowerOnDelay)

	// Three 0x3 nibbles force 8-bit mode whatever state the controller
	// powered up in, including halfway through a 4-bit transfer.
	for i := 0; i < 3; i++ {
		if err := d.sendNibble(nibbleEightBit, false); err != nil {
			return &InitError{Step: StepWakeup, Err: err}
		}
		d.sleep(ResetDelay)
	}
	if err := d.sendNibble(nibbleFourBit, false); err != nil {
		return &InitError{Step: StepFourBitMode, Err: err}
	}

	lines := TwoLines
	if d.height == 1 {
		lines = OneLine
	}
	steps := []struct {
		step InitStep
		cmd  Command
	}{
		{StepFunctionSet, FunctionSet(FourBit, lines, Font5x8)},
		{StepDisplayOff, DisplayControl(false, false, false)},
		{StepClear, ClearDisplay()},
		{StepEntryMode, EntryMode(Increment, false)},
		{StepDisplayOn, DisplayControl(true, false, false)},
	}
	for _, s := range steps {
		if err := d.Exec(s.cmd); err != nil {
			return &InitError{Step: s.step, Err: err}
		}
	}
	return nil
}

// Width returns the number of visible characters per line.
func (d *Device) Width() uint8 { return d.width }

// Height returns the number of display lines.
func (d *Device) Height() uint8 { return d.height }

// Exec sends cmd and waits for the controller to settle.
func (d *Device) Exec(cmd Command) error {
	if err := d.sendByte(cmd.code, cmd.data); err != nil {
		return err
	}
	if cmd.delay > 0 {
		d.sleep(cmd.delay)
	}
	return nil
}

// Clear blanks the display and moves the cursor to (0, 0).
func (d *Device) Clear() error {
	return d.Exec(ClearDisplay())
}

// Home moves the cursor to (0, 0) and undoes any display shift.
func (d *Device) Home() error {
	return d.Exec(ReturnHome())
}

// SetCursor moves the input cursor to the given row and column.
func (d *Device) SetCursor(row, col uint8) error {
	return d.Exec(SetDDRAMAddress(DDRAMAddress(row, col)))
}

// WriteChar writes a single character at the cursor.
func (d *Device) WriteChar(b byte) error {
	return d.Exec(Char(b))
}

// Print writes data starting at the cursor. It does not wrap lines.
func (d *Device) Print(data []byte) error {
	for _, b := range data {
		if err := d.WriteChar(b); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) WriteString(s string) error {
	for i := 0; i < len(s); i++ {
		if err := d.WriteChar(s[i]); err != nil {
			return err
		}
	}
	return nil
}

// DisplayOn switches the display on or off. DDRAM is kept while off.
func (d *Device) DisplayOn(on bool) error {
	return d.Exec(DisplayControl(on, false, false))
}

// ShiftLeft shifts the whole display one position to the left.
func (d *Device) ShiftLeft() error {
	return d.Exec(Shift(true, false))
}

// ShiftRight shifts the whole display one position to the right.
func (d *Device) ShiftRight() error {
	return d.Exec(Shift(true, true))
}

// SetBacklight switches the backlight. The pins are rewritten with EN low, so
// the controller does not see a transfer.
func (d *Device) SetBacklight(on bool) error {
	b := d.expanderByte(0, false) &^ BacklightBit
	if on {
		b |= BacklightBit
	}
	if err := d.bus.Write(b); err != nil {
		return err
	}
	d.backlight = on
	return nil
}
