package hd44780

import (
	"fmt"
	"time"
)

// EntryDirection is the direction the address counter moves after each character.
type EntryDirection uint8

const (
	Decrement EntryDirection = 0
	Increment EntryDirection = 1
)

// BusWidth selects the data length of the controller interface.
type BusWidth uint8

const (
	FourBit  BusWidth = 0
	EightBit BusWidth = 1
)

// Lines selects the number of display lines.
type Lines uint8

const (
	OneLine  Lines = 0
	TwoLines Lines = 1
)

// Font selects the character font.
type Font uint8

const (
	Font5x8  Font = 0
	Font5x10 Font = 1
)

// Command is a single HD44780 instruction or data write. Build one with the
// constructors below and run it with Device.Exec.
type Command struct {
	name  string
	code  byte
	data  bool
	delay time.Duration
}

// Code returns the 8-bit value sent to the controller.
func (c Command) Code() byte { return c.code }

// IsData reports whether the command goes to the data register (RS high).
func (c Command) IsData() bool { return c.data }

// Delay returns the settle time the controller needs after the command.
func (c Command) Delay() time.Duration { return c.delay }

func (c Command) String() string {
	return fmt.Sprintf("%s(%#02x)", c.name, c.code)
}

// ClearDisplay blanks DDRAM and moves the cursor home.
func ClearDisplay() Command {
	return Command{name: "Clear", code: cmdClearDisplay, delay: ClearDelay}
}

// ReturnHome moves the cursor to address 0 and undoes any display shift.
func ReturnHome() Command {
	return Command{name: "ReturnHome", code: cmdReturnHome, delay: ClearDelay}
}

func EntryMode(dir EntryDirection, shift bool) Command {
	return Command{
		name: "EntryMode",
		code: cmdEntryModeSet | byte(dir&1)<<1 | bit(shift),
	}
}

func DisplayControl(on, cursor, blink bool) Command {
	return Command{
		name: "DisplayControl",
		code: cmdDisplayControl | bit(on)<<2 | bit(cursor)<<1 | bit(blink),
	}
}

// Shift moves the cursor, or the whole display when display is true, by one
// position without touching DDRAM.
func Shift(display, right bool) Command {
	return Command{
		name: "Shift",
		code: cmdCursorShift | bit(display)<<3 | bit(right)<<2,
	}
}

func FunctionSet(width BusWidth, lines Lines, font Font) Command {
	return Command{
		name: "FunctionSet",
		code: cmdFunctionSet | byte(width&1)<<4 | byte(lines&1)<<3 | byte(font&1)<<2,
	}
}

func SetDDRAMAddress(addr uint8) Command {
	return Command{
		name: "SetDDRAMAddress",
		code: cmdSetDDRAMAddr | addr&ddramAddrMask,
	}
}

// Char writes b to DDRAM at the cursor.
func Char(b byte) Command {
	return Command{name: "Char", code: b, data: true}
}

// DDRAMAddress maps a display position to its DDRAM address. Columns past the
// visible width are not checked: they land in the controller's off-screen RAM
// or alias into the other row.
func DDRAMAddress(row, col uint8) uint8 {
	if row&1 == 1 {
		return row1Offset + col
	}
	return row0Offset + col
}

func bit(b bool) byte {
	if b {
		return 1
	}
	return 0
}
