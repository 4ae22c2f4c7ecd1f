package hd44780

import "time"

// Instruction codes, see the instruction table of the datasheet.
const (
	cmdClearDisplay   = 0x01 // 00000001
	cmdReturnHome     = 0x02 // 00000010
	cmdEntryModeSet   = 0x04 // 00000100
	cmdDisplayControl = 0x08 // 00001000
	cmdCursorShift    = 0x10 // 00010000
	cmdFunctionSet    = 0x20 // 00100000
	cmdSetDDRAMAddr   = 0x80 // 10000000

	// raw nibbles of the "initialization by instruction" procedure
	nibbleEightBit = 0x03
	nibbleFourBit  = 0x02

	ddramAddrMask = 0x7F
	row0Offset    = 0x00
	row1Offset    = 0x40
)

// Expander pins of a PCF8574 LCD backpack.
const (
	RegisterSelectBit = 0x01 // P0: 0 instruction, 1 data
	ReadWriteBit      = 0x02 // P1: always 0, the bus is write-only
	EnableBit         = 0x04 // P2: falling edge latches a nibble
	BacklightBit      = 0x08 // P3: backlight transistor
)

// Timing. There is no busy-flag polling (R/W is tied low), so every wait is a
// fixed delay. Shortening any of them corrupts the display without any error.
const (
	PulseDelay   = 500 * time.Microsecond
	ClearDelay   = 2 * time.Millisecond
	PowerOnDelay = 50 * time.Millisecond
	ResetDelay   = 5 * time.Millisecond
)

const (
	DefaultWidth  = 16
	DefaultHeight = 2
)
