// Package pcf8523 implements a driver for the PCF8523 Real-Time Clock (RTC), providing basic read-write of the current
// time only. The PCF8523 itself supports alarms, clock drift compensation, and timer interrupts, but those features
// remain unimplemented.
//
// The clock display reads the RTC once at startup through Clock and then counts on the host clock, so the refresh
// tick never has to go out on the bus.
//
// Datasheet: https://www.nxp.com/docs/en/data-sheet/PCF8523.pdf
package pcf8523

import (
	"fmt"
	"time"

	"tinygo.org/x/drivers"
)

type Device struct {
	bus  drivers.I2C
	addr uint16
}

type Config struct {
	// Address defaults to DefaultAddress.
	Address uint16
}

func New(bus drivers.I2C) *Device {
	return &Device{bus: bus, addr: DefaultAddress}
}

func (d *Device) Configure(cfg Config) {
	if cfg.Address != 0 {
		d.addr = cfg.Address
	}
}

// LostPower reports whether the oscillator stopped since the time was last
// set, which makes the stored time unreliable.
func (d *Device) LostPower() (bool, error) {
	var buf [1]byte
	if err := d.read(Time, buf[:]); err != nil {
		return false, err
	}
	return buf[0]&oscillatorStop != 0, nil
}

// Initialized reports whether battery switchover was configured, which Set
// does. A chip fresh from the factory has it disabled.
func (d *Device) Initialized() (bool, error) {
	var buf [1]byte
	if err := d.read(Control3, buf[:]); err != nil {
		return false, err
	}
	return buf[0]&batteryMask != batteryMask, nil
}

// Set stores t, in UTC, and starts the oscillator in 24-hour mode. Years
// outside 2000-2099 cannot be represented.
func (d *Device) Set(t time.Time) error {
	t = t.UTC()
	if t.Year() < 2000 || t.Year() > 2099 {
		return fmt.Errorf("pcf8523: year %d out of range", t.Year())
	}

	var ctrl [1]byte
	if err := d.read(Control1, ctrl[:]); err != nil {
		return err
	}
	// keep cap_sel and the interrupt enables
	ctrl[0] &^= stopBit | hour12Bit
	if err := d.write(Control1, ctrl[0]); err != nil {
		return err
	}

	err := d.write(Time,
		decToBcd(t.Second()),
		decToBcd(t.Minute()),
		decToBcd(t.Hour()),
		decToBcd(t.Day()),
		decToBcd(int(t.Weekday())),
		decToBcd(int(t.Month())),
		decToBcd(t.Year()-2000),
	)
	if err != nil {
		return err
	}
	// battery switchover on, battery interrupts off
	return d.write(Control3, 0)
}

// Now reads the current time. The RTC keeps UTC.
func (d *Device) Now() (time.Time, error) {
	var buf [7]byte
	if err := d.read(Time, buf[:]); err != nil {
		return time.Time{}, err
	}

	seconds := bcdToDec(buf[0] & 0x7F)
	minute := bcdToDec(buf[1] & 0x7F)
	hour := bcdToDec(buf[2] & 0x3F)
	day := bcdToDec(buf[3] & 0x3F)
	// weekday is derived from the date
	month := time.Month(bcdToDec(buf[5] & 0x1F))
	year := bcdToDec(buf[6]) + 2000

	return time.Date(year, month, day, hour, minute, seconds, 0, time.UTC), nil
}

// Clock reads the RTC once and returns a clock that follows the host
// monotonic clock from there. now is the host clock, normally time.Now.
func (d *Device) Clock(now func() time.Time) (*OffsetClock, error) {
	if now == nil {
		now = time.Now
	}
	rtc, err := d.Now()
	if err != nil {
		return nil, err
	}
	return &OffsetClock{now: now, offset: rtc.Sub(now())}, nil
}

// OffsetClock is the host clock shifted by a fixed offset.
type OffsetClock struct {
	now    func() time.Time
	offset time.Duration
	loc    *time.Location
}

// In returns a copy of the clock reporting times in loc.
func (c *OffsetClock) In(loc *time.Location) *OffsetClock {
	cp := *c
	cp.loc = loc
	return &cp
}

func (c *OffsetClock) Offset() time.Duration { return c.offset }

func (c *OffsetClock) Now() time.Time {
	t := c.now().Add(c.offset)
	if c.loc != nil {
		t = t.In(c.loc)
	}
	return t
}

func (d *Device) read(reg uint8, buf []byte) error {
	if err := d.bus.Tx(d.addr, []byte{reg}, buf); err != nil {
		return fmt.Errorf("pcf8523: read %#02x: %w", reg, err)
	}
	return nil
}

func (d *Device) write(reg uint8, data ...byte) error {
	w := append([]byte{reg}, data...)
	if err := d.bus.Tx(d.addr, w, nil); err != nil {
		return fmt.Errorf("pcf8523: write %#02x: %w", reg, err)
	}
	return nil
}

// decToBcd converts int to BCD
func decToBcd(dec int) uint8 {
	return uint8(dec + 6*(dec/10))
}

// bcdToDec converts BCD to int
func bcdToDec(bcd uint8) int {
	return int(bcd - 6*(bcd>>4))
}
