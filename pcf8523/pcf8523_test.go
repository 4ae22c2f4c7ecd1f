package pcf8523

import (
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"tinygo.org/x/drivers/tester"
)

func newTestDevice(c *qt.C) (*Device, *tester.I2CDevice8) {
	bus := tester.NewI2CBus(c)
	chip := bus.NewDevice(DefaultAddress)
	return New(bus), chip
}

func TestSet(t *testing.T) {
	c := qt.New(t)
	d, chip := newTestDevice(c)
	chip.Registers[Control1] = 0x80 | stopBit | hour12Bit
	chip.Registers[Control3] = batteryMask

	ok, err := d.Initialized()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)

	at := time.Date(2024, 3, 7, 14, 5, 9, 0, time.UTC)
	c.Assert(d.Set(at), qt.IsNil)

	c.Assert(chip.Registers[Control1], qt.Equals, uint8(0x80))
	c.Assert(chip.Registers[Time:Time+7], qt.DeepEquals, []uint8{0x09, 0x05, 0x14, 0x07, 0x04, 0x03, 0x24})
	c.Assert(chip.Registers[Control3], qt.Equals, uint8(0))

	ok, err = d.Initialized()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
}

func TestSetConvertsToUTC(t *testing.T) {
	c := qt.New(t)
	d, chip := newTestDevice(c)

	east := time.FixedZone("UTC+2", 2*60*60)
	c.Assert(d.Set(time.Date(2024, 3, 8, 1, 30, 0, 0, east)), qt.IsNil)
	c.Assert(chip.Registers[Time+2], qt.Equals, uint8(0x23))
	c.Assert(chip.Registers[Time+3], qt.Equals, uint8(0x07))
}

func TestSetYearOutOfRange(t *testing.T) {
	c := qt.New(t)
	d, chip := newTestDevice(c)
	chip.Registers[Control1] = stopBit

	err := d.Set(time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC))
	c.Assert(err, qt.ErrorMatches, `pcf8523: year 1999 out of range`)
	c.Assert(chip.Registers[Control1], qt.Equals, uint8(stopBit))
}

func TestNow(t *testing.T) {
	c := qt.New(t)
	d, chip := newTestDevice(c)
	// OS flag set in the seconds register must not leak into the time
	copy(chip.Registers[Time:], []uint8{0x80 | 0x59, 0x59, 0x23, 0x31, 0x00, 0x12, 0x23})

	got, err := d.Now()
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC))

	lost, err := d.LostPower()
	c.Assert(err, qt.IsNil)
	c.Assert(lost, qt.IsTrue)
}

func TestSetThenNow(t *testing.T) {
	c := qt.New(t)
	d, _ := newTestDevice(c)

	at := time.Date(2031, 7, 19, 6, 45, 30, 0, time.UTC)
	c.Assert(d.Set(at), qt.IsNil)
	got, err := d.Now()
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, at)

	lost, err := d.LostPower()
	c.Assert(err, qt.IsNil)
	c.Assert(lost, qt.IsFalse)
}

func TestConfigureAddress(t *testing.T) {
	c := qt.New(t)
	bus := tester.NewI2CBus(c)
	chip := bus.NewDevice(0x69)
	chip.Registers[Time] = 0x42

	d := New(bus)
	d.Configure(Config{Address: 0x69})
	got, err := d.Now()
	c.Assert(err, qt.IsNil)
	c.Assert(got.Second(), qt.Equals, 42)
}

func TestBusError(t *testing.T) {
	c := qt.New(t)
	d, chip := newTestDevice(c)
	errNack := errors.New("nack")
	chip.Err = errNack

	_, err := d.Now()
	c.Assert(err, qt.ErrorIs, errNack)
	c.Assert(err, qt.ErrorMatches, `pcf8523: read 0x03: nack`)

	_, err = d.Clock(nil)
	c.Assert(err, qt.ErrorIs, errNack)

	err = d.Set(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	c.Assert(err, qt.ErrorIs, errNack)
}

func TestClock(t *testing.T) {
	c := qt.New(t)
	d, chip := newTestDevice(c)
	copy(chip.Registers[Time:], []uint8{0x09, 0x05, 0x14, 0x07, 0x04, 0x03, 0x24})

	host := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	clock, err := d.Clock(func() time.Time { return host })
	c.Assert(err, qt.IsNil)

	rtc := time.Date(2024, 3, 7, 14, 5, 9, 0, time.UTC)
	c.Assert(clock.Offset(), qt.Equals, rtc.Sub(host))
	c.Assert(clock.Now().Equal(rtc), qt.IsTrue)

	// the bus is not read again
	chip.Err = errors.New("unplugged")
	host = host.Add(2 * time.Second)
	c.Assert(clock.Now().Equal(rtc.Add(2*time.Second)), qt.IsTrue)

	east := time.FixedZone("UTC+2", 2*60*60)
	c.Assert(clock.In(east).Now().Hour(), qt.Equals, 16)
	c.Assert(clock.Now().Location(), qt.Equals, time.UTC)
}

func TestBCD(t *testing.T) {
	c := qt.New(t)
	for _, v := range []int{0, 9, 10, 42, 59, 99} {
		c.Assert(bcdToDec(decToBcd(v)), qt.Equals, v)
	}
	c.Assert(decToBcd(59), qt.Equals, uint8(0x59))
}
