// Package lcdclock shows the date and time on an HD44780 character LCD driven
// through a PCF8574 I2C backpack.
//
// Attach initializes the display and starts a once-per-interval refresh:
//
//	bus := machine.I2C0
//	bus.Configure(machine.I2CConfig{})
//	d, err := lcdclock.Attach(bus, lcdclock.Config{})
//	...
//	d.Detach()
//
// The refresh tick never talks to the bus. It formats the time and hands it to
// a single worker goroutine, which owns the bus from then on. If the bus is
// slower than the refresh interval the display shows the freshest time once
// the worker catches up; updates never pile up.
package lcdclock

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"tinygo.org/x/drivers"

	"github.com/ajanata/lcdclock/clockfmt"
	"github.com/ajanata/lcdclock/hd44780"
	"github.com/ajanata/lcdclock/pcf8574"
	"github.com/ajanata/lcdclock/refresh"
)

type Config struct {
	// Address of the backpack. Defaults to pcf8574.DefaultAddress.
	Address uint8
	// Width and Height of the display. Default to 16x2.
	Width  uint8
	Height uint8
	// Interval between refreshes. Defaults to one second.
	Interval    time.Duration
	NoBacklight bool
	// Clock defaults to the host clock.
	Clock    clockfmt.Clock
	Logger   *slog.Logger
	Reporter refresh.Reporter

	// Sleep replaces time.Sleep for protocol delays.
	Sleep func(time.Duration)
	// NewTimer replaces the refresh timer.
	NewTimer func(time.Duration) refresh.Timer
}

// Driver is an attached clock display.
type Driver struct {
	lcd   *hd44780.Device
	sched *refresh.Scheduler
	log   *slog.Logger

	once sync.Once
}

// Attach initializes the display on bus and starts refreshing it. On error
// nothing keeps running and no Driver is returned. A failed initialization
// sequence returns an *hd44780.InitError naming the failed step; an
// unsupported size returns an error wrapping hd44780.ErrInvalidSize before
// the bus is touched. An error starting the refresh is returned as is.
func Attach(bus drivers.I2C, cfg Config) (*Driver, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log := cfg.Logger

	expander := pcf8574.New(bus)
	expander.Configure(pcf8574.Config{Address: cfg.Address})

	lcd := hd44780.New(expander)
	err := lcd.Configure(hd44780.Config{
		Width:       cfg.Width,
		Height:      cfg.Height,
		NoBacklight: cfg.NoBacklight,
		Sleep:       cfg.Sleep,
		Logger:      log,
	})
	if err != nil {
		log.Error("lcdclock:init-failed",
			slog.Int("address", int(expander.Address())),
			slog.Any("reason", err))
		return nil, err
	}

	d := &Driver{lcd: lcd, log: log}
	d.sched = refresh.New(refresh.Config{
		Interval: cfg.Interval,
		Clock:    cfg.Clock,
		Update:   d.render,
		Reporter: cfg.Reporter,
		Logger:   log,
		NewTimer: cfg.NewTimer,
	})
	if err := d.sched.Start(); err != nil {
		return nil, err
	}
	log.Info("lcdclock:attached",
		slog.Int("address", int(expander.Address())),
		slog.Int("width", int(lcd.Width())),
		slog.Int("height", int(lcd.Height())))
	return d, nil
}

// Detach stops the refresh. It waits for an update in progress, so once it
// returns nothing is sent to the bus any more. The display keeps showing the
// last content. Detach may be called more than once.
func (d *Driver) Detach() {
	d.once.Do(func() {
		d.sched.Stop()
		d.log.Info("lcdclock:detached", slog.Any("stats", d.sched.Stats()))
	})
}

// Stats returns the refresh counters.
func (d *Driver) Stats() refresh.Stats {
	return d.sched.Stats()
}

// render runs on the refresh worker.
func (d *Driver) render(content clockfmt.Content) error {
	if err := d.lcd.Clear(); err != nil {
		return err
	}
	for row, line := range content.Lines(int(d.lcd.Height())) {
		if err := d.lcd.SetCursor(uint8(row), 0); err != nil {
			return err
		}
		if err := d.lcd.WriteString(line); err != nil {
			return err
		}
	}
	return nil
}
