// Command lcdclock shows the date and time on an I2C character LCD attached
// to a Linux board.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/ajanata/lcdclock"
	"github.com/ajanata/lcdclock/i2cdev"
	"github.com/ajanata/lcdclock/mqttreport"
	"github.com/ajanata/lcdclock/pcf8523"
)

func main() {
	if err := newApp(run).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "lcdclock:", err)
		os.Exit(1)
	}
}

func newApp(action func(*options) error) *cli.App {
	opts := &options{}
	app := cli.NewApp()
	app.Name = "lcdclock"
	app.Usage = "show the date and time on an HD44780 LCD behind a PCF8574 backpack"
	app.Flags = opts.flags()
	app.Action = func(ctx *cli.Context) error {
		if err := opts.validate(); err != nil {
			return err
		}
		return action(opts)
	}
	return app
}

func run(opts *options) error {
	level, err := parseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := i2cdev.Open(opts.bus)
	defer bus.Close()

	cfg := lcdclock.Config{
		Address:     uint8(opts.address),
		Width:       uint8(opts.width),
		Height:      uint8(opts.height),
		Interval:    opts.interval,
		NoBacklight: opts.noBacklight,
		Logger:      logger,
	}

	if opts.rtc {
		rtc := pcf8523.New(bus)
		rtc.Configure(pcf8523.Config{Address: uint16(opts.rtcAddress)})
		if lost, err := rtc.LostPower(); err != nil {
			return err
		} else if lost {
			logger.Warn("rtc:lost-power", slog.String("hint", "the clock needs to be set"))
		}
		clock, err := rtc.Clock(time.Now)
		if err != nil {
			return err
		}
		logger.Info("rtc:synced", slog.Duration("offset", clock.Offset()))
		cfg.Clock = clock.In(time.Local)
	}

	if opts.mqttBroker != "" {
		client, err := dialBroker(ctx, opts)
		if err != nil {
			return err
		}
		defer client.Close()
		logger.Info("mqtt:connected",
			slog.String("broker", opts.mqttBroker),
			slog.Bool("reconnect", opts.mqttReconnect))

		reporter := mqttreport.New(mqttreport.Config{Topic: opts.mqttTopic, Logger: logger})
		go reporter.Run(ctx, client)
		cfg.Reporter = reporter
	}

	d, err := lcdclock.Attach(bus, cfg)
	if err != nil {
		return err
	}
	<-ctx.Done()
	logger.Info("lcdclock:shutting-down")
	d.Detach()
	return nil
}

type publishCloser interface {
	mqttreport.Publisher
	Close() error
}

func dialBroker(ctx context.Context, opts *options) (publishCloser, error) {
	if opts.mqttReconnect {
		c, err := mqttreport.DialPaho(opts.mqttBroker, opts.mqttClientID, mqttreport.DefaultTimeout)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	ctx, cancel := context.WithTimeout(ctx, mqttreport.DefaultTimeout)
	defer cancel()
	c, err := mqttreport.Dial(ctx, opts.mqttBroker, opts.mqttClientID)
	if err != nil {
		return nil, err
	}
	return c, nil
}
