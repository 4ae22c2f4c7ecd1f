package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli"

	"github.com/ajanata/lcdclock/i2cdev"
	"github.com/ajanata/lcdclock/mqttreport"
	"github.com/ajanata/lcdclock/pcf8523"
	"github.com/ajanata/lcdclock/pcf8574"
)

type options struct {
	bus         string
	address     int
	width       int
	height      int
	interval    time.Duration
	noBacklight bool

	rtc        bool
	rtcAddress int

	mqttBroker    string
	mqttTopic     string
	mqttClientID  string
	mqttReconnect bool

	logLevel string
}

func (o *options) flags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:        "bus",
			Usage:       "I2C adapter device",
			EnvVar:      "LCDCLOCK_BUS",
			Value:       i2cdev.DefaultPath,
			Destination: &o.bus,
		},
		cli.IntFlag{
			Name:        "address",
			Usage:       "I2C address of the LCD backpack",
			EnvVar:      "LCDCLOCK_ADDRESS",
			Value:       pcf8574.DefaultAddress,
			Destination: &o.address,
		},
		cli.IntFlag{
			Name:        "width",
			Usage:       "display columns",
			EnvVar:      "LCDCLOCK_WIDTH",
			Value:       16,
			Destination: &o.width,
		},
		cli.IntFlag{
			Name:        "height",
			Usage:       "display rows (1 or 2)",
			EnvVar:      "LCDCLOCK_HEIGHT",
			Value:       2,
			Destination: &o.height,
		},
		cli.DurationFlag{
			Name:        "interval",
			Usage:       "refresh interval",
			EnvVar:      "LCDCLOCK_INTERVAL",
			Value:       time.Second,
			Destination: &o.interval,
		},
		cli.BoolFlag{
			Name:        "no-backlight",
			Usage:       "leave the backlight off",
			EnvVar:      "LCDCLOCK_NO_BACKLIGHT",
			Destination: &o.noBacklight,
		},
		cli.BoolFlag{
			Name:        "rtc",
			Usage:       "take the time from a PCF8523 on the same bus",
			EnvVar:      "LCDCLOCK_RTC",
			Destination: &o.rtc,
		},
		cli.IntFlag{
			Name:        "rtc-address",
			Usage:       "I2C address of the RTC",
			EnvVar:      "LCDCLOCK_RTC_ADDRESS",
			Value:       pcf8523.DefaultAddress,
			Destination: &o.rtcAddress,
		},
		cli.StringFlag{
			Name:        "mqtt-broker",
			Usage:       "publish refresh status to this broker (host:port)",
			EnvVar:      "LCDCLOCK_MQTT_BROKER",
			Destination: &o.mqttBroker,
		},
		cli.StringFlag{
			Name:        "mqtt-topic",
			Usage:       "topic for refresh status",
			EnvVar:      "LCDCLOCK_MQTT_TOPIC",
			Value:       mqttreport.DefaultTopic,
			Destination: &o.mqttTopic,
		},
		cli.StringFlag{
			Name:        "mqtt-client-id",
			Usage:       "MQTT client identifier",
			EnvVar:      "LCDCLOCK_MQTT_CLIENT_ID",
			Value:       "lcdclock",
			Destination: &o.mqttClientID,
		},
		cli.BoolFlag{
			Name:        "mqtt-reconnect",
			Usage:       "use a client that reconnects to the broker on its own",
			EnvVar:      "LCDCLOCK_MQTT_RECONNECT",
			Destination: &o.mqttReconnect,
		},
		cli.StringFlag{
			Name:        "log-level",
			Usage:       "debug, info, warn or error",
			EnvVar:      "LCDCLOCK_LOG_LEVEL",
			Value:       "info",
			Destination: &o.logLevel,
		},
	}
}

func (o *options) validate() error {
	if o.address < 0 || o.address > 0x7F {
		return fmt.Errorf("invalid address %#x", o.address)
	}
	if o.rtcAddress < 0 || o.rtcAddress > 0x7F {
		return fmt.Errorf("invalid rtc address %#x", o.rtcAddress)
	}
	if o.width < 1 || o.width > 40 {
		return fmt.Errorf("invalid width %d", o.width)
	}
	if o.height != 1 && o.height != 2 {
		return fmt.Errorf("invalid height %d", o.height)
	}
	if o.interval <= 0 {
		return fmt.Errorf("invalid interval %s", o.interval)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}
