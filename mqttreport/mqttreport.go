// Package mqttreport publishes the outcome of every display refresh to an
// MQTT broker, so a headless clock can be watched from elsewhere.
//
// Reporter plugs into the refresh scheduler. Report runs on the refresh
// worker and must not slow it down: statuses go into a small buffer and are
// dropped when the buffer is full. Run drains the buffer and publishes each
// status as a JSON message.
package mqttreport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ajanata/lcdclock/refresh"
)

const (
	DefaultTopic  = "lcdclock/status"
	DefaultBuffer = 8
)

// Publisher sends one message. *Client implements it.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

type Config struct {
	Topic string
	// Buffer is the number of statuses kept while the publisher is busy.
	Buffer int
	Logger *slog.Logger
}

type Reporter struct {
	topic    string
	statuses chan refresh.Status
	log      *slog.Logger

	dropped   atomic.Uint64
	published atomic.Uint64
}

// Message is the JSON body published for each refresh.
type Message struct {
	At    time.Time `json:"at"`
	Date  string    `json:"date"`
	Time  string    `json:"time"`
	Error string    `json:"error,omitempty"`
}

func New(cfg Config) *Reporter {
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = DefaultBuffer
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reporter{
		topic:    cfg.Topic,
		statuses: make(chan refresh.Status, cfg.Buffer),
		log:      cfg.Logger,
	}
}

// Report queues s for publishing. It never blocks.
func (r *Reporter) Report(s refresh.Status) {
	select {
	case r.statuses <- s:
	default:
		r.dropped.Add(1)
	}
}

// Dropped returns the number of statuses lost to a full buffer.
func (r *Reporter) Dropped() uint64 { return r.dropped.Load() }

// Published returns the number of statuses handed to the publisher
// successfully.
func (r *Reporter) Published() uint64 { return r.published.Load() }

// Run publishes queued statuses until ctx is done. A failed publish is logged
// and the status is lost; Run keeps going.
func (r *Reporter) Run(ctx context.Context, pub Publisher) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s := <-r.statuses:
			payload, err := json.Marshal(newMessage(s))
			if err != nil {
				r.log.Error("mqttreport:marshal-failed", slog.Any("reason", err))
				continue
			}
			if err := pub.Publish(r.topic, payload); err != nil {
				r.log.Error("mqttreport:publish-failed",
					slog.String("topic", r.topic),
					slog.Any("reason", err))
				continue
			}
			r.published.Add(1)
		}
	}
}

func newMessage(s refresh.Status) Message {
	m := Message{At: s.At, Date: s.Content.Date, Time: s.Content.Time}
	if s.Err != nil {
		m.Error = s.Err.Error()
	}
	return m
}
