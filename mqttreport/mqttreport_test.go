package mqttreport

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/ajanata/lcdclock/clockfmt"
	"github.com/ajanata/lcdclock/refresh"
)

type published struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	fail []error // returned by the next calls, in order
	sent chan published
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{sent: make(chan published, 16)}
}

func (p *fakePublisher) Publish(topic string, payload []byte) error {
	p.mu.Lock()
	var err error
	if len(p.fail) > 0 {
		err, p.fail = p.fail[0], p.fail[1:]
	}
	p.mu.Unlock()
	if err != nil {
		return err
	}
	p.sent <- published{topic: topic, payload: payload}
	return nil
}

func (p *fakePublisher) next(c *qt.C) published {
	c.Helper()
	select {
	case m := <-p.sent:
		return m
	case <-time.After(2 * time.Second):
		c.Fatalf("nothing published")
	}
	panic("unreachable")
}

var at = time.Date(2024, 3, 7, 14, 5, 9, 0, time.UTC)

func TestRunPublishesJSON(t *testing.T) {
	c := qt.New(t)
	r := New(Config{})
	pub := newFakePublisher()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, pub) }()

	r.Report(refresh.Status{At: at, Content: clockfmt.Format(at)})
	r.Report(refresh.Status{At: at, Content: clockfmt.Format(at), Err: errors.New("nack")})

	m := pub.next(c)
	c.Assert(m.topic, qt.Equals, DefaultTopic)
	var msg Message
	c.Assert(json.Unmarshal(m.payload, &msg), qt.IsNil)
	c.Assert(msg.At.Equal(at), qt.IsTrue)
	c.Assert(msg.Date, qt.Equals, "2024-03-07 Thu")
	c.Assert(msg.Time, qt.Equals, "14:05:09")
	c.Assert(msg.Error, qt.Equals, "")
	c.Assert(string(m.payload), qt.Not(qt.Contains), "error")

	m = pub.next(c)
	c.Assert(json.Unmarshal(m.payload, &msg), qt.IsNil)
	c.Assert(msg.Error, qt.Equals, "nack")

	cancel()
	c.Assert(<-done, qt.ErrorIs, context.Canceled)
	c.Assert(r.Published(), qt.Equals, uint64(2))
}

func TestReportNeverBlocks(t *testing.T) {
	c := qt.New(t)
	r := New(Config{Buffer: 2, Topic: "clock/kitchen"})

	for i := 0; i < 5; i++ {
		r.Report(refresh.Status{At: at})
	}
	c.Assert(r.Dropped(), qt.Equals, uint64(3))

	pub := newFakePublisher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx, pub)
	c.Assert(pub.next(c).topic, qt.Equals, "clock/kitchen")
	pub.next(c)
}

func TestRunSurvivesPublishError(t *testing.T) {
	c := qt.New(t)
	r := New(Config{})
	pub := newFakePublisher()
	pub.fail = []error{errors.New("broker gone")}

	r.Report(refresh.Status{At: at, Content: clockfmt.Content{Time: "14:05:09"}})
	r.Report(refresh.Status{At: at, Content: clockfmt.Content{Time: "14:05:10"}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx, pub)

	var msg Message
	c.Assert(json.Unmarshal(pub.next(c).payload, &msg), qt.IsNil)
	c.Assert(msg.Time, qt.Equals, "14:05:10")
}
