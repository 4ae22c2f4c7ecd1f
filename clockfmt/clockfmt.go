// Package clockfmt renders a wall-clock instant into the two fixed-width lines
// shown by the clock display:
//
//	2024-03-07 Thu
//	14:05:09
//
// Lines are never truncated or padded to the display width. A line longer than
// the display simply runs into off-screen controller RAM.
package clockfmt

import (
	"strconv"
	"time"
)

var weekdays = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Content is one formatted refresh. It is a plain value: once formatted it is
// never modified.
type Content struct {
	Date string
	Time string
}

// Clock is a source of wall-clock time.
type Clock interface {
	Now() time.Time
}

// System reads the host clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Format renders t in its own location.
func Format(t time.Time) Content {
	// "YYYY-MM-DD DOW" and "HH:MM:SS"
	date := make([]byte, 0, 14)
	date = appendPadded(date, t.Year(), 4)
	date = append(date, '-')
	date = appendPadded(date, int(t.Month()), 2)
	date = append(date, '-')
	date = appendPadded(date, t.Day(), 2)
	date = append(date, ' ')
	date = append(date, weekdays[t.Weekday()]...)

	hour, minute, sec := t.Clock()
	clock := make([]byte, 0, 8)
	clock = appendPadded(clock, hour, 2)
	clock = append(clock, ':')
	clock = appendPadded(clock, minute, 2)
	clock = append(clock, ':')
	clock = appendPadded(clock, sec, 2)

	return Content{Date: string(date), Time: string(clock)}
}

// Lines returns the lines to show on a display with the given number of rows.
// A single-row display shows the time only.
func (c Content) Lines(rows int) []string {
	if rows < 2 {
		return []string{c.Time}
	}
	return []string{c.Date, c.Time}
}

func appendPadded(b []byte, v, width int) []byte {
	s := strconv.Itoa(v)
	for i := len(s); i < width; i++ {
		b = append(b, '0')
	}
	return append(b, s...)
}
