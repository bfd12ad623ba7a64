package scheduler

import (
	"fmt"
	"strings"
	"time"
)

// Session is a trading window in minutes since midnight, inclusive on both ends.
type Session struct {
	Start int
	End   int
}

// MarketClock answers whether the market is open in its own timezone.
type MarketClock struct {
	Location   *time.Location
	Sessions   []Session
	DailyClose int
}

// NewMarketClock parses sessions like "10:00-12:30" and a daily close like "16:30".
func NewMarketClock(tz string, sessions []string, dailyClose string) (*MarketClock, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	c := &MarketClock{Location: loc}
	for _, spec := range sessions {
		start, end, ok := strings.Cut(spec, "-")
		if !ok {
			return nil, fmt.Errorf("session %q: expected HH:MM-HH:MM", spec)
		}
		s, err := parseHHMM(start)
		if err != nil {
			return nil, fmt.Errorf("session %q: %w", spec, err)
		}
		e, err := parseHHMM(end)
		if err != nil {
			return nil, fmt.Errorf("session %q: %w", spec, err)
		}
		if e < s {
			return nil, fmt.Errorf("session %q ends before it starts", spec)
		}
		c.Sessions = append(c.Sessions, Session{Start: s, End: e})
	}
	if c.DailyClose, err = parseHHMM(dailyClose); err != nil {
		return nil, fmt.Errorf("daily close %q: %w", dailyClose, err)
	}
	return c, nil
}

func parseHHMM(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Now returns the current time in the market timezone.
func (c *MarketClock) Now() time.Time {
	return time.Now().In(c.Location)
}

// IsWeekday reports whether t falls Monday to Friday in market time.
func (c *MarketClock) IsWeekday(t time.Time) bool {
	wd := t.In(c.Location).Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// IsOpen reports whether t is a weekday inside one of the sessions.
func (c *MarketClock) IsOpen(t time.Time) bool {
	if !c.IsWeekday(t) {
		return false
	}
	local := t.In(c.Location)
	m := local.Hour()*60 + local.Minute()
	for _, s := range c.Sessions {
		if m >= s.Start && m <= s.End {
			return true
		}
	}
	return false
}

// ShouldSendDaily reports whether the daily close report is due at t, given
// the market date it was last sent for.
func (c *MarketClock) ShouldSendDaily(t time.Time, lastSentDay string) bool {
	if !c.IsWeekday(t) {
		return false
	}
	local := t.In(c.Location)
	if local.Hour()*60+local.Minute() < c.DailyClose {
		return false
	}
	return DayKey(local) != lastSentDay
}

// DailyCloseSpec returns the seconds-field cron spec for the daily close on weekdays.
func (c *MarketClock) DailyCloseSpec() string {
	return fmt.Sprintf("0 %d %d * * 1-5", c.DailyClose%60, c.DailyClose/60)
}

// HourKey identifies the hour t falls in.
func HourKey(t time.Time) string { return t.Format("2006-01-02 15") }

// DayKey identifies the calendar day t falls in.
func DayKey(t time.Time) string { return t.Format("2006-01-02") }
