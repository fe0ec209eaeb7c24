package commands

import (
	"flag"
	"fmt"
	"strings"
	"time"
)

type timeRange struct {
	from  *string
	to    *string
	limit *int
}

func timeRangeFlags(fs *flag.FlagSet) timeRange {
	return timeRange{
		from:  fs.String("from", "", "start time (RFC3339, or a duration ago such as 2h)"),
		to:    fs.String("to", "", "end time (RFC3339, or a duration ago such as 30m)"),
		limit: fs.Int("limit", 0, "maximum number of results (0: gateway default)"),
	}
}

func (r timeRange) resolve(now time.Time) (from, to time.Time, err error) {
	if from, err = ParseTime(*r.from, now); err != nil {
		return
	}
	if to, err = ParseTime(*r.to, now); err != nil {
		return
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		err = fmt.Errorf("time range ends before it starts")
	}
	return
}

// ParseTime accepts an RFC3339 time, a local "2006-01-02 15:04:05" time or
// a duration that is subtracted from now. Empty input gives the zero time.
func ParseTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(time.DateTime, s, time.Local); err == nil {
		return t, nil
	}
	if d, err := time.ParseDuration(strings.TrimPrefix(s, "-")); err == nil {
		return now.Add(-d), nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}
