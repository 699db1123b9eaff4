package portfolio

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	DayLayout   = "2006-01-02"
	StampLayout = "2006-01-02 15:04"
)

// Day is a calendar date persisted as YYYY-MM-DD.
type Day struct {
	time.Time
}

func NewDay(t time.Time) Day {
	y, m, d := t.Date()
	return Day{time.Date(y, m, d, 0, 0, 0, 0, t.Location())}
}

func ParseDay(s string) (Day, error) {
	t, err := time.ParseInLocation(DayLayout, s, time.Local)
	if err != nil {
		return Day{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Day{t}, nil
}

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DayLayout)
}

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Day{}
		return nil
	}
	t, err := ParseStamp(s)
	if err != nil {
		return err
	}
	*d = NewDay(t)
	return nil
}

var stampLayouts = []string{
	"2006-01-02 15:04:05",
	StampLayout,
	DayLayout,
}

// ParseStamp accepts RFC 3339 timestamps as well as the minute-resolution
// local timestamps written by older documents.
func ParseStamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range stampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// stamp decodes a timestamp in any layout ParseStamp understands.
type stamp struct {
	time.Time
}

func (s *stamp) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	if str == "" {
		s.Time = time.Time{}
		return nil
	}
	t, err := ParseStamp(str)
	if err != nil {
		return err
	}
	s.Time = t
	return nil
}
