package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	// DateLayout is the wire format for lesson dates.
	DateLayout = "2006-01-02"
	// ClockLayout is the wire format for lesson start times.
	ClockLayout = "15:04"
)

// Slot is a lesson start expressed as a local date and wall-clock time.
// It is interpreted in the booking's timezone.
type Slot struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// NewSlot validates and normalizes a date and time pair.
func NewSlot(date, clock string) (Slot, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return Slot{}, NewValidationError("date", "expected YYYY-MM-DD, got %q", date)
	}
	c, err := time.Parse(ClockLayout, strings.TrimSpace(clock))
	if err != nil {
		return Slot{}, NewValidationError("time", "expected HH:MM, got %q", clock)
	}
	return Slot{Date: d.Format(DateLayout), Time: c.Format(ClockLayout)}, nil
}

// MustSlot is NewSlot for literals known to be valid.
func MustSlot(date, clock string) Slot {
	s, err := NewSlot(date, clock)
	if err != nil {
		panic(err)
	}
	return s
}

// IsZero reports whether the slot is unset.
func (s Slot) IsZero() bool { return s.Date == "" && s.Time == "" }

// In returns the start instant in loc. The slot must be valid.
func (s Slot) In(loc *time.Location) time.Time {
	t, err := time.ParseInLocation(DateLayout+" "+ClockLayout, s.Date+" "+s.Time, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (s Slot) String() string { return s.Date + " " + s.Time }

// SlotOption is one proposed date with the times on offer that day.
type SlotOption struct {
	Date  string   `json:"date"`
	Times []string `json:"times"`
}

// NormalizeOptions validates candidate slots, merges repeated dates and
// sorts everything chronologically.
func NormalizeOptions(opts []SlotOption) ([]SlotOption, error) {
	byDate := make(map[string][]string)
	for _, o := range opts {
		if len(o.Times) == 0 {
			return nil, NewValidationError("availableOptions", "date %q has no times", o.Date)
		}
		for _, clock := range o.Times {
			s, err := NewSlot(o.Date, clock)
			if err != nil {
				return nil, err
			}
			if !slices.Contains(byDate[s.Date], s.Time) {
				byDate[s.Date] = append(byDate[s.Date], s.Time)
			}
		}
	}
	out := make([]SlotOption, 0, len(byDate))
	for date, times := range byDate {
		slices.Sort(times)
		out = append(out, SlotOption{Date: date, Times: times})
	}
	slices.SortFunc(out, func(a, b SlotOption) int { return strings.Compare(a.Date, b.Date) })
	return out, nil
}

// Candidates flattens options into slots in chronological order.
func Candidates(opts []SlotOption) []Slot {
	var out []Slot
	for _, o := range opts {
		for _, t := range o.Times {
			out = append(out, Slot{Date: o.Date, Time: t})
		}
	}
	return out
}

// LatestCandidate returns the last candidate start in loc.
func LatestCandidate(opts []SlotOption, loc *time.Location) (Slot, time.Time, bool) {
	var (
		best  Slot
		start time.Time
		found bool
	)
	for _, s := range Candidates(opts) {
		t := s.In(loc)
		if !found || t.After(start) {
			best, start, found = s, t, true
		}
	}
	return best, start, found
}

func containsSlot(opts []SlotOption, s Slot) bool {
	for _, o := range opts {
		if o.Date == s.Date && slices.Contains(o.Times, s.Time) {
			return true
		}
	}
	return false
}

// ParseSlot reads "YYYY-MM-DD HH:MM".
func ParseSlot(raw string) (Slot, error) {
	date, clock, ok := strings.Cut(strings.TrimSpace(raw), " ")
	if !ok {
		return Slot{}, NewValidationError("slot", "expected \"YYYY-MM-DD HH:MM\", got %q", raw)
	}
	return NewSlot(date, clock)
}

// FormatOptions renders options for logs and CLI output.
func FormatOptions(opts []SlotOption) string {
	parts := make([]string, 0, len(opts))
	for _, o := range opts {
		parts = append(parts, fmt.Sprintf("%s[%s]", o.Date, strings.Join(o.Times, ",")))
	}
	return strings.Join(parts, " ")
}
