package inventory

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	minShowGap = 60 // minutes
	showJitter = 10 // +/- minutes
)

// Window is a daily showtime window in minutes since midnight.
type Window struct {
	Start int
	End   int
}

// ParseWindow parses "HH:mm" bounds. The end must be after the start.
func ParseWindow(start, end string) (Window, error) {
	s, err := parseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := parseClock(end)
	if err != nil {
		return Window{}, err
	}
	if e <= s {
		return Window{}, fmt.Errorf("%w: window end %s must be after start %s", ErrInvalidRange, end, start)
	}
	return Window{Start: s, End: e}, nil
}

func parseClock(v string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(v), ":")
	if !ok {
		return 0, fmt.Errorf("%w: time %q is not HH:mm", ErrInvalidRange, v)
	}
	hh, err := strconv.Atoi(h)
	if err != nil || hh < 0 || hh > 24 {
		return 0, fmt.Errorf("%w: hour in %q", ErrInvalidRange, v)
	}
	mm, err := strconv.Atoi(m)
	if err != nil || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("%w: minute in %q", ErrInvalidRange, v)
	}
	// 24:00 closes a window at midnight; nothing later exists
	if hh == 24 && mm != 0 {
		return 0, fmt.Errorf("%w: time %q is past midnight", ErrInvalidRange, v)
	}
	return hh*60 + mm, nil
}

// Scheduler lays out count shows across a window, spaced by at least an hour
// when the window allows it.
type Scheduler struct {
	win   Window
	count int
	gap   int
}

// NewScheduler precomputes the spacing for count shows in win.
func NewScheduler(win Window, count int) *Scheduler {
	total := win.End - win.Start
	if total < 1 {
		total = 1
	}
	gap := total / (count + 1)
	if gap < minShowGap {
		gap = minShowGap
	}
	return &Scheduler{win: win, count: count, gap: gap}
}

// Gap is the nominal distance between two consecutive shows, in minutes.
func (s *Scheduler) Gap() int { return s.gap }

// Times draws one jitter per show and returns the distinct "HH:mm" times in
// generation order. Colliding times collapse, so fewer than count entries may
// come back.
func (s *Scheduler) Times(rng *RNG) []string {
	out := make([]string, 0, s.count)
	seen := make(map[string]struct{}, s.count)
	cur := s.win.Start + s.gap*6/10 // first show sits at 60% of the gap
	for i := 0; i < s.count; i++ {
		m := cur + rng.Int(-showJitter, showJitter)
		if m < s.win.Start {
			m = s.win.Start
		}
		if m > s.win.End-1 {
			m = s.win.End - 1
		}
		t := FormatClock(m)
		if _, dup := seen[t]; !dup {
			seen[t] = struct{}{}
			out = append(out, t)
		}
		cur += s.gap
	}
	return out
}

// FormatClock renders minutes since midnight as zero padded "HH:mm".
func FormatClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
