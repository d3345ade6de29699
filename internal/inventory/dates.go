package inventory

import (
	"fmt"
	"time"
)

// DateLayout is the strict ISO calendar date layout used everywhere in the engine.
const DateLayout = "2006-01-02"

// ExpandDates returns every calendar date from start to end inclusive, in
// ascending order. Both bounds must be strict YYYY-MM-DD dates (UTC) and start
// must not be after end.
func ExpandDates(start, end string) ([]string, error) {
	s, err := parseDate(start)
	if err != nil {
		return nil, fmt.Errorf("%w: dateStart %q", ErrInvalidDate, start)
	}
	e, err := parseDate(end)
	if err != nil {
		return nil, fmt.Errorf("%w: dateEnd %q", ErrInvalidDate, end)
	}
	if s.After(e) {
		return nil, fmt.Errorf("%w: dateEnd %s must be >= dateStart %s", ErrInvalidDate, end, start)
	}

	days := int(e.Sub(s).Hours()/24) + 1
	out := make([]string, 0, days)
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(DateLayout))
	}
	return out, nil
}

// parseDate rejects anything time.Parse would accept but that does not round
// trip, e.g. "2025-1-7".
func parseDate(v string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, v, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	if t.Format(DateLayout) != v {
		return time.Time{}, fmt.Errorf("non canonical date %q", v)
	}
	return t, nil
}
