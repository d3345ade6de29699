package inventory

import (
	"fmt"
)

// Defaults applied by Normalize when a field is absent.
const (
	DefaultLanguagesCount       = 3
	DefaultFormatsPerLanguage   = 3
	DefaultDateStart            = "2025-08-17"
	DefaultDateEnd              = "2025-08-23"
	DefaultCinemasCount         = 6
	DefaultShowsPerCinemaPerDay = 5
	DefaultSeed                 = 42
	DefaultBasePrice            = 200
	DefaultPriceJitterPct       = 0.2
	DefaultMinSeatsPerShow      = 60
	DefaultMaxSeatsPerShow      = 180
	DefaultWindowStart          = "09:00"
	DefaultWindowEnd            = "23:00"
)

// WindowParams is the showtime window as supplied by callers ("HH:mm").
type WindowParams struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// RawParams is the caller-facing parameter object. Pointer fields distinguish
// an absent value from an explicit zero.
type RawParams struct {
	LanguagesCount       *int          `json:"languagesCount,omitempty"`
	FormatsPerLanguage   *int          `json:"formatsPerLanguage,omitempty"`
	DateStart            *string       `json:"dateStart,omitempty"`
	DateEnd              *string       `json:"dateEnd,omitempty"`
	CinemasCount         *int          `json:"cinemasCount,omitempty"`
	ShowsPerCinemaPerDay *int          `json:"showsPerCinemaPerDay,omitempty"`
	IncludeSeatClasses   *bool         `json:"includeSeatClasses,omitempty"`
	Seed                 *int64        `json:"seed,omitempty"`
	BasePrice            *int          `json:"basePrice,omitempty"`
	BasePriceINR         *int          `json:"basePriceINR,omitempty"` // legacy alias of basePrice
	PriceJitterPct       *float64      `json:"priceJitterPct,omitempty"`
	MinSeatsPerShow      *int          `json:"minSeatsPerShow,omitempty"`
	MaxSeatsPerShow      *int          `json:"maxSeatsPerShow,omitempty"`
	ShowtimeWindow       *WindowParams `json:"showtimeWindow,omitempty"`
}

// GenerateParams is the fully normalized, immutable input of a generation run.
type GenerateParams struct {
	LanguagesCount       int          `json:"languagesCount"`
	FormatsPerLanguage   int          `json:"formatsPerLanguage"`
	DateStart            string       `json:"dateStart"`
	DateEnd              string       `json:"dateEnd"`
	CinemasCount         int          `json:"cinemasCount"`
	ShowsPerCinemaPerDay int          `json:"showsPerCinemaPerDay"`
	IncludeSeatClasses   bool         `json:"includeSeatClasses"`
	Seed                 int32        `json:"seed"`
	BasePrice            int          `json:"basePrice"`
	PriceJitterPct       float64      `json:"priceJitterPct"`
	MinSeatsPerShow      int          `json:"minSeatsPerShow"`
	MaxSeatsPerShow      int          `json:"maxSeatsPerShow"`
	ShowtimeWindow       WindowParams `json:"showtimeWindow"`
}

// DefaultParams returns the parameter set used when every field is absent.
func DefaultParams() GenerateParams {
	return GenerateParams{
		LanguagesCount:       DefaultLanguagesCount,
		FormatsPerLanguage:   DefaultFormatsPerLanguage,
		DateStart:            DefaultDateStart,
		DateEnd:              DefaultDateEnd,
		CinemasCount:         DefaultCinemasCount,
		ShowsPerCinemaPerDay: DefaultShowsPerCinemaPerDay,
		Seed:                 DefaultSeed,
		BasePrice:            DefaultBasePrice,
		PriceJitterPct:       DefaultPriceJitterPct,
		MinSeatsPerShow:      DefaultMinSeatsPerShow,
		MaxSeatsPerShow:      DefaultMaxSeatsPerShow,
		ShowtimeWindow:       WindowParams{Start: DefaultWindowStart, End: DefaultWindowEnd},
	}
}

// Normalize fills absent fields with defaults and validates the rest. Counts
// and prices must not be negative, the jitter must lie in [0,1] and the seat
// bounds must be ordered; violations wrap ErrInvalidRange. A zero show count
// falls back to the default and an unusable showtime window is replaced by the
// default window. The date range is expanded once here so an invalid date is
// reported before any generation work starts.
func Normalize(raw *RawParams) (GenerateParams, error) {
	if raw == nil {
		return GenerateParams{}, fmt.Errorf("%w: params is required", ErrMissingParameter)
	}
	p := DefaultParams()

	setInt(&p.LanguagesCount, raw.LanguagesCount)
	setInt(&p.FormatsPerLanguage, raw.FormatsPerLanguage)
	setInt(&p.CinemasCount, raw.CinemasCount)
	setInt(&p.ShowsPerCinemaPerDay, raw.ShowsPerCinemaPerDay)
	setInt(&p.MinSeatsPerShow, raw.MinSeatsPerShow)
	setInt(&p.MaxSeatsPerShow, raw.MaxSeatsPerShow)
	setInt(&p.BasePrice, raw.BasePriceINR)
	setInt(&p.BasePrice, raw.BasePrice) // basePrice wins over the legacy alias
	if raw.DateStart != nil {
		p.DateStart = *raw.DateStart
	}
	if raw.DateEnd != nil {
		p.DateEnd = *raw.DateEnd
	}
	if raw.IncludeSeatClasses != nil {
		p.IncludeSeatClasses = *raw.IncludeSeatClasses
	}
	if raw.Seed != nil {
		p.Seed = int32(*raw.Seed)
	}
	if raw.PriceJitterPct != nil {
		p.PriceJitterPct = *raw.PriceJitterPct
	}

	for name, v := range map[string]int{
		"languagesCount":       p.LanguagesCount,
		"formatsPerLanguage":   p.FormatsPerLanguage,
		"cinemasCount":         p.CinemasCount,
		"showsPerCinemaPerDay": p.ShowsPerCinemaPerDay,
		"basePrice":            p.BasePrice,
		"minSeatsPerShow":      p.MinSeatsPerShow,
		"maxSeatsPerShow":      p.MaxSeatsPerShow,
	} {
		if v < 0 {
			return GenerateParams{}, fmt.Errorf("%w: %s must not be negative (got %d)", ErrInvalidRange, name, v)
		}
	}
	if p.MinSeatsPerShow > p.MaxSeatsPerShow {
		return GenerateParams{}, fmt.Errorf("%w: minSeatsPerShow %d exceeds maxSeatsPerShow %d",
			ErrInvalidRange, p.MinSeatsPerShow, p.MaxSeatsPerShow)
	}
	if p.PriceJitterPct < 0 || p.PriceJitterPct > 1 {
		return GenerateParams{}, fmt.Errorf("%w: priceJitterPct must be within [0,1] (got %g)", ErrInvalidRange, p.PriceJitterPct)
	}
	if p.ShowsPerCinemaPerDay == 0 {
		p.ShowsPerCinemaPerDay = DefaultShowsPerCinemaPerDay
	}

	if w := raw.ShowtimeWindow; w != nil {
		if _, err := ParseWindow(w.Start, w.End); err == nil {
			p.ShowtimeWindow = *w
		}
	}

	if _, err := ExpandDates(p.DateStart, p.DateEnd); err != nil {
		return GenerateParams{}, err
	}
	return p, nil
}

// ExpectedItems is the upper bound of show records a run can produce. The
// scheduler may collapse colliding times, so actual counts can be lower.
func (p GenerateParams) ExpectedItems(days int) int64 {
	return int64(p.LanguagesCount) * int64(p.FormatsPerLanguage) * int64(days) *
		int64(p.CinemasCount) * int64(p.ShowsPerCinemaPerDay)
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
