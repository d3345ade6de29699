package inventory

import (
	"regexp"
	"time"
)

// Currency is the nominal currency of generated prices.
const Currency = "INR"

var showIDStrip = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// Generate runs the nested generation loop and returns the flat response.
//
// RNG consumption order is part of the output contract: cinema names first,
// then for every language (pool order), format, date (ascending) and cinema
// (id order) the showtime jitters, then per show capacity, availability,
// price jitter. Reordering any loop changes every value that follows.
func Generate(p GenerateParams) (*Response, error) {
	dates, err := ExpandDates(p.DateStart, p.DateEnd)
	if err != nil {
		return nil, err
	}
	win, err := ParseWindow(p.ShowtimeWindow.Start, p.ShowtimeWindow.End)
	if err != nil {
		win, _ = ParseWindow(DefaultWindowStart, DefaultWindowEnd)
	}

	rng := NewRNG(p.Seed)
	languages := Languages(p.LanguagesCount)
	cinemas := Cinemas(p.CinemasCount, rng)
	sched := NewScheduler(win, p.ShowsPerCinemaPerDay)

	dict := Dictionaries{
		Languages: make(map[string]string, len(languages)),
		Formats:   make(map[string]string),
		Cinemas:   make(map[string]CinemaMeta, len(cinemas)),
	}
	for _, c := range cinemas {
		dict.Cinemas[c.ID] = CinemaMeta{Name: c.Name, City: c.City}
	}

	capHint := p.ExpectedItems(len(dates))
	if capHint > 1<<20 {
		capHint = 1 << 20
	}
	items := make([]ShowRecord, 0, capHint)

	for li, lang := range languages {
		dict.Languages[lang.Code] = lang.Name
		for _, f := range FormatsFor(li, p.FormatsPerLanguage) {
			dict.Formats[f.Code] = f.Name
			for _, date := range dates {
				for _, c := range cinemas {
					for _, t := range sched.Times(rng) {
						capacity := rng.Int(p.MinSeatsPerShow, p.MaxSeatsPerShow)
						avail := rng.Int(int(float64(capacity)*0.2), capacity)
						price := ShowPrice(p.BasePrice, f.Code, p.PriceJitterPct, rng)

						rec := ShowRecord{
							LanguageCode:   lang.Code,
							FormatCode:     f.Code,
							Date:           date,
							CinemaID:       c.ID,
							CinemaName:     c.Name,
							ShowID:         showIDStrip.ReplaceAllString("show_"+lang.Code+"_"+f.Code+"_"+date+"_"+c.ID+"_"+t, ""),
							ShowTime:       t,
							BasePrice:      price,
							AvailableSeats: avail,
							Capacity:       capacity,
							ScreenType:     f.Name,
						}
						if p.IncludeSeatClasses {
							rec.SeatClasses = SeatClasses(price, avail)
						}
						items = append(items, rec)
					}
				}
			}
		}
	}

	return &Response{
		Currency:     Currency,
		GeneratedAt:  time.Now().UTC(),
		Dictionaries: dict,
		Items:        items,
		Days:         len(dates),
	}, nil
}
