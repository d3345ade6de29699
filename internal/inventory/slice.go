package inventory

import (
	"sort"
	"strings"
)

// SliceOf projects the (lang, format, date) node of t into a Slice. Missing
// levels yield an empty slice. Theatres are ordered by lower-cased name then
// id, shows by time. The result shares no mutable state with t.
func SliceOf(t Tree, lang, format, date string) Slice {
	out := Slice{
		LanguageCode: lang,
		FormatCode:   format,
		Date:         date,
		Theatres:     []SliceTheatre{},
	}
	dn := t[lang][format][date]
	if len(dn) == 0 {
		return out
	}

	ids := make([]string, 0, len(dn))
	for id := range dn {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := strings.ToLower(dn[ids[i]].CinemaName), strings.ToLower(dn[ids[j]].CinemaName)
		if a != b {
			return a < b
		}
		return ids[i] < ids[j]
	})

	shows := 0
	out.Theatres = make([]SliceTheatre, 0, len(ids))
	for _, id := range ids {
		cn := dn[id]
		times := sortedKeys(cn.Shows)
		th := SliceTheatre{CinemaID: id, CinemaName: cn.CinemaName, Shows: make([]SliceShow, 0, len(times))}
		for _, tm := range times {
			info := cn.Shows[tm]
			th.Shows = append(th.Shows, SliceShow{
				Time:        tm,
				Price:       info.Price,
				Available:   info.AvailableSeats,
				SeatClasses: cloneSeatClasses(info.SeatClasses),
			})
		}
		shows += len(th.Shows)
		out.Theatres = append(out.Theatres, th)
	}
	out.Meta = SliceMeta{Theatres: len(dn), Shows: shows}
	return out
}

func cloneSeatClasses(in []SeatClass) []SeatClass {
	if in == nil {
		return nil
	}
	out := make([]SeatClass, len(in))
	copy(out, in)
	return out
}
