package inventory

import "time"

// Language is a spoken language a show is screened in.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Format is a screen format such as 2D or IMAX.
type Format struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Cinema is a generated venue. Ids are stable ("cin_001"), names are drawn
// from the seeded RNG.
type Cinema struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
}

// CinemaMeta is the dictionary entry of a cinema in a flat response.
type CinemaMeta struct {
	Name string `json:"name"`
	City string `json:"city,omitempty"`
}

// SeatClass is a price/availability partition of a show's seats.
type SeatClass struct {
	Code      string `json:"code"`
	Name      string `json:"name,omitempty"`
	Price     int    `json:"price"`
	Available int    `json:"available"`
}

// ShowRecord is one generated show in the flat representation.
type ShowRecord struct {
	LanguageCode   string      `json:"languageCode"`
	FormatCode     string      `json:"formatCode"`
	Date           string      `json:"date"`
	CinemaID       string      `json:"cinemaId"`
	CinemaName     string      `json:"cinemaName,omitempty"`
	ShowID         string      `json:"showId"`
	ShowTime       string      `json:"showTime"`
	BasePrice      int         `json:"basePrice"`
	AvailableSeats int         `json:"availableSeats"`
	Capacity       int         `json:"capacity,omitempty"`
	ScreenType     string      `json:"screenType,omitempty"`
	SeatClasses    []SeatClass `json:"seatClasses,omitempty"`
}

// Dictionaries maps codes and ids to their display metadata.
type Dictionaries struct {
	Languages map[string]string     `json:"languages"`
	Formats   map[string]string     `json:"formats"`
	Cinemas   map[string]CinemaMeta `json:"cinemas"`
}

// Response is the flat, order preserving output of a generation run.
type Response struct {
	Currency     string       `json:"currency"`
	GeneratedAt  time.Time    `json:"generatedAtIso"`
	Dictionaries Dictionaries `json:"dictionaries"`
	Items        []ShowRecord `json:"items"`
	Days         int          `json:"days"`
}

// ShowInfo is a show as stored in the nested tree, keyed by its time.
type ShowInfo struct {
	Price          int         `json:"price"`
	AvailableSeats int         `json:"availableSeats"`
	SeatClasses    []SeatClass `json:"seatClasses,omitempty"`
}

// CinemaNode groups the shows of one cinema on one date.
type CinemaNode struct {
	CinemaName string              `json:"cinemaName"`
	Shows      map[string]ShowInfo `json:"shows"`
}

// Tree levels: language -> format -> date -> cinema id.
type (
	Tree         map[string]LanguageNode
	LanguageNode map[string]FormatNode
	FormatNode   map[string]DateNode
	DateNode     map[string]*CinemaNode
)

// Indexes are the sorted lookup lists derived from a Tree.
type Indexes struct {
	Languages         []string            `json:"languages"`
	FormatsByLanguage map[string][]string `json:"formatsByLanguage"`
	DatesByLangFormat map[string][]string `json:"datesByLangFormat"`
}

// SliceShow is one show of a theatre in a slice.
type SliceShow struct {
	Time        string      `json:"time"`
	Price       int         `json:"price"`
	Available   int         `json:"available"`
	SeatClasses []SeatClass `json:"seatClasses,omitempty"`
}

// SliceTheatre is one cinema of a slice with its shows sorted by time.
type SliceTheatre struct {
	CinemaID   string      `json:"cinemaId"`
	CinemaName string      `json:"cinemaName"`
	Shows      []SliceShow `json:"shows"`
}

// SliceMeta carries the counts of a slice.
type SliceMeta struct {
	Theatres int `json:"theatres"`
	Shows    int `json:"shows"`
}

// Slice is the theatre/showtime data for one (language, format, date) triple.
type Slice struct {
	LanguageCode string         `json:"languageCode"`
	FormatCode   string         `json:"formatCode"`
	Date         string         `json:"date"`
	Theatres     []SliceTheatre `json:"theatres"`
	Meta         SliceMeta      `json:"meta"`
}
