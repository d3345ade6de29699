package inventory

import "fmt"

type poolEntry struct {
	code string
	name string
}

var languagePool = []poolEntry{
	{"en", "English"},
	{"hi", "Hindi"},
	{"ta", "Tamil"},
	{"te", "Telugu"},
	{"ml", "Malayalam"},
	{"mr", "Marathi"},
	{"kn", "Kannada"},
	{"bn", "Bengali"},
	{"pa", "Punjabi"},
	{"gu", "Gujarati"},
}

var formatPool = []poolEntry{
	{"2d", "2D"},
	{"3d", "3D"},
	{"imax", "IMAX"},
	{"4dx", "4DX"},
	{"screenx", "ScreenX"},
}

var (
	cinemaChains = []string{"PVR", "INOX", "Cinepolis", "Miraj", "Carnival"}
	cinemaMalls  = []string{"Orion", "Phoenix", "Forum", "City Centre", "Mall"}
	cinemaCities = []string{"Bengaluru", "Mumbai", "Delhi", "Hyderabad", "Chennai", "Pune"}
)

// Languages returns the first n languages of the pool; positions past the
// pool get synthetic "l{i}" codes and reuse the pool name cyclically.
func Languages(n int) []Language {
	out := make([]Language, 0, n)
	for i := 0; i < n; i++ {
		e := languagePool[i%len(languagePool)]
		code := e.code
		if i >= len(languagePool) {
			code = fmt.Sprintf("l%d", i+1)
		}
		out = append(out, Language{Code: code, Name: e.name})
	}
	return out
}

// FormatsFor returns n formats for the language at position li. The pool is
// rotated by li so sibling languages lead with different formats. When n is
// larger than the pool every format gets a synthetic "f{i}" code.
func FormatsFor(li, n int) []Format {
	out := make([]Format, 0, n)
	for fi := 0; fi < n; fi++ {
		e := formatPool[(li+fi)%len(formatPool)]
		code := e.code
		if n > len(formatPool) {
			code = fmt.Sprintf("f%d", fi+1)
		}
		out = append(out, Format{Code: code, Name: e.name})
	}
	return out
}

// Cinemas builds n cinemas with ids cin_001.. and names drawn from rng, chain
// first then mall. Cities are assigned by position and draw nothing.
func Cinemas(n int, rng *RNG) []Cinema {
	out := make([]Cinema, 0, n)
	for i := 0; i < n; i++ {
		chain := cinemaChains[rng.Pick(len(cinemaChains))]
		mall := cinemaMalls[rng.Pick(len(cinemaMalls))]
		out = append(out, Cinema{
			ID:   fmt.Sprintf("cin_%03d", i+1),
			Name: fmt.Sprintf("%s %s #%d", chain, mall, i+1),
			City: cinemaCities[i%len(cinemaCities)],
		})
	}
	return out
}
