// Package inventory contains the deterministic showtime inventory engine: the
// seeded RNG, parameter normalization, taxonomy pools, date expansion, showtime
// scheduling, pricing, generation, reduction into the nested tree, indexing and
// slice projection. Nothing in this package keeps global state; every dataset is
// produced from a GenerateParams value and returned to the caller.
package inventory

import "errors"

// Sentinel error kinds. Callers wrap them with fmt.Errorf("%w: ...") to add
// detail and compare with errors.Is. Handlers translate them into HTTP status
// codes through Code.
var (
	// ErrMissingParameter signals that a required input (params object,
	// dataset id, language code ...) was not supplied.
	ErrMissingParameter = errors.New("missing parameter")

	// ErrNotFound signals an unknown dataset id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidDate signals an unparseable date or a start after the end.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidRange signals any other domain violation such as a negative count.
	ErrInvalidRange = errors.New("invalid range")
)

// Code returns the stable machine-readable code for err. Unknown errors map
// to "internal".
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingParameter):
		return "missing_parameter"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, ErrInvalidRange):
		return "invalid_range"
	}
	return "internal"
}
