package inventory

import "math"

// formatMultipliers scale the base price per screen format. Unknown formats
// price at 1.0.
var formatMultipliers = map[string]float64{
	"2d":      1.0,
	"3d":      1.2,
	"imax":    1.4,
	"4dx":     1.5,
	"screenx": 1.3,
}

// Seat class multipliers applied on top of the show price.
const (
	goldMultiplier     = 1.15
	platinumMultiplier = 1.30
)

// FormatMultiplier returns the price multiplier for a format code.
func FormatMultiplier(code string) float64 {
	if m, ok := formatMultipliers[code]; ok {
		return m
	}
	return 1.0
}

// RoundTo5 rounds x to the nearest multiple of 5. Ties go to the even
// multiple (12.5 -> 10, 17.5 -> 20).
func RoundTo5(x float64) int {
	return int(math.RoundToEven(x/5) * 5)
}

// ShowPrice computes base * multiplier * (1 +/- jitterPct) rounded to 5. It
// consumes exactly one Float from rng.
func ShowPrice(base int, format string, jitterPct float64, rng *RNG) int {
	jitter := 1 + (rng.Float()*2-1)*jitterPct
	return RoundTo5(float64(base) * FormatMultiplier(format) * jitter)
}

// SeatClasses partitions avail seats into silver (50%), gold (30%) and
// platinum (the remainder). Counts always add up to avail.
func SeatClasses(price, avail int) []SeatClass {
	silver := max(0, int(float64(avail)*0.5))
	gold := max(0, int(float64(avail)*0.3))
	platinum := max(0, avail-silver-gold)
	return []SeatClass{
		{Code: "silver", Name: "Silver", Price: price, Available: silver},
		{Code: "gold", Name: "Gold", Price: RoundTo5(float64(price) * goldMultiplier), Available: gold},
		{Code: "platinum", Name: "Platinum", Price: RoundTo5(float64(price) * platinumMultiplier), Available: platinum},
	}
}
