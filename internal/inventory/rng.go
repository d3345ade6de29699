package inventory

// zeroSeedReplacement keeps xorshift32 out of its all-zero fixed point.
const zeroSeedReplacement uint32 = 0x9E3779B9

// RNG is a xorshift32 pseudo random generator. The same seed and the same call
// sequence always yield the same stream, which is what makes generated datasets
// reproducible. RNG is not safe for concurrent use; every generation run owns
// its own instance.
type RNG struct {
	state uint32
}

// NewRNG returns a generator seeded with seed. A zero seed is replaced by a
// fixed non-zero constant.
func NewRNG(seed int32) *RNG {
	s := uint32(seed)
	if s == 0 {
		s = zeroSeedReplacement
	}
	return &RNG{state: s}
}

// Float advances the state by one xorshift32 step and returns it normalized
// into [0,1).
func (r *RNG) Float() float64 {
	x := r.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	r.state = x
	return float64(x) / 4294967296.0
}

// Int returns an integer in [min,max] inclusive. When min >= max it returns
// min without consuming state.
func (r *RNG) Int(min, max int) int {
	if min >= max {
		return min
	}
	v := min + int(r.Float()*float64(max-min+1))
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Pick returns an index in [0,n).
func (r *RNG) Pick(n int) int {
	return r.Int(0, n-1)
}
