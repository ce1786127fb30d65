package sim

// Clamp limits v to the closed interval [lo, hi]. Every numeric an
// engine exposes passes through one of these helpers before it becomes
// observable; out-of-range intermediates are an internal concern, never
// a surfaced error.
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampUnit limits v to [0, 1].
func ClampUnit(v float64) float64 { return Clamp(v, 0, 1) }

// ClampSigned limits v to [-1, 1].
func ClampSigned(v float64) float64 { return Clamp(v, -1, 1) }

// FloorInt returns v if non-negative, otherwise 0. Counts (infected,
// deaths, populations) never go below zero.
func FloorInt(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
