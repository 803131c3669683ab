package analytics

import "math"

// TrailingReturns computes the simple return over window rows,
// r[i] = close[i]/close[i-window] - 1. The first window entries, and any
// entry whose closes are missing or whose base is not positive, are NaN.
func TrailingReturns(closes []float64, window int) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		out[i] = TrailingReturnAt(closes, i, window)
	}
	return out
}

// TrailingReturnAt is TrailingReturns for a single index.
func TrailingReturnAt(closes []float64, i, window int) float64 {
	if window < 1 || i < window || i >= len(closes) {
		return math.NaN()
	}
	base, cur := closes[i-window], closes[i]
	if math.IsNaN(base) || math.IsNaN(cur) || base <= 0 {
		return math.NaN()
	}
	return cur/base - 1
}
