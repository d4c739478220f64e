package utils

// Clamp constrains value to the inclusive range [lo, hi].
func Clamp(value, lo, hi int) int {
	if lo > hi {
		lo, hi = hi, lo
	}
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
