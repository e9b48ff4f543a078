package stats

// Mean returns the arithmetic mean of xs. An empty slice has mean 0, so a
// score type with no entries contributes nothing to a weighted sum instead
// of poisoning it with NaN.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
