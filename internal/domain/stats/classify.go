package stats

const percentScale = 100

// Classification counts how many values exceed a threshold.
type Classification struct {
	Threshold  float64 `json:"threshold"`
	AboveCount int     `json:"above_count"`
	TotalCount int     `json:"total_count"`
	Percentage float64 `json:"percentage"`
}

// Above reports whether v passes threshold. Ties do not pass.
func Above(v, threshold float64) bool {
	return v > threshold
}

// Classify counts values strictly greater than threshold. Percentage is 0
// when there are no values.
func Classify(values []float64, threshold float64) Classification {
	c := Classification{Threshold: threshold, TotalCount: len(values)}
	for _, v := range values {
		if Above(v, threshold) {
			c.AboveCount++
		}
	}
	if c.TotalCount > 0 {
		c.Percentage = float64(c.AboveCount) / float64(c.TotalCount) * percentScale
	}
	return c
}
