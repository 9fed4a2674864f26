package core

// -----------------------------------------------------------------------------

// Mean calculates the arithmetic mean of values. Empty input means 0.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// -----------------------------------------------------------------------------

// Sum totals the values.
func Sum(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum
}

// -----------------------------------------------------------------------------

// MinMax returns the smallest and largest of values. Empty input means (0, 0).
func MinMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}

	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
