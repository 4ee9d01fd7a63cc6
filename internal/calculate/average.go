package calculate

// Average calculates simple average
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, value := range values {
		sum += value
	}

	return sum / float64(len(values))
}

// SMA returns the mean of the trailing period values.
// When the window exceeds the data it falls back to the latest value.
func SMA(values []float64, period int) float64 {
	if len(values) == 0 {
		return 0
	}
	if period <= 0 || period > len(values) {
		return values[len(values)-1]
	}
	return Average(values[len(values)-period:])
}

// EMASeries returns the exponential moving average of every point, seeded with the first value
func EMASeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	if period < 1 {
		period = 1
	}

	multiplier := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = (values[i]-out[i-1])*multiplier + out[i-1]
	}
	return out
}

// Tail returns the last n values, or all of them when n exceeds the length
func Tail(values []float64, n int) []float64 {
	if n >= len(values) || n < 0 {
		return values
	}
	return values[len(values)-n:]
}
