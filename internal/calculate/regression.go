package calculate

import "math"

// Regression is an ordinary least squares fit of y against x = 0..n-1
type Regression struct {
	Slope     float64
	Intercept float64
	RSquared  float64
	// StdErr is the residual standard error sqrt(SSR / (n-2))
	StdErr float64
	N      int
}

// Predict evaluates the fitted line at x
func (r Regression) Predict(x float64) float64 {
	return r.Intercept + r.Slope*x
}

// LinearRegression fits y = a + b*x with x being the index of each value
func LinearRegression(values []float64) Regression {
	n := len(values)
	if n == 0 {
		return Regression{}
	}
	if n == 1 {
		return Regression{Intercept: values[0], N: 1}
	}

	meanX := float64(n-1) / 2
	meanY := Average(values)

	var sxx, sxy, sst float64
	for i, y := range values {
		dx := float64(i) - meanX
		dy := y - meanY
		sxx += dx * dx
		sxy += dx * dy
		sst += dy * dy
	}

	slope := sxy / sxx
	intercept := meanY - slope*meanX

	var ssr float64
	for i, y := range values {
		residual := y - (intercept + slope*float64(i))
		ssr += residual * residual
	}

	reg := Regression{Slope: slope, Intercept: intercept, N: n}
	if sst > 0 {
		reg.RSquared = math.Max(0, 1-ssr/sst)
	}
	if n > 2 {
		reg.StdErr = math.Sqrt(ssr / float64(n-2))
	}
	return reg
}

// Slope is a shortcut for the OLS slope of the trailing window
func Slope(values []float64, window int) float64 {
	return LinearRegression(Tail(values, window)).Slope
}
