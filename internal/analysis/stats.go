package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func dropNaN(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// calculateMean returns the mean of the non-NaN values, NaN if there are none.
func calculateMean(data []float64) float64 {
	valid := dropNaN(data)
	if len(valid) == 0 {
		return math.NaN()
	}
	return stat.Mean(valid, nil)
}

// calculateMax returns the largest non-NaN value, NaN if there are none.
func calculateMax(data []float64) float64 {
	valid := dropNaN(data)
	if len(valid) == 0 {
		return math.NaN()
	}
	return floats.Max(valid)
}

// fitSlope returns the least-squares slope of y against x. A single point is
// underdetermined for a slope and intercept, so it gets the minimum-norm
// solution of the column-scaled system, slope y/(2x) with intercept y/2.
// ok is false when the slope is undefined (all x equal).
func fitSlope(x, y []float64) (slope float64, ok bool) {
	switch len(x) {
	case 0:
		return math.NaN(), false
	case 1:
		if x[0] == 0 {
			return math.NaN(), false
		}
		return y[0] / (2 * x[0]), true
	}
	if stat.Variance(x, nil) == 0 {
		return math.NaN(), false
	}
	_, beta := stat.LinearRegression(x, y, nil, false)
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return beta, false
	}
	return beta, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
