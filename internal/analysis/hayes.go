package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/interp"
)

// Hayes correction factors tabulated against the aspect ratio a/h (indenter
// radius over sample thickness), one column per Poisson regime.
var (
	hayesRatios = []float64{0.2, 0.4, 0.6, 0.8, 1.0, 1.2, 1.4, 1.6, 1.8, 2.0}

	hayesKappaInstantaneous = []float64{1.281, 1.683, 2.211, 2.855, 3.609, 4.469, 5.441, 6.528, 7.735, 9.069}
	hayesKappaEquilibrium   = []float64{1.183, 1.434, 1.677, 1.963, 2.260, 2.564, 2.872, 3.181, 3.492, 3.804}
)

// kappaCurve is a not-a-knot cubic spline through one κ column, continued by its
// end tangents outside the tabulated range.
type kappaCurve struct {
	lo, hi float64
	spline interp.NotAKnotCubic
}

func newKappaCurve(xs, ys []float64) (*kappaCurve, error) {
	c := &kappaCurve{lo: xs[0], hi: xs[len(xs)-1]}
	if err := c.spline.Fit(xs, ys); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *kappaCurve) at(x float64) float64 {
	switch {
	case x < c.lo:
		return c.spline.Predict(c.lo) + c.spline.PredictDerivative(c.lo)*(x-c.lo)
	case x > c.hi:
		return c.spline.Predict(c.hi) + c.spline.PredictDerivative(c.hi)*(x-c.hi)
	}
	return c.spline.Predict(x)
}

// HayesTables is the immutable pair of κ lookup curves. It is built once and
// shared; lookups never mutate it.
type HayesTables struct {
	equilibrium   *kappaCurve
	instantaneous *kappaCurve
}

// NewHayesTables fits the interpolating curves of both tabulated columns.
func NewHayesTables() (*HayesTables, error) {
	eq, err := newKappaCurve(hayesRatios, hayesKappaEquilibrium)
	if err != nil {
		return nil, fmt.Errorf("failed to fit equilibrium kappa table: %w", err)
	}
	inst, err := newKappaCurve(hayesRatios, hayesKappaInstantaneous)
	if err != nil {
		return nil, fmt.Errorf("failed to fit instantaneous kappa table: %w", err)
	}
	return &HayesTables{equilibrium: eq, instantaneous: inst}, nil
}

// Kappa returns the correction factor for the given aspect ratio.
func (h *HayesTables) Kappa(kind ModulusKind, ratio float64) float64 {
	if kind == Instantaneous {
		return h.instantaneous.at(ratio)
	}
	return h.equilibrium.at(ratio)
}

// Range returns the tabulated aspect-ratio interval.
func (h *HayesTables) Range() (lo, hi float64) {
	return h.equilibrium.lo, h.equilibrium.hi
}
