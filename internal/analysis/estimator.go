package analysis

import (
	"fmt"
	"math"

	apperrors "github.com/user/cartilage_analyzer_go/internal/errors"
)

// Estimator computes Hayes-corrected equilibrium and instantaneous moduli.
type Estimator struct {
	tables *HayesTables
}

// NewEstimator returns an estimator using the given κ tables.
func NewEstimator(tables *HayesTables) *Estimator {
	return &Estimator{tables: tables}
}

// Estimate computes both correction tables for one sample. Equilibrium stress
// comes from the equilibrium force row, instantaneous stress from the
// delta-peak force row.
func (e *Estimator) Estimate(ft *FeatureTable, ind Indenter) (*Result, error) {
	if err := ind.Validate(); err != nil {
		return nil, err
	}
	if ft == nil || ft.Steps() == 0 {
		return nil, apperrors.NewConfig("Features", apperrors.CodeInvalidParameter, "feature table has no steps")
	}

	equ, err := e.estimate(Equilibrium, ft, ft.EquilibriumForce, ind.Radius, ind.PoissonEquilibrium)
	if err != nil {
		return nil, fmt.Errorf("equilibrium modulus: %w", err)
	}
	inst, err := e.estimate(Instantaneous, ft, ft.DeltaPeakForce, ind.Radius, ind.PoissonInstantaneous)
	if err != nil {
		return nil, fmt.Errorf("instantaneous modulus: %w", err)
	}
	return &Result{Equilibrium: equ, Instantaneous: inst}, nil
}

func (e *Estimator) estimate(kind ModulusKind, ft *FeatureTable, force []float64, radius, poisson float64) (*CorrectionTable, error) {
	n := ft.Steps()
	ct := newCorrectionTable(kind, poisson, n)
	area := math.Pi * radius * radius

	for i := 0; i < n; i++ {
		h := ft.Thickness[i]
		if !(h > 0) || !isFinite(h) {
			return nil, apperrors.NewNumeric(i, "thickness", apperrors.CodeDivideByZero,
				fmt.Sprintf("thickness %v is not a positive number", h))
		}
		ct.HayesRatio[i] = radius / h
		ct.Kappa[i] = e.tables.Kappa(kind, ct.HayesRatio[i])
		if !(ct.Kappa[i] > 0) {
			return nil, apperrors.NewNumeric(i, "kappa", apperrors.CodeDivideByZero,
				fmt.Sprintf("correction factor %v at ratio %v is not positive", ct.Kappa[i], ct.HayesRatio[i]))
		}

		if !isFinite(force[i]) {
			return nil, apperrors.NewNumeric(i, "force", apperrors.CodeNonNumeric,
				fmt.Sprintf("force %v is not finite", force[i]))
		}
		ct.Stress[i] = force[i] / area

		if ft.CumulativeStrain[i] == 0 || !isFinite(ft.CumulativeStrain[i]) {
			return nil, apperrors.NewNumeric(i, "cumulative strain", apperrors.CodeDivideByZero,
				fmt.Sprintf("cumulative strain %v cannot divide stress", ft.CumulativeStrain[i]))
		}
		ct.StepwiseModulus[i] = ct.Stress[i] / ft.CumulativeStrain[i]
	}

	slope, ok := fitSlope(ft.CumulativeStrain, ct.Stress)
	if !ok {
		return nil, apperrors.NewNumeric(-1, "stress-strain fit", apperrors.CodeDegenerateFit,
			"cumulative strains do not vary, slope is undefined")
	}

	scale := (1 - poisson*poisson) * math.Pi
	for i := 0; i < n; i++ {
		ct.FittedModulus[i] = slope

		measured := ft.MeasuredStrain[i]
		if measured == 0 || !isFinite(measured) {
			return nil, apperrors.NewNumeric(i, "measured strain", apperrors.CodeDivideByZero,
				fmt.Sprintf("measured strain %v cannot divide stress", measured))
		}
		ct.CorrectedStepwise[i] = scale * ct.HayesRatio[i] * (ct.Stress[i] / measured) / (2 * ct.Kappa[i])
		ct.CorrectedFitted[i] = scale * ct.HayesRatio[0] * ct.FittedModulus[i] / (2 * ct.Kappa[0])
	}
	return ct, nil
}
