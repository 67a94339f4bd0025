package analysis

import (
	"fmt"

	apperrors "github.com/user/cartilage_analyzer_go/internal/errors"
)

// Feature table row order, as persisted in the estimator input file.
const (
	RowThickness = iota
	RowStrain
	RowMeasuredStrain
	RowCumulativeStrain
	RowEquilibriumForce
	RowInitialForce
	RowPeakForce
	RowDeltaPeakForce
	FeatureRows
)

// FeatureTable holds the per-step quantities derived from a sample's stepwise
// stress-relaxation tables. Every slice has one entry per step.
type FeatureTable struct {
	Thickness        []float64 // remaining thickness at the start of each step (mm)
	Strain           []float64 // user-declared strain
	MeasuredStrain   []float64 // (last Z - first Z) / initial thickness
	CumulativeStrain []float64 // running sum of MeasuredStrain
	EquilibriumForce []float64 // mean force over the tail window
	InitialForce     []float64 // mean force over the head window
	PeakForce        []float64
	DeltaPeakForce   []float64 // peak minus the preceding baseline force
}

// NewFeatureTable allocates a table for n steps.
func NewFeatureTable(n int) *FeatureTable {
	return &FeatureTable{
		Thickness:        make([]float64, n),
		Strain:           make([]float64, n),
		MeasuredStrain:   make([]float64, n),
		CumulativeStrain: make([]float64, n),
		EquilibriumForce: make([]float64, n),
		InitialForce:     make([]float64, n),
		PeakForce:        make([]float64, n),
		DeltaPeakForce:   make([]float64, n),
	}
}

// Steps returns the number of steps (columns).
func (f *FeatureTable) Steps() int { return len(f.Thickness) }

func (f *FeatureTable) rows() [][]float64 {
	return [][]float64{
		f.Thickness, f.Strain, f.MeasuredStrain, f.CumulativeStrain,
		f.EquilibriumForce, f.InitialForce, f.PeakForce, f.DeltaPeakForce,
	}
}

// Matrix returns the table as FeatureRows rows by Steps() columns.
func (f *FeatureTable) Matrix() [][]float64 {
	out := make([][]float64, FeatureRows)
	for i, r := range f.rows() {
		out[i] = append([]float64(nil), r...)
	}
	return out
}

// FeatureTableFromMatrix rebuilds a feature table from its persisted 8 x N form.
func FeatureTableFromMatrix(m [][]float64) (*FeatureTable, error) {
	if len(m) != FeatureRows {
		return nil, apperrors.NewFormat("", 0, apperrors.CodeMalformedRow,
			fmt.Sprintf("feature table must have %d rows, found %d", FeatureRows, len(m)))
	}
	n := len(m[0])
	if n == 0 {
		return nil, apperrors.NewFormat("", 1, apperrors.CodeMalformedRow, "feature table has no step columns")
	}
	ft := NewFeatureTable(n)
	for i, dst := range ft.rows() {
		if len(m[i]) != n {
			return nil, apperrors.NewFormat("", i+1, apperrors.CodeMalformedRow,
				fmt.Sprintf("expected %d columns, found %d", n, len(m[i])))
		}
		copy(dst, m[i])
	}
	return ft, nil
}

// ModulusKind selects equilibrium or instantaneous response.
type ModulusKind int

const (
	Equilibrium ModulusKind = iota
	Instantaneous
)

func (k ModulusKind) String() string {
	switch k {
	case Equilibrium:
		return "equilibrium"
	case Instantaneous:
		return "instantaneous"
	}
	return fmt.Sprintf("ModulusKind(%d)", int(k))
}

// Correction table row order.
const (
	RowHayesRatio = iota
	RowKappa
	RowStress
	RowStepwiseModulus
	RowFittedModulus
	RowCorrectedStepwise
	RowCorrectedFitted
	CorrectionRows
)

// CorrectionTable is the Hayes-corrected modulus table of one modulus kind.
type CorrectionTable struct {
	Kind              ModulusKind
	Poisson           float64
	HayesRatio        []float64 // indenter radius / thickness
	Kappa             []float64
	Stress            []float64 // MPa when force is N and radius mm
	StepwiseModulus   []float64
	FittedModulus     []float64 // sample-wide slope, repeated per step
	CorrectedStepwise []float64
	CorrectedFitted   []float64 // anchored to step 0 geometry
}

func newCorrectionTable(kind ModulusKind, poisson float64, n int) *CorrectionTable {
	return &CorrectionTable{
		Kind:              kind,
		Poisson:           poisson,
		HayesRatio:        make([]float64, n),
		Kappa:             make([]float64, n),
		Stress:            make([]float64, n),
		StepwiseModulus:   make([]float64, n),
		FittedModulus:     make([]float64, n),
		CorrectedStepwise: make([]float64, n),
		CorrectedFitted:   make([]float64, n),
	}
}

// Steps returns the number of steps (columns).
func (c *CorrectionTable) Steps() int { return len(c.HayesRatio) }

// Matrix returns the table as CorrectionRows rows by Steps() columns.
func (c *CorrectionTable) Matrix() [][]float64 {
	return [][]float64{
		c.HayesRatio, c.Kappa, c.Stress, c.StepwiseModulus,
		c.FittedModulus, c.CorrectedStepwise, c.CorrectedFitted,
	}
}

// Labels returns the row labels used in the spreadsheet output.
func (c *CorrectionTable) Labels() []string {
	if c.Kind == Instantaneous {
		return []string{"Hayes ratio", "Inst kappa", "Inst stress", "Stepwise Inst mod",
			"fitted Inst mod", "Crt stepwise Inst", "Crt fitted Inst"}
	}
	return []string{"Hayes ratio", "Equ kappa", "Equ stress", "Stepwise Equ mod",
		"fitted Equ mod", "Crt stepwise equ", "Crt fitted equ"}
}

// Result holds both modulus tables of one sample.
type Result struct {
	Equilibrium   *CorrectionTable
	Instantaneous *CorrectionTable
}

// SampleResult is the output of ProcessSample.
type SampleResult struct {
	Label    string
	Features *FeatureTable
	Moduli   *Result
}
