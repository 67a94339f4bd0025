package analysis

import (
	"fmt"

	apperrors "github.com/user/cartilage_analyzer_go/internal/errors"
	"github.com/user/cartilage_analyzer_go/internal/parser"
)

const (
	// EquilibriumWindow is the number of trailing rows averaged for the
	// equilibrium force of a step.
	EquilibriumWindow = 101
	// InitialWindow is the number of leading rows averaged for the initial force.
	InitialWindow = 20
)

// MinStepRows is the smallest step table BuildFeatureTable accepts.
const MinStepRows = EquilibriumWindow

// BuildFeatureTable derives the 8 x N feature table from N step tables ordered
// by step. Each table has the (position, force, time) layout written by the
// stress-relaxation extractor.
func BuildFeatureTable(steps []parser.Table, spec SampleSpec) (*FeatureTable, error) {
	if err := spec.Validate(len(steps)); err != nil {
		return nil, err
	}

	n := len(steps)
	ft := NewFeatureTable(n)
	for i, table := range steps {
		if table.Rows() < MinStepRows {
			return nil, apperrors.NewNumeric(i, "equilibrium force", apperrors.CodeInsufficientRows,
				fmt.Sprintf("step table has %d rows, the %d-row equilibrium window needs at least %d",
					table.Rows(), EquilibriumWindow, MinStepRows))
		}
		if table.Cols() <= parser.StepColForce {
			e := apperrors.NewFormat("", 0, apperrors.CodeMalformedRow,
				fmt.Sprintf("step table has %d columns, need position and force", table.Cols()))
			e.Step, e.Quantity = i, "force column"
			return nil, e
		}

		if i == 0 {
			ft.Thickness[i] = spec.Thickness
		} else {
			ft.Thickness[i] = ft.Thickness[i-1] * (1 - spec.Strains[i-1])
		}
		ft.Strain[i] = spec.Strains[i]

		first, last := table[0][parser.StepColPosition], table[table.Rows()-1][parser.StepColPosition]
		ft.MeasuredStrain[i] = (last - first) / spec.Thickness
		ft.CumulativeStrain[i] = ft.MeasuredStrain[i]
		if i > 0 {
			ft.CumulativeStrain[i] += ft.CumulativeStrain[i-1]
		}

		force := table.Column(parser.StepColForce)
		ft.EquilibriumForce[i] = calculateMean(force[len(force)-EquilibriumWindow:])
		ft.InitialForce[i] = calculateMean(force[:InitialWindow])
		ft.PeakForce[i] = calculateMax(force)
		for _, q := range []struct {
			name string
			v    float64
		}{
			{"equilibrium force", ft.EquilibriumForce[i]},
			{"initial force", ft.InitialForce[i]},
			{"peak force", ft.PeakForce[i]},
		} {
			if !isFinite(q.v) {
				return nil, apperrors.NewNumeric(i, q.name, apperrors.CodeNonNumeric,
					"window contains no finite force values")
			}
		}

		if i == 0 {
			ft.DeltaPeakForce[i] = ft.PeakForce[i] - ft.InitialForce[i]
		} else {
			ft.DeltaPeakForce[i] = ft.PeakForce[i] - ft.EquilibriumForce[i-1]
		}
	}
	return ft, nil
}
