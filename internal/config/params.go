package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/user/cartilage_analyzer_go/internal/analysis"
	apperrors "github.com/user/cartilage_analyzer_go/internal/errors"
)

// RunParams are the per-run user parameters as given on the command line.
type RunParams struct {
	Radius               float64
	PoissonEquilibrium   float64
	PoissonInstantaneous float64
	Thickness            float64
	Strains              string // comma separated, e.g. "0.05,0.05,0.1"
}

// ParseStrains parses a comma-separated strain list. Blank entries are an error.
func ParseStrains(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, apperrors.NewConfig("Strains", apperrors.CodeInvalidParameter, "no strains given")
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, apperrors.NewConfig("Strains", apperrors.CodeInvalidParameter,
				fmt.Sprintf("entry %d %q is not a number", i+1, strings.TrimSpace(p)))
		}
		out = append(out, v)
	}
	return out, nil
}

// ValidateIndenter checks the indenter geometry and Poisson ratios.
func ValidateIndenter(p RunParams) (analysis.Indenter, error) {
	ind := analysis.Indenter{
		Radius:               p.Radius,
		PoissonEquilibrium:   p.PoissonEquilibrium,
		PoissonInstantaneous: p.PoissonInstantaneous,
	}
	if err := ind.Validate(); err != nil {
		return analysis.Indenter{}, err
	}
	return ind, nil
}

// ValidateSample parses and checks the sample parameters against the number of
// step files found. It reads no files.
func ValidateSample(p RunParams, stepFiles int) (analysis.SampleSpec, error) {
	strains, err := ParseStrains(p.Strains)
	if err != nil {
		return analysis.SampleSpec{}, err
	}
	spec := analysis.SampleSpec{Thickness: p.Thickness, Strains: strains}
	if err := spec.Validate(stepFiles); err != nil {
		return analysis.SampleSpec{}, err
	}
	return spec, nil
}

// Resolve validates every run parameter at once and reports all problems
// together.
func (p RunParams) Resolve(stepFiles int) (analysis.SampleSpec, analysis.Indenter, error) {
	ind, indErr := ValidateIndenter(p)
	spec, specErr := ValidateSample(p, stepFiles)
	if err := errors.Join(indErr, specErr); err != nil {
		return analysis.SampleSpec{}, analysis.Indenter{}, err
	}
	return spec, ind, nil
}
