package analysis

import (
	"fmt"

	"github.com/user/cartilage_analyzer_go/internal/parser"
)

// Sample is everything needed to process one specimen end to end.
type Sample struct {
	Label    string
	Steps    []parser.Table
	Spec     SampleSpec
	Indenter Indenter
}

// ProcessSample builds the feature table and both modulus tables of a sample.
// It has no side effects; persisting the result is the caller's job.
func (e *Estimator) ProcessSample(s Sample) (*SampleResult, error) {
	if err := s.Spec.Validate(len(s.Steps)); err != nil {
		return nil, err
	}
	if err := s.Indenter.Validate(); err != nil {
		return nil, err
	}

	ft, err := BuildFeatureTable(s.Steps, s.Spec)
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", s.Label, err)
	}
	res, err := e.Estimate(ft, s.Indenter)
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", s.Label, err)
	}
	return &SampleResult{Label: s.Label, Features: ft, Moduli: res}, nil
}
