package parser

import (
	"fmt"
	"strings"

	apperrors "github.com/user/cartilage_analyzer_go/internal/errors"
)

// ExtractSinusoid returns one table per <Sinusoid> section of a file, in order.
// name is used for error context only.
func ExtractSinusoid(name string, lines []Line) ([]SinusoidTable, error) {
	return extractSinusoid(name, lines, SinusoidFormat)
}

func extractSinusoid(name string, lines []Line, f Format) ([]SinusoidTable, error) {
	sections, err := ScanSections(lines, f.Tags)
	if err != nil {
		return nil, bindFile(err, name)
	}

	tables := make([]SinusoidTable, 0, len(sections))
	for i, sec := range sections {
		freq, err := frequencyOf(sec, f.FrequencyLine)
		if err != nil {
			return nil, bindFile(err, name)
		}
		body, err := sec.Body(f.HeaderLines)
		if err != nil {
			return nil, bindFile(err, name)
		}
		table, err := f.Step.Apply(body)
		if err != nil {
			return nil, bindFile(err, name)
		}
		tables = append(tables, SinusoidTable{Index: i + 1, Frequency: freq, Table: table})
	}
	return tables, nil
}

// frequencyOf reads the value after the tab on the section's frequency line.
func frequencyOf(sec Section, idx int) (string, error) {
	if idx < 0 || idx >= len(sec.Lines) {
		return "", apperrors.NewFormat("", sec.Start, apperrors.CodeMissingFrequency,
			fmt.Sprintf("section %s has no frequency line", sec.Tag))
	}
	ln := sec.Lines[idx]
	parts := strings.SplitN(ln.Text, "\t", 2)
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.NewFormat("", ln.Number, apperrors.CodeMissingFrequency,
			fmt.Sprintf("expected \"label<TAB>value\", found %q", ln.Text))
	}
	value := strings.TrimSpace(parts[1])
	// Some exports append further tab separated fields after the value.
	if k := strings.IndexByte(value, '\t'); k >= 0 {
		value = strings.TrimSpace(value[:k])
	}
	return value, nil
}

// ExtractStressRelaxation splits every <Stress Relaxation> section into per-step
// tables at <divider> lines and builds the combined table of all data rows.
func ExtractStressRelaxation(name string, lines []Line) (*RelaxationResult, error) {
	return extractStressRelaxation(name, lines, StressRelaxationFormat)
}

func extractStressRelaxation(name string, lines []Line, f Format) (*RelaxationResult, error) {
	sections, err := ScanSections(lines, f.Tags)
	if err != nil {
		return nil, bindFile(err, name)
	}

	result := &RelaxationResult{Sections: make([]RelaxationSection, 0, len(sections))}
	for i, sec := range sections {
		body, err := sec.Body(f.HeaderLines)
		if err != nil {
			return nil, bindFile(err, name)
		}

		stepLines, trailing := Split(body, f.Tags.Divider)
		rs := RelaxationSection{Index: i + 1, Steps: make([]Table, 0, len(stepLines))}
		for _, sl := range stepLines {
			t, err := f.Step.Apply(sl)
			if err != nil {
				return nil, bindFile(err, name)
			}
			rs.Steps = append(rs.Steps, t)
		}

		if f.Bulk != nil {
			all := make([]Line, 0, len(body))
			for _, sl := range stepLines {
				all = append(all, sl...)
			}
			all = append(all, trailing...)
			bulk, err := f.Bulk.Apply(all)
			if err != nil {
				return nil, bindFile(err, name)
			}
			rs.Bulk = bulk
		}
		result.Sections = append(result.Sections, rs)
	}
	return result, nil
}

func bindFile(err error, name string) error {
	var e *apperrors.Error
	if apperrors.As(err, &e) && e.File == "" {
		return e.WithFile(name)
	}
	return err
}
