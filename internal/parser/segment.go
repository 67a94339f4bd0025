package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "github.com/user/cartilage_analyzer_go/internal/errors"
)

type scanState int

const (
	stateIdle scanState = iota
	stateInSection
)

// NewLines numbers and trims raw file lines.
func NewLines(raw []string) []Line {
	lines := make([]Line, len(raw))
	for i, s := range raw {
		lines[i] = Line{Number: i + 1, Text: strings.TrimSpace(s)}
	}
	return lines
}

// ScanSections returns every tags.Start..tags.End occurrence in order.
// End tags seen while idle belong to other section kinds and are ignored. A start
// tag inside an open section, or an open section at end of input, is a
// TRUNCATED_SECTION error.
func ScanSections(lines []Line, tags Tags) ([]Section, error) {
	var (
		sections []Section
		current  *Section
		state    = stateIdle
	)
	for _, ln := range lines {
		switch state {
		case stateIdle:
			if ln.Text == tags.Start {
				current = &Section{Tag: tags.Start, Start: ln.Number, Lines: []Line{ln}}
				state = stateInSection
			}
		case stateInSection:
			switch ln.Text {
			case tags.End:
				sections = append(sections, *current)
				current = nil
				state = stateIdle
			case tags.Start:
				return nil, apperrors.NewFormat("", current.Start, apperrors.CodeTruncatedSection,
					fmt.Sprintf("section %s opened here is not closed by %s before the next %s (line %d)",
						tags.Start, tags.End, tags.Start, ln.Number))
			default:
				current.Lines = append(current.Lines, ln)
			}
		}
	}
	if state == stateInSection {
		return nil, apperrors.NewFormat("", current.Start, apperrors.CodeTruncatedSection,
			fmt.Sprintf("section %s opened here is not closed by %s before end of file", tags.Start, tags.End))
	}
	return sections, nil
}

// Body returns the section lines after the metadata header.
func (s Section) Body(headerLines int) ([]Line, error) {
	if len(s.Lines) < headerLines {
		return nil, apperrors.NewFormat("", s.Start, apperrors.CodeHeaderMismatch,
			fmt.Sprintf("section %s has %d lines, fewer than its %d header lines", s.Tag, len(s.Lines), headerLines))
	}
	return s.Lines[headerLines:], nil
}

// Split cuts body lines at each divider. Every divider closes one step; lines
// after the last divider are returned as the trailing remainder.
func Split(body []Line, divider string) (steps [][]Line, trailing []Line) {
	var cur []Line
	for _, ln := range body {
		if ln.Text == divider {
			steps = append(steps, cur)
			cur = nil
			continue
		}
		cur = append(cur, ln)
	}
	return steps, cur
}

// Apply parses rows and projects them into a table. Rows must have exactly
// p.RawColumns tab/space separated fields.
func (p Projection) Apply(rows []Line) (Table, error) {
	table := make(Table, 0, len(rows))
	for _, ln := range rows {
		fields := strings.Fields(ln.Text)
		if len(fields) != p.RawColumns {
			return nil, apperrors.NewFormat("", ln.Number, apperrors.CodeMalformedRow,
				fmt.Sprintf("expected %d columns, found %d", p.RawColumns, len(fields)))
		}
		out := make([]float64, len(p.Columns))
		for j, src := range p.Columns {
			v, err := parseField(fields[src], ln.Number, src)
			if err != nil {
				return nil, err
			}
			if p.Absolute[j] {
				v = math.Abs(v)
			}
			out[j] = v
		}
		table = append(table, out)
	}
	return table, nil
}

func parseField(tok string, line, col int) (float64, error) {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		e := apperrors.NewNumeric(-1, fmt.Sprintf("column %d", col), apperrors.CodeNonNumeric,
			fmt.Sprintf("token %q is not a number", tok)).Wrap(err)
		e.Line = line
		return 0, e
	}
	return v, nil
}
