package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "github.com/user/cartilage_analyzer_go/internal/errors"
)

// ReadLines reads a whole file and returns its numbered, trimmed lines.
// The file is closed before returning.
func ReadLines(path string) ([]Line, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return splitLines(data)
}

func splitLines(data []byte) ([]Line, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var raw []string
	for scanner.Scan() {
		raw = append(raw, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to split lines: %w", err)
	}
	return NewLines(raw), nil
}

// ReadTable parses a whitespace-delimited numeric text table. Blank lines and
// lines starting with '#' are skipped; all remaining rows must have the same
// number of columns.
func ReadTable(r io.Reader) (Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	lines, err := splitLines(data)
	if err != nil {
		return nil, err
	}

	var table Table
	width := -1
	for _, ln := range lines {
		if ln.Text == "" || strings.HasPrefix(ln.Text, "#") {
			continue
		}
		fields := strings.Fields(ln.Text)
		if width < 0 {
			width = len(fields)
		} else if len(fields) != width {
			return nil, apperrors.NewFormat("", ln.Number, apperrors.CodeMalformedRow,
				fmt.Sprintf("expected %d columns, found %d", width, len(fields)))
		}
		row := make([]float64, len(fields))
		for j, tok := range fields {
			v, err := parseField(tok, ln.Number, j)
			if err != nil {
				return nil, err
			}
			row[j] = v
		}
		table = append(table, row)
	}
	return table, nil
}

// ReadTableFile opens, fully reads and closes path, then parses it with ReadTable.
func ReadTableFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadTable(f)
	if err != nil {
		return nil, bindFile(err, path)
	}
	return t, nil
}
