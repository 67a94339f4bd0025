package report

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
)

// tableFormat is the fixed scientific notation used for every numeric cell.
const tableFormat = 'e'

const tablePrecision = 18

// FormatTable renders rows as tab-delimited scientific notation, one row per line.
func FormatTable(rows [][]float64) []byte {
	var buf bytes.Buffer
	_ = writeRows(&buf, rows)
	return buf.Bytes()
}

// WriteTable writes rows to path, replacing any previous output. The file is
// written in full and closed before returning.
func WriteTable(path string, rows [][]float64) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if err := writeRows(w, rows); err != nil {
		f.Close()
		return fmt.Errorf("failed to write table %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write table %s: %w", path, err)
	}
	return f.Close()
}

func writeRows(w io.Writer, rows [][]float64) error {
	var line []byte
	for _, row := range rows {
		line = line[:0]
		for j, v := range row {
			if j > 0 {
				line = append(line, '\t')
			}
			line = strconv.AppendFloat(line, v, tableFormat, tablePrecision, 64)
		}
		line = append(line, '\n')
		if _, err := w.Write(line); err != nil {
			return err
		}
	}
	return nil
}
