package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/user/cartilage_analyzer_go/internal/analysis"
)

// Sheet names of the moduli workbook.
const (
	SheetEquilibrium   = "Equ Mod."
	SheetInstantaneous = "Inst Mod."
)

// WriteModuliWorkbook saves both correction tables of a sample to an xlsx
// workbook, one sheet per modulus kind. Column A holds the row labels and row 1
// the "Step i" headers.
func WriteModuliWorkbook(path string, res *analysis.Result) error {
	if res == nil || res.Equilibrium == nil || res.Instantaneous == nil {
		return fmt.Errorf("no moduli to write to %s", path)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetEquilibrium); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetInstantaneous); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	for _, s := range []struct {
		name  string
		table *analysis.CorrectionTable
	}{
		{SheetEquilibrium, res.Equilibrium},
		{SheetInstantaneous, res.Instantaneous},
	} {
		if err := writeCorrectionSheet(f, s.name, s.table); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", s.name, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func writeCorrectionSheet(f *excelize.File, sheet string, ct *analysis.CorrectionTable) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}

	header := make([]interface{}, 0, ct.Steps()+1)
	header = append(header, "Data")
	for i := 0; i < ct.Steps(); i++ {
		header = append(header, fmt.Sprintf("Step %d", i))
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	labels := ct.Labels()
	for r, values := range ct.Matrix() {
		row := make([]interface{}, 0, len(values)+1)
		row = append(row, labels[r])
		for _, v := range values {
			row = append(row, v)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	return sw.Flush()
}
