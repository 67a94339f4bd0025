package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/user/cartilage_analyzer_go/internal/analysis"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func sampleResult(t *testing.T) *analysis.SampleResult {
	t.Helper()
	ft := analysis.NewFeatureTable(3)
	copy(ft.Thickness, []float64{2.0, 1.9, 1.805})
	copy(ft.Strain, []float64{0.05, 0.05, 0.05})
	copy(ft.MeasuredStrain, []float64{0.05, 0.05, 0.05})
	copy(ft.CumulativeStrain, []float64{0.05, 0.10, 0.15})
	copy(ft.EquilibriumForce, []float64{0.4, 0.9, 1.5})
	copy(ft.InitialForce, []float64{0.02, 0.45, 0.95})
	copy(ft.PeakForce, []float64{1.5, 2.5, 3.5})
	copy(ft.DeltaPeakForce, []float64{1.48, 2.1, 2.6})

	tables, err := analysis.NewHayesTables()
	require.NoError(t, err)
	res, err := analysis.NewEstimator(tables).Estimate(ft, analysis.Indenter{
		Radius: 0.5, PoissonEquilibrium: 0.1, PoissonInstantaneous: 0.5,
	})
	require.NoError(t, err)
	return &analysis.SampleResult{Label: "P1", Features: ft, Moduli: res}
}

func TestFormatTable(t *testing.T) {
	out := FormatTable([][]float64{{0.1, 0.1, 5}, {0.2, 0.2, 5.1}})
	want := "1.000000000000000056e-01\t1.000000000000000056e-01\t5.000000000000000000e+00\n" +
		"2.000000000000000111e-01\t2.000000000000000111e-01\t5.099999999999999645e+00\n"
	assert.Equal(t, want, string(out))
	assert.Empty(t, FormatTable(nil))
}

func TestWriteTable_OverwritesAndIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.txt")

	require.NoError(t, WriteTable(path, [][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}))
	rows := [][]float64{{1.5, -2}, {3, 4e-9}}
	require.NoError(t, WriteTable(path, rows))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, WriteTable(path, rows))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, FormatTable(rows), first)
}

func TestWriteTable_BadPath(t *testing.T) {
	err := WriteTable(filepath.Join(t.TempDir(), "missing", "table.txt"), [][]float64{{1}})
	assert.Error(t, err)
}

func TestWriteModuliWorkbook(t *testing.T) {
	res := sampleResult(t)
	path := filepath.Join(t.TempDir(), "P1-StaticElasticModuli.xlsx")
	require.NoError(t, WriteModuliWorkbook(path, res.Moduli))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetEquilibrium, SheetInstantaneous}, f.GetSheetList())

	for _, s := range []struct {
		sheet string
		table *analysis.CorrectionTable
	}{
		{SheetEquilibrium, res.Moduli.Equilibrium},
		{SheetInstantaneous, res.Moduli.Instantaneous},
	} {
		rows, err := f.GetRows(s.sheet)
		require.NoError(t, err)
		require.Len(t, rows, analysis.CorrectionRows+1)
		assert.Equal(t, []string{"Data", "Step 0", "Step 1", "Step 2"}, rows[0])
		for r, label := range s.table.Labels() {
			assert.Equal(t, label, rows[r+1][0])
			assert.Len(t, rows[r+1], 4)
		}
	}

	v, err := f.GetCellValue(SheetEquilibrium, "B4")
	require.NoError(t, err)
	assert.NotEmpty(t, v)
}

func TestWriteModuliWorkbook_NoResult(t *testing.T) {
	assert.Error(t, WriteModuliWorkbook(filepath.Join(t.TempDir(), "x.xlsx"), nil))
}

func TestCreatePlots(t *testing.T) {
	res := sampleResult(t)

	img, err := CreateStressStrainPlot(res, PlotSize{Width: 400, Height: 200})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))

	img, err = CreateModulusBarChart(res.Moduli, res.Label, PlotSize{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))

	_, err = CreateStressStrainPlot(nil, DefaultPlotSize)
	assert.Error(t, err)
	_, err = CreateModulusBarChart(nil, "", DefaultPlotSize)
	assert.Error(t, err)
}

func TestFittedLine(t *testing.T) {
	line, err := fittedLine([]float64{0.05, 0.10, 0.15}, []float64{1, 2, 3}, 20)
	require.NoError(t, err)
	require.Len(t, line.XYs, 2)
	assert.InDelta(t, 0.05, line.XYs[0].X, 1e-12)
	assert.InDelta(t, 1, line.XYs[0].Y, 1e-12)
	assert.InDelta(t, 3, line.XYs[1].Y, 1e-12)

	// one point: slope y/(2x) through (x, y), intercept y/2
	line, err = fittedLine([]float64{0.05}, []float64{0.4}, 4)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, line.XYs[0].Y, 1e-12)
	assert.InDelta(t, 0.4, line.XYs[1].Y, 1e-12)
}

func TestCreateStressStrainPlot_SingleStep(t *testing.T) {
	ft := analysis.NewFeatureTable(1)
	ft.Thickness[0], ft.Strain[0], ft.MeasuredStrain[0], ft.CumulativeStrain[0] = 2, 0.05, 0.05, 0.05
	ft.EquilibriumForce[0], ft.DeltaPeakForce[0] = 0.4, 1.2
	tables, err := analysis.NewHayesTables()
	require.NoError(t, err)
	moduli, err := analysis.NewEstimator(tables).Estimate(ft, analysis.Indenter{Radius: 0.5, PoissonEquilibrium: 0.1, PoissonInstantaneous: 0.5})
	require.NoError(t, err)

	img, err := CreateStressStrainPlot(&analysis.SampleResult{Label: "S", Features: ft, Moduli: moduli}, DefaultPlotSize)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))
}

func TestBuildPDFReport(t *testing.T) {
	res := sampleResult(t)
	strain, err := CreateStressStrainPlot(res, DefaultPlotSize)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "P1-StaticElasticModuli.pdf")
	in := ReportInput{
		Source:   "P1",
		Sample:   analysis.SampleSpec{Thickness: 2, Strains: []float64{0.05, 0.05, 0.05}},
		Indenter: analysis.Indenter{Radius: 0.5, PoissonEquilibrium: 0.1, PoissonInstantaneous: 0.5},
		Result:   res,
	}
	require.NoError(t, BuildPDFReport(path, in, map[string][]byte{PlotStressStrain: strain}, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestBuildPDFReport_ManySteps(t *testing.T) {
	ft := analysis.NewFeatureTable(stepsPerTable*2 + 1)
	h := 3.0
	for i := 0; i < ft.Steps(); i++ {
		ft.Thickness[i] = h
		h *= 0.98
		ft.Strain[i] = 0.02
		ft.MeasuredStrain[i] = 0.02
		ft.CumulativeStrain[i] = 0.02 * float64(i+1)
		ft.EquilibriumForce[i] = 0.1 * float64(i+1)
		ft.DeltaPeakForce[i] = 0.3 * float64(i+1)
	}
	tables, err := analysis.NewHayesTables()
	require.NoError(t, err)
	moduli, err := analysis.NewEstimator(tables).Estimate(ft, analysis.Indenter{Radius: 1, PoissonInstantaneous: 0.5})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "many.pdf")
	require.NoError(t, BuildPDFReport(path, ReportInput{Result: &analysis.SampleResult{Label: "M", Features: ft, Moduli: moduli}}, nil, nil))
	assert.FileExists(t, path)
}
