package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/user/cartilage_analyzer_go/internal/analysis"
)

// CreateModulusBarChart plots the corrected step-wise equilibrium and
// instantaneous moduli side by side for every step.
func CreateModulusBarChart(res *analysis.Result, label string, size PlotSize) ([]byte, error) {
	if res == nil || res.Equilibrium == nil || res.Instantaneous == nil {
		return nil, fmt.Errorf("no moduli to plot")
	}
	n := res.Equilibrium.Steps()
	if n == 0 {
		return nil, fmt.Errorf("no steps to plot")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Corrected step-wise moduli (%s)", label)
	p.Y.Label.Text = "Modulus (MPa)"
	p.Add(plotter.NewGrid())

	w := vg.Points(20)
	bars := []struct {
		table  *analysis.CorrectionTable
		offset vg.Length
	}{
		{res.Equilibrium, -w / 2},
		{res.Instantaneous, w / 2},
	}
	for _, b := range bars {
		chart, err := plotter.NewBarChart(plotter.Values(b.table.CorrectedStepwise), w)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s bars: %v", b.table.Kind, err)
		}
		chart.Offset = b.offset
		chart.LineStyle.Width = vg.Length(0)
		if b.table.Kind == analysis.Instantaneous {
			chart.Color = instantaneousColor
		} else {
			chart.Color = equilibriumColor
		}
		p.Add(chart)
		p.Legend.Add(b.table.Kind.String(), chart)
	}

	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("Step %d", i)
	}
	p.NominalX(names...)
	p.Legend.Top = true

	return renderPNG(p, size)
}
