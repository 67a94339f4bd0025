package report

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/user/cartilage_analyzer_go/internal/analysis"
)

// PlotSize is the rendered PNG size in points.
type PlotSize struct {
	Width  float64
	Height float64
}

// DefaultPlotSize matches the page layout of the PDF report.
var DefaultPlotSize = PlotSize{Width: 800, Height: 400}

var (
	equilibriumColor   = color.RGBA{B: 255, A: 255}
	instantaneousColor = color.RGBA{R: 255, A: 255}
)

// CreateStressStrainPlot draws equilibrium and instantaneous stress against
// cumulative strain, each with its least-squares line.
func CreateStressStrainPlot(res *analysis.SampleResult, size PlotSize) ([]byte, error) {
	if res == nil || res.Features == nil || res.Moduli == nil {
		return nil, fmt.Errorf("no sample results to plot")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Stress vs cumulative strain (%s)", res.Label)
	p.X.Label.Text = "Cumulative strain"
	p.Y.Label.Text = "Stress (MPa)"
	p.Add(plotter.NewGrid())

	strain := res.Features.CumulativeStrain
	for _, s := range []struct {
		table *analysis.CorrectionTable
		color color.Color
	}{
		{res.Moduli.Equilibrium, equilibriumColor},
		{res.Moduli.Instantaneous, instantaneousColor},
	} {
		pts := make(plotter.XYs, 0, len(strain))
		for i, x := range strain {
			y := s.table.Stress[i]
			if math.IsNaN(x) || math.IsNaN(y) {
				continue
			}
			pts = append(pts, plotter.XY{X: x, Y: y})
		}
		if len(pts) == 0 {
			continue
		}

		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s points: %v", s.table.Kind, err)
		}
		scatter.GlyphStyle.Color = s.color
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(scatter)
		p.Legend.Add(fmt.Sprintf("%s stress", s.table.Kind), scatter)

		fit, err := fittedLine(strain, s.table.Stress, s.table.FittedModulus[0])
		if err != nil {
			return nil, fmt.Errorf("failed to create %s fit: %v", s.table.Kind, err)
		}
		fit.Color = s.color
		fit.LineStyle.Width = vg.Points(1.5)
		fit.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
		p.Add(fit)
		p.Legend.Add(fmt.Sprintf("%s fit (%.3g MPa)", s.table.Kind, s.table.FittedModulus[0]), fit)
	}

	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.XOffs = vg.Points(10)

	return renderPNG(p, size)
}

// fittedLine spans the strain range with the least-squares line of the given
// slope, which passes through the centroid of the points. For a single point
// the fit has intercept y/2.
func fittedLine(x, y []float64, slope float64) (*plotter.Line, error) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range x {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if len(x) == 1 {
		lo = 0
	}
	intercept := stat.Mean(y, nil) - slope*stat.Mean(x, nil)
	return plotter.NewLine(plotter.XYs{
		{X: lo, Y: intercept + slope*lo},
		{X: hi, Y: intercept + slope*hi},
	})
}

func renderPNG(p *plot.Plot, size PlotSize) ([]byte, error) {
	if size.Width <= 0 || size.Height <= 0 {
		size = DefaultPlotSize
	}
	writer, err := p.WriterTo(vg.Points(size.Width), vg.Points(size.Height), "png")
	if err != nil {
		return nil, fmt.Errorf("failed to create plot writer: %v", err)
	}
	buf := new(bytes.Buffer)
	if _, err := writer.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("failed to write plot to buffer: %v", err)
	}
	return buf.Bytes(), nil
}
