package report

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/user/cartilage_analyzer_go/internal/analysis"
)

const (
	inchToMm               = 25.4
	pdfPageWidthLandscape  = 11 * inchToMm // Letter landscape
	pdfPageHeightLandscape = 8.5 * inchToMm
	pdfMargin              = 0.5 * inchToMm
	pdfContentWidth        = pdfPageWidthLandscape - (2 * pdfMargin)

	// stepsPerTable keeps the widest table inside the landscape content width.
	stepsPerTable = 8
)

// Plot keys understood by BuildPDFReport.
const (
	PlotStressStrain = "stress_strain"
	PlotModulusBars  = "modulus_bars"
)

var featureLabels = []string{
	"Thickness (mm)", "Strain", "Measured strain", "Cumulative strain",
	"Equilibrium force (N)", "Initial force (N)", "Peak force (N)", "Delta peak force (N)",
}

// ReportInput is what the PDF summary of one sample shows.
type ReportInput struct {
	Source   string
	Sample   analysis.SampleSpec
	Indenter analysis.Indenter
	Result   *analysis.SampleResult
}

// pdfStyler holds reusable styling and state for PDF generation
type pdfStyler struct {
	pdf         *gofpdf.Fpdf
	styles      map[string]func()
	lineHeight  float64
	currentY    float64 // manually tracked Y for flowing content
	pageHeight  float64
	contentTopY float64
	logger      *slog.Logger
}

func newPDFStyler(pdf *gofpdf.Fpdf, logger *slog.Logger) *pdfStyler {
	s := &pdfStyler{
		pdf:         pdf,
		styles:      make(map[string]func()),
		lineHeight:  6,
		pageHeight:  pdfPageHeightLandscape - pdfMargin,
		contentTopY: pdfMargin,
		logger:      logger,
	}
	s.currentY = s.contentTopY
	s.defineStyles()
	return s
}

func (s *pdfStyler) defineStyles() {
	s.styles["h1"] = func() {
		s.pdf.SetFont("Arial", "B", 16)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["h2"] = func() {
		s.pdf.SetFont("Arial", "B", 14)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["normal"] = func() {
		s.pdf.SetFont("Arial", "", 10)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["tableHeader"] = func() {
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetFillColor(200, 200, 200)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["tableCell"] = func() {
		s.pdf.SetFont("Arial", "", 9)
		s.pdf.SetTextColor(50, 50, 50)
	}
	s.styles["tableLabel"] = func() {
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetTextColor(0, 0, 0)
	}
}

func (s *pdfStyler) applyStyle(styleName string) {
	if fn, ok := s.styles[styleName]; ok {
		fn()
	} else {
		s.styles["normal"]()
	}
}

func (s *pdfStyler) checkAddPage(neededHeight float64) {
	if s.currentY+neededHeight > s.pageHeight {
		s.newPage()
	}
}

func (s *pdfStyler) newPage() {
	s.pdf.AddPage()
	s.currentY = s.contentTopY
}

func (s *pdfStyler) writeParagraph(text string, styleName string, align string) {
	s.applyStyle(styleName)
	lines := s.pdf.SplitLines([]byte(text), pdfContentWidth)
	s.checkAddPage(float64(len(lines)) * s.lineHeight)

	s.pdf.SetXY(pdfMargin, s.currentY)
	s.pdf.MultiCell(pdfContentWidth, s.lineHeight, text, "", align, false)
	s.currentY = s.pdf.GetY() + 1
}

func (s *pdfStyler) addSpacer(height float64) {
	s.currentY += height
	if s.currentY > s.pageHeight {
		s.newPage()
	}
}

func (s *pdfStyler) addImage(imageBytes []byte, imageName string, width float64, height float64, caption string, styleName string) {
	s.pdf.RegisterImageOptionsReader(imageName, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(imageBytes))

	if width == 0 && height == 0 {
		width = pdfContentWidth / 2
		height = width * (3.0 / 4.0)
		s.logger.Warn("auto-sizing image", slog.String("image", imageName))
	}
	if width > pdfContentWidth {
		ratio := pdfContentWidth / width
		width = pdfContentWidth
		height *= ratio
	}

	captionHeight := 0.0
	if caption != "" {
		captionHeight = s.lineHeight + 1
	}
	s.checkAddPage(height + captionHeight)

	x := pdfMargin + (pdfContentWidth-width)/2
	s.pdf.ImageOptions(imageName, x, s.currentY, width, height, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	s.currentY += height

	if caption != "" {
		s.addSpacer(1)
		s.writeParagraph(caption, styleName, "C")
	}
	s.addSpacer(2)
}

// writeMatrix lays out a labelled row-major matrix, splitting the step
// columns over several tables when they do not fit the page width.
func (s *pdfStyler) writeMatrix(labels []string, m [][]float64) {
	if len(m) == 0 {
		return
	}
	steps := len(m[0])
	labelWidth := 0.22 * pdfContentWidth
	for start := 0; start < steps; start += stepsPerTable {
		end := min(start+stepsPerTable, steps)
		colWidth := (pdfContentWidth - labelWidth) / float64(stepsPerTable)

		s.checkAddPage(s.lineHeight * float64(len(m)+1))
		x, y := pdfMargin, s.currentY

		s.applyStyle("tableHeader")
		s.pdf.SetXY(x, y)
		s.pdf.CellFormat(labelWidth, s.lineHeight, "Data", "1", 0, "C", true, 0, "")
		x += labelWidth
		for j := start; j < end; j++ {
			s.pdf.SetXY(x, y)
			s.pdf.CellFormat(colWidth, s.lineHeight, fmt.Sprintf("Step %d", j), "1", 0, "C", true, 0, "")
			x += colWidth
		}
		y += s.lineHeight

		for r, row := range m {
			x = pdfMargin
			s.applyStyle("tableLabel")
			s.pdf.SetXY(x, y)
			s.pdf.CellFormat(labelWidth, s.lineHeight, labels[r], "1", 0, "L", false, 0, "")
			x += labelWidth

			s.applyStyle("tableCell")
			for j := start; j < end; j++ {
				s.pdf.SetXY(x, y)
				s.pdf.CellFormat(colWidth, s.lineHeight, formatCell(row[j]), "1", 0, "C", false, 0, "")
				x += colWidth
			}
			y += s.lineHeight
		}
		s.currentY = y
		s.addSpacer(3)
	}
}

func kindTitle(k analysis.ModulusKind) string {
	name := k.String()
	return strings.ToUpper(name[:1]) + name[1:]
}

func formatCell(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return fmt.Sprintf("%.4g", v)
}

// BuildPDFReport writes the one-sample summary: run parameters, the feature
// table, both correction tables and the available plots.
func BuildPDFReport(filepath string, in ReportInput, plotImages map[string][]byte, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	pdf := gofpdf.New("L", "mm", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.AddPage()

	styler := newPDFStyler(pdf, logger)

	title := "Static Elastic Moduli"
	if in.Result != nil && in.Result.Label != "" {
		title = fmt.Sprintf("Static Elastic Moduli: %s", in.Result.Label)
	}
	styler.writeParagraph(title, "h1", "C")
	styler.addSpacer(5)

	strains := make([]string, len(in.Sample.Strains))
	for i, v := range in.Sample.Strains {
		strains[i] = fmt.Sprintf("%g", v)
	}
	params := []string{
		fmt.Sprintf("Indenter radius: %g mm", in.Indenter.Radius),
		fmt.Sprintf("Poisson ratio (equilibrium): %g", in.Indenter.PoissonEquilibrium),
		fmt.Sprintf("Poisson ratio (instantaneous): %g", in.Indenter.PoissonInstantaneous),
		fmt.Sprintf("Sample thickness: %g mm", in.Sample.Thickness),
		fmt.Sprintf("Strains: %s", strings.Join(strains, ", ")),
	}
	if in.Source != "" {
		params = append([]string{fmt.Sprintf("Source: %s", in.Source)}, params...)
	}
	for _, line := range params {
		styler.writeParagraph(line, "normal", "L")
	}
	styler.addSpacer(5)

	if in.Result == nil || in.Result.Features == nil || in.Result.Moduli == nil {
		styler.writeParagraph("No results to display.", "normal", "L")
		return pdf.OutputFileAndClose(filepath)
	}

	styler.writeParagraph("Input features", "h2", "L")
	styler.writeMatrix(featureLabels, in.Result.Features.Matrix())

	for _, ct := range []*analysis.CorrectionTable{in.Result.Moduli.Equilibrium, in.Result.Moduli.Instantaneous} {
		styler.writeParagraph(fmt.Sprintf("%s modulus (Poisson %g)", kindTitle(ct.Kind), ct.Poisson), "h2", "L")
		styler.writeMatrix(ct.Labels(), ct.Matrix())
	}

	styler.newPage()
	styler.writeParagraph("Graphical Analysis", "h1", "C")
	styler.addSpacer(5)

	plotDefs := []struct {
		Key     string
		Title   string
		Caption string
	}{
		{PlotStressStrain, "Stress-strain response", "Stress against cumulative strain with least-squares fits"},
		{PlotModulusBars, "Corrected step-wise moduli", "Hayes-corrected step-wise moduli per step"},
	}

	imgWidth := pdfContentWidth * 0.8
	imgHeight := imgWidth * (DefaultPlotSize.Height / DefaultPlotSize.Width)
	for i, pDef := range plotDefs {
		if i > 0 {
			styler.newPage()
		}
		styler.writeParagraph(pDef.Title, "h2", "L")
		if imgBytes, ok := plotImages[pDef.Key]; ok && len(imgBytes) > 0 {
			styler.addImage(imgBytes, pDef.Key, imgWidth, imgHeight, pDef.Caption, "normal")
		} else {
			styler.writeParagraph(fmt.Sprintf("Plot for %s not available.", strings.ToLower(pDef.Title)), "normal", "L")
		}
	}

	return pdf.OutputFileAndClose(filepath)
}
