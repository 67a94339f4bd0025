package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/user/cartilage_analyzer_go/internal/analysis"
	"github.com/user/cartilage_analyzer_go/internal/config"
	"github.com/user/cartilage_analyzer_go/internal/files"
	"github.com/user/cartilage_analyzer_go/internal/infrastructure"
	"github.com/user/cartilage_analyzer_go/internal/ledger"
	"github.com/user/cartilage_analyzer_go/internal/parser"
	"github.com/user/cartilage_analyzer_go/internal/report"
)

// featureSuffix is stripped from feature table names to recover the sample label.
const featureSuffix = "-StaticElasticMod-Input"

// App drives the pipeline stages one file or sample at a time. A failing item
// is logged and recorded, and the next item still runs.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	runID     string
	ledger    *ledger.Store // nil when disabled
	archiver  *files.Archiver
	estimator *analysis.Estimator
	failures  int
}

// NewApp wires an App. store may be nil.
func NewApp(cfg *config.Config, logger *slog.Logger, runID string, store *ledger.Store) (*App, error) {
	tables, err := analysis.NewHayesTables()
	if err != nil {
		return nil, err
	}
	return &App{
		cfg:       cfg,
		logger:    logger.With(slog.String("run_id", runID)),
		runID:     runID,
		ledger:    store,
		archiver:  files.NewArchiver(cfg.Archive),
		estimator: analysis.NewEstimator(tables),
	}, nil
}

// Failures is the number of items that failed so far.
func (a *App) Failures() int { return a.failures }

func (a *App) sendStatus(stage, msg string, attrs ...any) {
	infrastructure.Component(a.logger, stage).Info(msg, attrs...)
}

// finish logs the outcome of one item and records it in the ledger.
func (a *App) finish(e ledger.Entry, err error) ledger.Entry {
	log := infrastructure.Component(a.logger, e.Stage)
	if err != nil {
		a.failures++
		e = e.Failed(err)
		log.Error("item failed", slog.String("source", e.Source), slog.String("error", err.Error()))
	} else {
		log.Info("item finished", slog.String("source", e.Source), slog.Int("outputs", e.Outputs))
	}
	if a.ledger == nil {
		return e
	}
	e.RunID = a.runID
	rec, lerr := a.ledger.Record(e)
	if lerr != nil {
		log.Warn("ledger write failed", slog.String("error", lerr.Error()))
		return e
	}
	return rec
}

func (a *App) digest(path string) string {
	d, err := ledger.DigestFile(path)
	if err != nil {
		a.logger.Debug("digest failed", slog.String("file", path), slog.String("error", err.Error()))
		return ""
	}
	return d
}

func (a *App) archive(stage, path string) {
	if !a.archiver.Enabled() {
		return
	}
	dst, err := a.archiver.Archive(path)
	if err != nil {
		infrastructure.Component(a.logger, stage).Warn("archive failed", slog.String("file", path), slog.String("error", err.Error()))
		return
	}
	a.sendStatus(stage, "archived input", slog.String("file", path), slog.String("archive", dst))
}

func (a *App) writeTable(layout files.Layout, path string, rows [][]float64) error {
	if err := layout.CheckWritable(path); err != nil {
		return err
	}
	return report.WriteTable(path, rows)
}

// ExtractSinusoid writes one table per sinusoid section of every file.
func (a *App) ExtractSinusoid(paths []string) {
	for _, path := range paths {
		e := ledger.Entry{Stage: ledger.StageSinusoid, Source: path, Digest: a.digest(path)}
		n, err := a.extractSinusoidFile(path)
		e.Outputs = n
		a.finish(e, err)
		if err == nil {
			a.archive(ledger.StageSinusoid, path)
		}
	}
}

func (a *App) extractSinusoidFile(path string) (int, error) {
	a.sendStatus(ledger.StageSinusoid, "extracting", slog.String("file", path))
	lines, err := parser.ReadLines(path)
	if err != nil {
		return 0, err
	}
	tables, err := parser.ExtractSinusoid(filepath.Base(path), lines)
	if err != nil {
		return 0, err
	}
	a.sendStatus(ledger.StageSinusoid, "sections found", slog.String("file", path), slog.Int("segments", len(tables)))

	layout := files.NewLayout(filepath.Dir(path), a.cfg.Output)
	if err := layout.Ensure(); err != nil {
		return 0, err
	}

	seen := make(map[string]int, len(tables))
	for _, t := range tables {
		seen[t.Frequency]++
	}
	base := files.BaseName(path)
	for i, t := range tables {
		section := 0
		if seen[t.Frequency] > 1 {
			section = t.Index
		}
		out := layout.SinusoidPath(base, t.Frequency, section)
		if err := a.writeTable(layout, out, t.Table); err != nil {
			return i, err
		}
		a.sendStatus(ledger.StageSinusoid, "table written",
			slog.String("output", out), slog.String("frequency", t.Frequency), slog.Int("rows", t.Table.Rows()))
	}
	return len(tables), nil
}

// ExtractRelaxation writes the per-step and combined tables of every file.
func (a *App) ExtractRelaxation(paths []string) {
	for _, path := range paths {
		e := ledger.Entry{Stage: ledger.StageRelaxation, Source: path, Digest: a.digest(path)}
		n, err := a.extractRelaxationFile(path)
		e.Outputs = n
		a.finish(e, err)
		if err == nil {
			a.archive(ledger.StageRelaxation, path)
		}
	}
}

func (a *App) extractRelaxationFile(path string) (int, error) {
	a.sendStatus(ledger.StageRelaxation, "extracting", slog.String("file", path))
	lines, err := parser.ReadLines(path)
	if err != nil {
		return 0, err
	}
	res, err := parser.ExtractStressRelaxation(filepath.Base(path), lines)
	if err != nil {
		return 0, err
	}

	layout := files.NewLayout(filepath.Dir(path), a.cfg.Output)
	if err := layout.Ensure(); err != nil {
		return 0, err
	}

	base := files.BaseName(path)
	written := 0
	for _, sec := range res.Sections {
		section := 0
		if len(res.Sections) > 1 {
			section = sec.Index
		}
		a.sendStatus(ledger.StageRelaxation, "section found",
			slog.String("file", path), slog.Int("section", sec.Index), slog.Int("steps", len(sec.Steps)))
		for k, step := range sec.Steps {
			out := layout.StepPath(base, section, k+1)
			if err := a.writeTable(layout, out, step); err != nil {
				return written, err
			}
			written++
			a.sendStatus(ledger.StageRelaxation, "table written",
				slog.String("output", out), slog.Int("step", k+1), slog.Int("rows", step.Rows()))
		}
		out := layout.BulkPath(base, section)
		if err := a.writeTable(layout, out, sec.Bulk); err != nil {
			return written, err
		}
		written++
		a.sendStatus(ledger.StageRelaxation, "table written", slog.String("output", out), slog.Int("rows", sec.Bulk.Rows()))
	}
	return written, nil
}

// BuildInput derives the feature table of one sample from its step tables.
func (a *App) BuildInput(label string, params config.RunParams, stepPaths []string) {
	e := ledger.Entry{Stage: ledger.StageBuildInput, Source: label}
	out, err := a.buildInput(label, params, stepPaths)
	if err == nil {
		e.Outputs = 1
		a.sendStatus(ledger.StageBuildInput, "features written", slog.String("sample", label), slog.String("output", out))
	}
	a.finish(e, err)
}

func (a *App) buildInput(label string, params config.RunParams, stepPaths []string) (string, error) {
	spec, err := config.ValidateSample(params, len(stepPaths))
	if err != nil {
		return "", err
	}
	steps, err := readSteps(stepPaths)
	if err != nil {
		return "", err
	}
	ft, err := analysis.BuildFeatureTable(steps, spec)
	if err != nil {
		return "", fmt.Errorf("sample %s: %w", label, err)
	}
	out := files.FeaturePath(filepath.Dir(stepPaths[0]), label)
	if err := report.WriteTable(out, ft.Matrix()); err != nil {
		return "", err
	}
	return out, nil
}

// Estimate computes and saves both moduli tables for every feature table file.
func (a *App) Estimate(params config.RunParams, featurePaths []string) {
	ind, err := config.ValidateIndenter(params)
	if err != nil {
		for _, path := range featurePaths {
			a.finish(ledger.Entry{Stage: ledger.StageEstimate, Source: path}, err)
		}
		return
	}
	for _, path := range featurePaths {
		e := ledger.Entry{Stage: ledger.StageEstimate, Source: path, Digest: a.digest(path)}
		res, n, err := a.estimateFile(path, ind)
		e.Outputs = n
		rec := a.finish(e, err)
		if err == nil && a.ledger != nil && rec.ID != "" {
			if lerr := a.ledger.RecordModuli(rec, res.Label, res.Moduli); lerr != nil {
				a.logger.Warn("ledger write failed", slog.String("error", lerr.Error()))
			}
		}
	}
}

func (a *App) estimateFile(path string, ind analysis.Indenter) (*analysis.SampleResult, int, error) {
	a.sendStatus(ledger.StageEstimate, "estimating", slog.String("file", path))
	m, err := parser.ReadTableFile(path)
	if err != nil {
		return nil, 0, err
	}
	ft, err := analysis.FeatureTableFromMatrix(m)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	moduli, err := a.estimator.Estimate(ft, ind)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	label := strings.TrimSuffix(files.BaseName(path), featureSuffix)
	res := &analysis.SampleResult{Label: label, Features: ft, Moduli: moduli}
	spec := analysis.SampleSpec{Thickness: ft.Thickness[0], Strains: ft.Strain}
	n, err := a.saveResult(filepath.Dir(path), path, spec, ind, res)
	return res, n, err
}

// Process builds the feature table and both moduli tables of one sample in a
// single pass.
func (a *App) Process(label string, params config.RunParams, stepPaths []string) {
	e := ledger.Entry{Stage: ledger.StageProcess, Source: label}
	res, n, err := a.process(label, params, stepPaths)
	e.Outputs = n
	rec := a.finish(e, err)
	if err == nil && a.ledger != nil && rec.ID != "" {
		if lerr := a.ledger.RecordModuli(rec, label, res.Moduli); lerr != nil {
			a.logger.Warn("ledger write failed", slog.String("error", lerr.Error()))
		}
	}
}

func (a *App) process(label string, params config.RunParams, stepPaths []string) (*analysis.SampleResult, int, error) {
	spec, ind, err := params.Resolve(len(stepPaths))
	if err != nil {
		return nil, 0, err
	}
	steps, err := readSteps(stepPaths)
	if err != nil {
		return nil, 0, err
	}
	res, err := a.estimator.ProcessSample(analysis.Sample{Label: label, Steps: steps, Spec: spec, Indenter: ind})
	if err != nil {
		return nil, 0, err
	}

	dir := filepath.Dir(stepPaths[0])
	featurePath := files.FeaturePath(dir, label)
	if err := report.WriteTable(featurePath, res.Features.Matrix()); err != nil {
		return nil, 0, err
	}
	n, err := a.saveResult(dir, label, spec, ind, res)
	return res, n + 1, err
}

// saveResult writes the workbook and, when enabled, the PDF summary.
func (a *App) saveResult(dir, source string, spec analysis.SampleSpec, ind analysis.Indenter, res *analysis.SampleResult) (int, error) {
	base := res.Label
	book := files.WorkbookPath(dir, base)
	if err := report.WriteModuliWorkbook(book, res.Moduli); err != nil {
		return 0, err
	}
	a.sendStatus(ledger.StageEstimate, "workbook written", slog.String("sample", res.Label), slog.String("output", book),
		slog.Float64("equilibrium_modulus", res.Moduli.Equilibrium.CorrectedFitted[0]),
		slog.Float64("instantaneous_modulus", res.Moduli.Instantaneous.CorrectedFitted[0]))
	if !a.cfg.Report.PDF {
		return 1, nil
	}

	size := report.PlotSize{Width: a.cfg.Report.PlotWidth, Height: a.cfg.Report.PlotHeight}
	plots := make(map[string][]byte, 2)
	if img, err := report.CreateStressStrainPlot(res, size); err != nil {
		a.logger.Warn("plot failed", slog.String("plot", report.PlotStressStrain), slog.String("error", err.Error()))
	} else {
		plots[report.PlotStressStrain] = img
	}
	if img, err := report.CreateModulusBarChart(res.Moduli, res.Label, size); err != nil {
		a.logger.Warn("plot failed", slog.String("plot", report.PlotModulusBars), slog.String("error", err.Error()))
	} else {
		plots[report.PlotModulusBars] = img
	}

	pdfPath := files.ReportPath(dir, base)
	in := report.ReportInput{Source: source, Sample: spec, Indenter: ind, Result: res}
	if err := report.BuildPDFReport(pdfPath, in, plots, infrastructure.Component(a.logger, "report")); err != nil {
		return 1, err
	}
	a.sendStatus(ledger.StageEstimate, "report written", slog.String("sample", res.Label), slog.String("output", pdfPath))
	return 2, nil
}

func readSteps(paths []string) ([]parser.Table, error) {
	steps := make([]parser.Table, 0, len(paths))
	for _, p := range paths {
		t, err := parser.ReadTableFile(p)
		if err != nil {
			return nil, err
		}
		steps = append(steps, t)
	}
	return steps, nil
}
