package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/cartilage_analyzer_go/internal/config"
	"github.com/user/cartilage_analyzer_go/internal/ledger"
	"github.com/user/cartilage_analyzer_go/internal/parser"
)

const header = "Time, s\tPosition (z), mm\tPosition (x), mm\tPosition (y), mm\tFx, N\tFy, N\tFz, N\tTx, N-mm\tTy, N-mm\tTz, N-mm"

func row(time, z, fz float64) string {
	return fmt.Sprintf("%g\t%g\t0.01\t0.02\t-0.5\t0.3\t%g\t1.1\t-1.2\t0.4", time, z, fz)
}

// relaxationExport renders a stress-relaxation export with the given number of
// 150-row steps; each step compresses by 0.1 mm.
func relaxationExport(steps int) string {
	lines := []string{parser.TagStressRelaxation}
	for i := 1; i < 11; i++ {
		lines = append(lines, fmt.Sprintf("Meta %d:\t%d", i, i))
	}
	lines = append(lines, header)
	t := 0.0
	for s := 0; s < steps; s++ {
		base := 0.1 + 0.5*float64(s)
		for r := 0; r < 150; r++ {
			f := base + 0.4
			switch {
			case r < 20:
				f = base
			case r == 20:
				f = base + 2
			}
			z := 0.1*float64(s) + 0.1*float64(r)/149
			lines = append(lines, row(t, z, -f))
			t += 0.1
		}
		lines = append(lines, parser.TagDivider)
	}
	lines = append(lines, row(t, 0.1*float64(steps), -0.2), parser.TagEndData)
	return strings.Join(lines, "\n") + "\n"
}

func sinusoidExport(freqs ...string) string {
	var lines []string
	for _, f := range freqs {
		lines = append(lines,
			parser.TagSinusoid, "Sinusoid Info", "Amplitude, mm:\t0.05", "Frequency, Hz:\t"+f,
			"Number of cycles:\t10", "<DATA>", header,
			row(0, 1.0, -0.2), row(0.1, 1.05, 0.3), row(0.2, 1.1, -0.1),
			parser.TagEndData)
	}
	return strings.Join(lines, "\n") + "\n"
}

func testApp(t *testing.T, mutate func(*config.Config)) (*App, *ledger.Store) {
	t.Helper()
	cfg := config.Default()
	cfg.Report.PlotWidth, cfg.Report.PlotHeight = 400, 200
	if mutate != nil {
		mutate(cfg)
	}
	store, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := NewApp(cfg, logger, "run-test", store)
	require.NoError(t, err)
	return app, store
}

func write(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestApp_ExtractSinusoid(t *testing.T) {
	dir := t.TempDir()
	src := write(t, filepath.Join(dir, "S1.txt"), sinusoidExport("0.5", "1", "1"))
	app, store := testApp(t, nil)

	app.ExtractSinusoid([]string{src})
	assert.Equal(t, 0, app.Failures())

	out := filepath.Join(dir, "Output", "Sinusoid-Loading")
	assert.FileExists(t, filepath.Join(out, "S1-SinusoidLoading-0.5Hz-MultiAxisLoadCell.txt"))
	assert.FileExists(t, filepath.Join(out, "S1-SinusoidLoading-1Hz-section2-MultiAxisLoadCell.txt"))
	assert.FileExists(t, filepath.Join(out, "S1-SinusoidLoading-1Hz-section3-MultiAxisLoadCell.txt"))

	table, err := parser.ReadTableFile(filepath.Join(out, "S1-SinusoidLoading-0.5Hz-MultiAxisLoadCell.txt"))
	require.NoError(t, err)
	assert.Equal(t, parser.Table{{1.0, 0.2, 0}, {1.05, 0.3, 0.1}, {1.1, 0.1, 0.2}}, table)

	assert.NoFileExists(t, src)
	assert.FileExists(t, filepath.Join(dir, "Input", "S1.txt"))

	entries, err := store.ListRun("run-test")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.StatusOK, entries[0].Status)
	assert.Equal(t, 3, entries[0].Outputs)
	assert.NotEmpty(t, entries[0].Digest)
}

func TestApp_ExtractSinusoid_IsIdempotent(t *testing.T) {
	dir := t.TempDir()
	app, _ := testApp(t, func(c *config.Config) { c.Archive.Enabled = false })
	src := write(t, filepath.Join(dir, "S1.txt"), sinusoidExport("2"))
	out := filepath.Join(dir, "Output", "Sinusoid-Loading", "S1-SinusoidLoading-2Hz-MultiAxisLoadCell.txt")

	app.ExtractSinusoid([]string{src})
	first, err := os.ReadFile(out)
	require.NoError(t, err)
	app.ExtractSinusoid([]string{src})
	second, err := os.ReadFile(out)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 0, app.Failures())
}

func TestApp_ContinuesAfterFailure(t *testing.T) {
	dir := t.TempDir()
	bad := write(t, filepath.Join(dir, "S1.txt"), parser.TagSinusoid+"\nFrequency\n")
	good := write(t, filepath.Join(dir, "S2.txt"), sinusoidExport("1"))
	app, store := testApp(t, nil)

	app.ExtractSinusoid([]string{bad, good})
	assert.Equal(t, 1, app.Failures())
	assert.FileExists(t, bad, "failed inputs stay in place")
	assert.FileExists(t, filepath.Join(dir, "Input", "S2.txt"))

	entries, err := store.ListRun("run-test")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ledger.StatusFailed, entries[0].Status)
	assert.Equal(t, "TRUNCATED_SECTION", entries[0].ErrorCode)
	assert.Equal(t, ledger.StatusOK, entries[1].Status)
}

func TestApp_RelaxationToModuli(t *testing.T) {
	dir := t.TempDir()
	src := write(t, filepath.Join(dir, "P1.txt"), relaxationExport(3))
	app, store := testApp(t, func(c *config.Config) { c.Archive.Compress = true })

	app.ExtractRelaxation([]string{src})
	require.Equal(t, 0, app.Failures())
	assert.FileExists(t, filepath.Join(dir, "Input", "P1.txt.zst"))

	relax := filepath.Join(dir, "Output", "Stress-Relaxation")
	bulk, err := parser.ReadTableFile(filepath.Join(relax, "P1-StressRelaxation-MultiAxisLoadCell.txt"))
	require.NoError(t, err)
	assert.Equal(t, 3*150+1, bulk.Rows())
	assert.Equal(t, parser.MultiAxisColumns, bulk.Cols())

	steps, err := inputFiles(nil, relax, "build-input")
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, "P1", defaultLabel(steps[0]))

	params := config.RunParams{
		Radius: 0.5, PoissonEquilibrium: 0.1, PoissonInstantaneous: 0.5,
		Thickness: 2, Strains: "0.05,0.05,0.05",
	}
	app.BuildInput("P1", params, steps)
	require.Equal(t, 0, app.Failures())

	featurePath := filepath.Join(relax, "P1-StaticElasticMod-Input.txt")
	features, err := parser.ReadTableFile(featurePath)
	require.NoError(t, err)
	require.Len(t, features, 8)
	assert.InDelta(t, 1.9, features[0][1], 1e-12)
	assert.InDelta(t, 0.05, features[2][0], 1e-9)
	assert.InDelta(t, 0.15, features[3][2], 1e-9)

	app.Estimate(params, []string{featurePath})
	require.Equal(t, 0, app.Failures())
	assert.FileExists(t, filepath.Join(relax, "P1-StaticElasticModuli.xlsx"))
	assert.FileExists(t, filepath.Join(relax, "P1-StaticElasticModuli.pdf"))

	mods, err := store.ListModuli("run-test")
	require.NoError(t, err)
	require.Len(t, mods, 2)
	assert.Equal(t, "P1", mods[0].Sample)
	assert.Greater(t, mods[0].CorrectedFitted, 0.0)
}

func TestApp_BuildInput_StrainMismatch(t *testing.T) {
	dir := t.TempDir()
	app, store := testApp(t, nil)

	// the step files do not exist: the count check must fail before reading them
	steps := []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}
	app.BuildInput("P1", config.RunParams{Thickness: 2, Strains: "0.05,0.05,0.05"}, steps)
	assert.Equal(t, 1, app.Failures())

	entries, err := store.ListRun("run-test")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "CONFIGURATION", entries[0].ErrorKind)
	assert.Equal(t, "STRAIN_COUNT_MISMATCH", entries[0].ErrorCode)
	assert.NoFileExists(t, filepath.Join(dir, "P1-StaticElasticMod-Input.txt"))
}

func TestApp_Process(t *testing.T) {
	dir := t.TempDir()
	src := write(t, filepath.Join(dir, "P2.txt"), relaxationExport(2))
	app, store := testApp(t, func(c *config.Config) {
		c.Archive.Enabled = false
		c.Report.PDF = false
	})
	app.ExtractRelaxation([]string{src})

	steps, err := inputFiles(nil, filepath.Join(dir, "Output", "Stress-Relaxation"), "process")
	require.NoError(t, err)
	app.Process("P2", config.RunParams{
		Radius: 0.5, PoissonEquilibrium: 0.1, PoissonInstantaneous: 0.5,
		Thickness: 2, Strains: "0.05,0.05",
	}, steps)
	assert.Equal(t, 0, app.Failures())
	assert.FileExists(t, filepath.Join(dir, "Output", "Stress-Relaxation", "P2-StaticElasticModuli.xlsx"))
	assert.NoFileExists(t, filepath.Join(dir, "Output", "Stress-Relaxation", "P2-StaticElasticModuli.pdf"))

	entries, err := store.ListRun("run-test")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	last := entries[len(entries)-1]
	assert.Equal(t, ledger.StageProcess, last.Stage)
	assert.Equal(t, "P2", last.Source)
	assert.Equal(t, ledger.StatusOK, last.Status)

	mods, err := store.ListModuli("run-test")
	require.NoError(t, err)
	require.Len(t, mods, 2)
	assert.Equal(t, last.ID, mods[0].EntryID)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "S1.txt"), sinusoidExport("0.5"))
	cfgPath := write(t, filepath.Join(dir, "config.yaml"),
		fmt.Sprintf("ledger:\n  path: %q\narchive:\n  enabled: false\n", filepath.Join(dir, "ledger.db")))

	var stderr bytes.Buffer
	code := run([]string{"-config", cfgPath, "extract-sinusoid", "-dir", dir}, &stderr)
	assert.Equal(t, 0, code, stderr.String())
	assert.FileExists(t, filepath.Join(dir, "Output", "Sinusoid-Loading", "S1-SinusoidLoading-0.5Hz-MultiAxisLoadCell.txt"))
	assert.Contains(t, stderr.String(), "run_id")

	assert.Equal(t, 2, run([]string{"-config", cfgPath}, &stderr))
	assert.Equal(t, 2, run([]string{"-config", cfgPath, "bogus"}, &stderr))
	assert.Equal(t, 2, run([]string{"-config", cfgPath, "estimate"}, &stderr))
}
