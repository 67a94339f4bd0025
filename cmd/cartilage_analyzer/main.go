// Command cartilage_analyzer extracts Mach-1 multi-axis exports into numeric
// tables and estimates Hayes-corrected cartilage moduli from them.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/user/cartilage_analyzer_go/internal/config"
	"github.com/user/cartilage_analyzer_go/internal/files"
	"github.com/user/cartilage_analyzer_go/internal/infrastructure"
	"github.com/user/cartilage_analyzer_go/internal/ledger"
)

const usage = `usage: cartilage_analyzer [-config file] <command> [flags] [files...]

commands:
  extract-sinusoid    split sinusoid exports into one table per frequency
  extract-relaxation  split stress-relaxation exports into per-step and combined tables
  build-input         build the feature table of a sample from its step tables
  estimate            compute Hayes-corrected moduli from feature tables
  process             build-input and estimate in one pass

Files are taken from the arguments, or from -dir when none are given.
`

// stepMarker selects per-step tables when a directory is scanned.
const stepMarker = "-StressRelax-step"

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	global := flag.NewFlagSet("cartilage_analyzer", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := global.String("config", "config.yaml", "YAML configuration file (optional)")
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		global.Usage()
		return 2
	}
	cmd, rest := global.Arg(0), global.Args()[1:]

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "configuration: %v\n", err)
		return 1
	}
	logger, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "logging: %v\n", err)
		return 1
	}
	defer logger.Close()

	var store *ledger.Store
	if cfg.Ledger.Enabled {
		store, err = ledger.Open(cfg.Ledger.Path)
		if err != nil {
			logger.Error("failed to open ledger", slog.String("path", cfg.Ledger.Path), slog.String("error", err.Error()))
			return 1
		}
		defer store.Close()
	}

	runID := uuid.New().String()
	app, err := NewApp(cfg, logger.Logger, runID, store)
	if err != nil {
		logger.Error("failed to initialise", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("run started", slog.String("run_id", runID), slog.String("command", cmd))
	if err := dispatch(app, cmd, rest, stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		logger.Error("command failed", slog.String("command", cmd), slog.String("error", err.Error()))
		return 2
	}
	logger.Info("run finished", slog.String("run_id", runID), slog.Int("failures", app.Failures()))
	if app.Failures() > 0 {
		return 1
	}
	return 0
}

func dispatch(app *App, cmd string, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	dir := fs.String("dir", "", "directory to scan for input files")

	var params config.RunParams
	var label string
	sampleFlags := func() {
		fs.StringVar(&label, "label", "", "sample label used in output names")
		fs.Float64Var(&params.Thickness, "thickness", 0, "sample thickness (mm)")
		fs.StringVar(&params.Strains, "strains", "", "comma-separated strain per step, e.g. 0.05,0.05,0.05")
	}
	indenterFlags := func() {
		fs.Float64Var(&params.Radius, "radius", 0, "indenter radius (mm)")
		fs.Float64Var(&params.PoissonEquilibrium, "poisson-eq", 0, "Poisson ratio for the equilibrium modulus")
		fs.Float64Var(&params.PoissonInstantaneous, "poisson-inst", 0.5, "Poisson ratio for the instantaneous modulus")
	}

	switch cmd {
	case "extract-sinusoid", "extract-relaxation":
	case "build-input":
		sampleFlags()
	case "estimate":
		indenterFlags()
	case "process":
		sampleFlags()
		indenterFlags()
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	inputs, err := inputFiles(fs.Args(), *dir, cmd)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no input files")
	}

	switch cmd {
	case "extract-sinusoid":
		app.ExtractSinusoid(inputs)
	case "extract-relaxation":
		app.ExtractRelaxation(inputs)
	case "build-input", "process":
		if label == "" {
			label = defaultLabel(inputs[0])
		}
		if cmd == "process" {
			app.Process(label, params, inputs)
		} else {
			app.BuildInput(label, params, inputs)
		}
	case "estimate":
		app.Estimate(params, inputs)
	}
	return nil
}

// inputFiles returns explicit arguments as given, or the .txt files of dir in
// digit order. Step-table commands keep only per-step tables.
func inputFiles(args []string, dir, cmd string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if dir == "" {
		return nil, fmt.Errorf("give input files or -dir")
	}
	found, err := files.Discover(dir, ".txt")
	if err != nil {
		return nil, err
	}
	var keep func(string) bool
	switch cmd {
	case "build-input", "process":
		keep = func(p string) bool { return strings.Contains(files.BaseName(p), stepMarker) }
	case "estimate":
		keep = func(p string) bool { return strings.HasSuffix(files.BaseName(p), featureSuffix) }
	default:
		return found, nil
	}
	out := found[:0]
	for _, p := range found {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// defaultLabel is the export name a step table was cut from.
func defaultLabel(stepPath string) string {
	base := files.BaseName(stepPath)
	if i := strings.Index(base, stepMarker); i > 0 {
		return base[:i]
	}
	return base
}
