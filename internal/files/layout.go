package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/user/cartilage_analyzer_go/internal/config"
)

// Layout resolves output locations under an input directory.
type Layout struct {
	Root string
	cfg  config.OutputConfig
}

// NewLayout returns the output layout rooted at the input directory root.
func NewLayout(root string, cfg config.OutputConfig) Layout {
	return Layout{Root: root, cfg: cfg}
}

// OutputDir is the top-level output folder.
func (l Layout) OutputDir() string { return filepath.Join(l.Root, l.cfg.Dir) }

// SinusoidDir holds per-frequency tables.
func (l Layout) SinusoidDir() string { return filepath.Join(l.OutputDir(), l.cfg.SinusoidDir) }

// RelaxationDir holds per-step and combined stress-relaxation tables.
func (l Layout) RelaxationDir() string { return filepath.Join(l.OutputDir(), l.cfg.RelaxationDir) }

// Ensure creates every output folder.
func (l Layout) Ensure() error {
	for _, dir := range []string{l.SinusoidDir(), l.RelaxationDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output folder %s: %w", dir, err)
		}
	}
	return nil
}

// CheckWritable reports whether path may be written under the overwrite policy.
func (l Layout) CheckWritable(path string) error {
	if l.cfg.Overwrite {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("output %s exists and overwrite is disabled", path)
	}
	return nil
}

// SinusoidPath is the table of one loading frequency. A file holding several
// sections at the same frequency gets the section index appended.
func (l Layout) SinusoidPath(base, freq string, section int) string {
	name := fmt.Sprintf("%s-SinusoidLoading-%sHz", base, sanitize(freq))
	if section > 0 {
		name += fmt.Sprintf("-section%d", section)
	}
	return filepath.Join(l.SinusoidDir(), name+"-MultiAxisLoadCell.txt")
}

// StepPath is the table of relaxation step k (1-based). section is 0 when the
// file has a single relaxation section.
func (l Layout) StepPath(base string, section, k int) string {
	return filepath.Join(l.RelaxationDir(),
		fmt.Sprintf("%s%s-StressRelax-step%d-MultiAxisLoadCell.txt", base, sectionSuffix(section), k))
}

// BulkPath is the combined table of a relaxation section.
func (l Layout) BulkPath(base string, section int) string {
	return filepath.Join(l.RelaxationDir(),
		fmt.Sprintf("%s%s-StressRelaxation-MultiAxisLoadCell.txt", base, sectionSuffix(section)))
}

// FeaturePath is the feature table built for a sample.
func FeaturePath(dir, label string) string {
	return filepath.Join(dir, label+"-StaticElasticMod-Input.txt")
}

// WorkbookPath is the moduli workbook of a feature table file.
func WorkbookPath(dir, base string) string {
	return filepath.Join(dir, base+"-StaticElasticModuli.xlsx")
}

// ReportPath is the PDF summary of a sample.
func ReportPath(dir, base string) string {
	return filepath.Join(dir, base+"-StaticElasticModuli.pdf")
}

func sectionSuffix(section int) string {
	if section <= 0 {
		return ""
	}
	return fmt.Sprintf("-section%d", section)
}

var unsafeChars = strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "")

func sanitize(s string) string {
	return unsafeChars.Replace(strings.TrimSpace(s))
}
