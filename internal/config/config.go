package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix of every environment override, e.g.
// CARTILAGE_LOGGING_LEVEL or CARTILAGE_ARCHIVE_COMPRESS.
const EnvPrefix = "CARTILAGE"

// Config represents the complete application configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Output  OutputConfig  `yaml:"output" envconfig:"OUTPUT"`
	Archive ArchiveConfig `yaml:"archive" envconfig:"ARCHIVE"`
	Report  ReportConfig  `yaml:"report" envconfig:"REPORT"`
	Ledger  LedgerConfig  `yaml:"ledger" envconfig:"LEDGER"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// OutputConfig names the folders extracted tables are written to, relative to
// the directory of the input files.
type OutputConfig struct {
	Dir           string `yaml:"dir" envconfig:"DIR" validate:"required"`
	SinusoidDir   string `yaml:"sinusoid_dir" envconfig:"SINUSOID_DIR" validate:"required"`
	RelaxationDir string `yaml:"relaxation_dir" envconfig:"RELAXATION_DIR" validate:"required"`
	Overwrite     bool   `yaml:"overwrite" envconfig:"OVERWRITE"`
}

// ArchiveConfig controls moving processed raw files out of the input directory.
type ArchiveConfig struct {
	Enabled  bool   `yaml:"enabled" envconfig:"ENABLED"`
	Dir      string `yaml:"dir" envconfig:"DIR" validate:"required_if=Enabled true"`
	Compress bool   `yaml:"compress" envconfig:"COMPRESS"`
}

// ReportConfig controls the per-sample PDF summary and its plots.
type ReportConfig struct {
	PDF        bool    `yaml:"pdf" envconfig:"PDF"`
	PlotWidth  float64 `yaml:"plot_width" envconfig:"PLOT_WIDTH" validate:"gt=0"`
	PlotHeight float64 `yaml:"plot_height" envconfig:"PLOT_HEIGHT" validate:"gt=0"`
}

// LedgerConfig controls the SQLite processing ledger.
type LedgerConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"ENABLED"`
	Path    string `yaml:"path" envconfig:"DB_PATH" validate:"required_if=Enabled true"`
}

var validate = validator.New()

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "text",
			Output:   "console",
			FilePath: "logs/cartilage_analyzer.log",
		},
		Output: OutputConfig{
			Dir:           "Output",
			SinusoidDir:   "Sinusoid-Loading",
			RelaxationDir: "Stress-Relaxation",
			Overwrite:     true,
		},
		Archive: ArchiveConfig{
			Enabled:  true,
			Dir:      "Input",
			Compress: false,
		},
		Report: ReportConfig{
			PDF:        true,
			PlotWidth:  800,
			PlotHeight: 400,
		},
		Ledger: LedgerConfig{
			Enabled: true,
			Path:    "cartilage_ledger.db",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// CARTILAGE_* environment variables, in increasing order of precedence. An
// empty path or a missing file means defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := loadFromFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; keys absent from the file
// keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	return validate.Struct(c)
}
