package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"startupstats/internal/errors"

	"github.com/joho/godotenv"
)

// FileName is the optional configuration file looked up at the project root
const FileName = "startupstats.env"

// Variant names select a dataset preset
const (
	VariantClean   = "clean"
	VariantDataset = "dataset"
)

// Out-of-range policies for fixed-range binning
const (
	OutOfRangeExclude = "exclude"
	OutOfRangeError   = "error"
)

// Config represents the complete run configuration. It is built once by
// Load and passed explicitly to every stage.
type Config struct {
	Variant string
	Paths   PathConfig
	Columns ColumnConfig
	Outcome OutcomeConfig
	Bins    BinConfig
	Logit   LogitConfig
	Report  ReportConfig
	Logging LoggingConfig
}

// PathConfig holds file system paths, all absolute after Load
type PathConfig struct {
	ProjectRoot string
	DataFile    string
	FiguresDir  string
	SummaryFile string
}

// ColumnConfig names the dataset columns each analysis reads
type ColumnConfig struct {
	Funding    string
	Founders   string
	Industry   string
	Experience string
	Macro      string

	// Derived columns
	Success     string
	LogFunding  string
	MacroBinned string
}

// OutcomeConfig defines how the success indicator is derived
type OutcomeConfig struct {
	StatusColumn string
	SuccessLabel string
	// FailureLabel restricts the failure group to one status value.
	// Empty means every non-success row is a failure.
	FailureLabel string
}

// BinConfig holds the fixed ranges for the macro variable
type BinConfig struct {
	Bounds     []float64
	Labels     []string
	OutOfRange string
}

// LogitConfig holds optimizer settings for the regression
type LogitConfig struct {
	MaxIterations int
	Tolerance     float64
}

// ReportConfig holds console report settings
type ReportConfig struct {
	HeadRows int
	HistBins int
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level string
}

// Default returns the preset for a variant rooted at root
func Default(root, variant string) (*Config, error) {
	cfg := &Config{
		Variant: variant,
		Columns: ColumnConfig{
			Funding:     "total_funding_usd",
			Experience:  "founder_experience_years",
			Macro:       "gdp_growth",
			LogFunding:  "log_funding",
			MacroBinned: "gdp_bin",
		},
		Bins: BinConfig{
			Bounds:     []float64{0, 2, 4, 8},
			Labels:     []string{"Low", "Medium", "High"},
			OutOfRange: OutOfRangeExclude,
		},
		Logit: LogitConfig{
			MaxIterations: 35,
			Tolerance:     1e-8,
		},
		Report: ReportConfig{
			HeadRows: 5,
			HistBins: 30,
		},
		Logging: LoggingConfig{Level: "info"},
	}

	switch variant {
	case VariantClean:
		cfg.Paths = PathConfig{
			DataFile:    filepath.Join("data", "startups_clean.csv"),
			FiguresDir:  "figures",
			SummaryFile: filepath.Join("figures", "logit_summary.txt"),
		}
		cfg.Columns.Founders = "num_founders"
		cfg.Columns.Industry = "industry"
		cfg.Columns.Success = "success"
		cfg.Outcome = OutcomeConfig{StatusColumn: "operating_status", SuccessLabel: "Active"}
	case VariantDataset:
		cfg.Paths = PathConfig{
			DataFile:    filepath.Join("data", "startup_dataset.csv"),
			FiguresDir:  "graphs",
			SummaryFile: filepath.Join("graphs", "logit_summary.txt"),
		}
		cfg.Columns.Founders = "founder_count"
		cfg.Columns.Industry = "sector"
		cfg.Columns.Success = "is_success"
		cfg.Outcome = OutcomeConfig{StatusColumn: "status", SuccessLabel: "Success", FailureLabel: "Failure"}
	default:
		return nil, errors.ConfigInvalid(fmt.Sprintf("unknown variant %q", variant))
	}

	cfg.Paths.ProjectRoot = root
	return cfg, nil
}

// Load builds the configuration for the project at root. Keys from
// root/startupstats.env override the variant preset. The process
// environment is not consulted.
func Load(root string) (*Config, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve project root %s", root)
	}

	values, err := readFile(filepath.Join(absRoot, FileName))
	if err != nil {
		return nil, err
	}

	cfg, err := Default(absRoot, getOrDefault(values, "VARIANT", VariantClean))
	if err != nil {
		return nil, err
	}

	if err := cfg.apply(values); err != nil {
		return nil, errors.Wrap(err, "failed to apply configuration file")
	}

	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return cfg, nil
}

// readFile parses the optional config file; a missing file yields no overrides
func readFile(path string) (map[string]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "failed to parse %s", path))
	}
	return values, nil
}

func (c *Config) apply(values map[string]string) error {
	c.Paths.DataFile = getOrDefault(values, "DATA_FILE", c.Paths.DataFile)
	c.Paths.FiguresDir = getOrDefault(values, "FIGURES_DIR", c.Paths.FiguresDir)
	c.Paths.SummaryFile = getOrDefault(values, "SUMMARY_FILE", c.Paths.SummaryFile)

	c.Outcome.StatusColumn = getOrDefault(values, "STATUS_COLUMN", c.Outcome.StatusColumn)
	c.Outcome.SuccessLabel = getOrDefault(values, "SUCCESS_LABEL", c.Outcome.SuccessLabel)
	if v, ok := values["FAILURE_LABEL"]; ok {
		c.Outcome.FailureLabel = strings.TrimSpace(v)
	}

	c.Columns.Funding = getOrDefault(values, "FUNDING_COLUMN", c.Columns.Funding)
	c.Columns.Founders = getOrDefault(values, "FOUNDERS_COLUMN", c.Columns.Founders)
	c.Columns.Industry = getOrDefault(values, "INDUSTRY_COLUMN", c.Columns.Industry)
	c.Columns.Experience = getOrDefault(values, "EXPERIENCE_COLUMN", c.Columns.Experience)
	c.Columns.Macro = getOrDefault(values, "MACRO_COLUMN", c.Columns.Macro)

	if v, ok := values["BIN_BOUNDS"]; ok {
		bounds, err := parseFloatList(v)
		if err != nil {
			return errors.ConfigInvalid(fmt.Sprintf("BIN_BOUNDS: %v", err))
		}
		c.Bins.Bounds = bounds
	}
	if v, ok := values["BIN_LABELS"]; ok {
		c.Bins.Labels = parseStringList(v)
	}
	c.Bins.OutOfRange = getOrDefault(values, "BIN_OUT_OF_RANGE", c.Bins.OutOfRange)

	var err error
	if c.Report.HeadRows, err = getIntOrDefault(values, "HEAD_ROWS", c.Report.HeadRows); err != nil {
		return err
	}
	if c.Report.HistBins, err = getIntOrDefault(values, "HIST_BINS", c.Report.HistBins); err != nil {
		return err
	}
	if c.Logit.MaxIterations, err = getIntOrDefault(values, "LOGIT_MAX_ITER", c.Logit.MaxIterations); err != nil {
		return err
	}
	if c.Logit.Tolerance, err = getFloatOrDefault(values, "LOGIT_TOLERANCE", c.Logit.Tolerance); err != nil {
		return err
	}
	c.Logging.Level = getOrDefault(values, "LOG_LEVEL", c.Logging.Level)

	return nil
}

// resolvePaths makes relative paths absolute against the project root
func (c *Config) resolvePaths() {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(c.Paths.ProjectRoot, p)
	}
	c.Paths.DataFile = resolve(c.Paths.DataFile)
	c.Paths.FiguresDir = resolve(c.Paths.FiguresDir)
	c.Paths.SummaryFile = resolve(c.Paths.SummaryFile)
}

// Validate checks internal consistency of the configuration
func (c *Config) Validate() error {
	if c.Paths.DataFile == "" {
		return errors.ConfigInvalid("data file is required")
	}
	if c.Paths.FiguresDir == "" {
		return errors.ConfigInvalid("figures directory is required")
	}
	if c.Paths.SummaryFile == "" {
		return errors.ConfigInvalid("summary file is required")
	}
	if c.Outcome.StatusColumn == "" {
		return errors.ConfigInvalid("status column is required")
	}
	if c.Outcome.SuccessLabel == "" {
		return errors.ConfigInvalid("success label is required")
	}
	if c.Outcome.FailureLabel != "" && c.Outcome.FailureLabel == c.Outcome.SuccessLabel {
		return errors.ConfigInvalid("failure label must differ from success label")
	}
	if len(c.Bins.Bounds) < 2 {
		return errors.ConfigInvalid("at least two bin bounds are required")
	}
	for i := 1; i < len(c.Bins.Bounds); i++ {
		if !(c.Bins.Bounds[i] > c.Bins.Bounds[i-1]) {
			return errors.ConfigInvalid(fmt.Sprintf("bin bounds must be strictly increasing (%v)", c.Bins.Bounds))
		}
	}
	if len(c.Bins.Labels) != len(c.Bins.Bounds)-1 {
		return errors.ConfigInvalid(fmt.Sprintf("%d bin bounds need %d labels, got %d",
			len(c.Bins.Bounds), len(c.Bins.Bounds)-1, len(c.Bins.Labels)))
	}
	switch c.Bins.OutOfRange {
	case OutOfRangeExclude, OutOfRangeError:
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unknown out-of-range policy %q", c.Bins.OutOfRange))
	}
	if c.Logit.MaxIterations <= 0 {
		return errors.ConfigInvalid("LOGIT_MAX_ITER must be positive")
	}
	if !(c.Logit.Tolerance > 0) {
		return errors.ConfigInvalid("LOGIT_TOLERANCE must be positive")
	}
	if c.Report.HistBins <= 0 {
		return errors.ConfigInvalid("HIST_BINS must be positive")
	}
	if c.Report.HeadRows < 0 {
		return errors.ConfigInvalid("HEAD_ROWS must not be negative")
	}
	return nil
}

// Helper functions for config file parsing
func getOrDefault(values map[string]string, key, defaultValue string) string {
	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(values map[string]string, key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(values[key])
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s: %q is not an integer", key, value))
	}
	return intValue, nil
}

func getFloatOrDefault(values map[string]string, key string, defaultValue float64) (float64, error) {
	value := strings.TrimSpace(values[key])
	if value == "" {
		return defaultValue, nil
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s: %q is not a number", key, value))
	}
	return floatValue, nil
}

func parseFloatList(value string) ([]float64, error) {
	parts := parseStringList(value)
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", p)
		}
		out = append(out, f)
	}
	return out, nil
}

func parseStringList(value string) []string {
	var out []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
