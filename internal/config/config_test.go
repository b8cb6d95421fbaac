package config

import (
	"os"
	"path/filepath"
	"testing"

	"startupstats/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, VariantClean, cfg.Variant)
	assert.Equal(t, filepath.Join(root, "data", "startups_clean.csv"), cfg.Paths.DataFile)
	assert.Equal(t, filepath.Join(root, "figures"), cfg.Paths.FiguresDir)
	assert.Equal(t, filepath.Join(root, "figures", "logit_summary.txt"), cfg.Paths.SummaryFile)
	assert.Equal(t, "operating_status", cfg.Outcome.StatusColumn)
	assert.Equal(t, "Active", cfg.Outcome.SuccessLabel)
	assert.Empty(t, cfg.Outcome.FailureLabel)
	assert.Equal(t, "num_founders", cfg.Columns.Founders)
	assert.Equal(t, []float64{0, 2, 4, 8}, cfg.Bins.Bounds)
}

func TestLoadDatasetVariant(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "VARIANT=dataset\n")

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, "status", cfg.Outcome.StatusColumn)
	assert.Equal(t, "Success", cfg.Outcome.SuccessLabel)
	assert.Equal(t, "Failure", cfg.Outcome.FailureLabel)
	assert.Equal(t, "sector", cfg.Columns.Industry)
	assert.Equal(t, "is_success", cfg.Columns.Success)
	assert.Equal(t, filepath.Join(root, "graphs"), cfg.Paths.FiguresDir)
}

func TestLoadOverrides(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
DATA_FILE=/tmp/elsewhere.csv
FIGURES_DIR=out/charts
SUCCESS_LABEL=Acquired
FAILURE_LABEL=
BIN_BOUNDS=-5, 0, 5
BIN_LABELS=Shrinking,Growing
BIN_OUT_OF_RANGE=error
LOGIT_MAX_ITER=50
LOGIT_TOLERANCE=1e-10
HEAD_ROWS=3
`)

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/elsewhere.csv", cfg.Paths.DataFile)
	assert.Equal(t, filepath.Join(root, "out", "charts"), cfg.Paths.FiguresDir)
	assert.Equal(t, "Acquired", cfg.Outcome.SuccessLabel)
	assert.Equal(t, []float64{-5, 0, 5}, cfg.Bins.Bounds)
	assert.Equal(t, []string{"Shrinking", "Growing"}, cfg.Bins.Labels)
	assert.Equal(t, OutOfRangeError, cfg.Bins.OutOfRange)
	assert.Equal(t, 50, cfg.Logit.MaxIterations)
	assert.InDelta(t, 1e-10, cfg.Logit.Tolerance, 1e-20)
	assert.Equal(t, 3, cfg.Report.HeadRows)
}

func TestLoadIgnoresProcessEnvironment(t *testing.T) {
	t.Setenv("DATA_FILE", "/should/not/be/used.csv")
	root := t.TempDir()

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "data", "startups_clean.csv"), cfg.Paths.DataFile)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown variant", "VARIANT=other"},
		{"labels mismatch", "BIN_LABELS=Low,High"},
		{"non increasing bounds", "BIN_BOUNDS=0,4,2,8"},
		{"bad bound", "BIN_BOUNDS=0,two,4"},
		{"bad policy", "BIN_OUT_OF_RANGE=clamp"},
		{"bad integer", "HEAD_ROWS=many"},
		{"same labels", "FAILURE_LABEL=Active"},
		{"zero iterations", "LOGIT_MAX_ITER=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeConfig(t, root, tt.content+"\n")

			_, err := Load(root)
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
