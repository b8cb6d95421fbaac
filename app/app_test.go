package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"startupstats/adapters/charts"
	"startupstats/domain/dataset"
	"startupstats/internal/config"
	"startupstats/internal/errors"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// writeProject lays out a dataset variant project under a temp root.
// founders draws founder counts.
func writeProject(t *testing.T, n int, founders func(*rand.Rand) int) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, config.FileName), []byte("VARIANT=dataset\nLOG_LEVEL=error\n"), 0o644))

	rng := rand.New(rand.NewSource(99))
	sectors := []string{"AI", "Fintech", "Health", "SaaS"}
	var b strings.Builder
	b.WriteString("startup_id,total_funding_usd,founder_count,sector,founder_experience_years,gdp_growth,status\n")
	for i := 0; i < n; i++ {
		funding := math.Exp(11 + 2*rng.Float64())
		eta := -6 + 0.5*math.Log1p(funding) + 0.1*rng.NormFloat64()
		status := "Failure"
		if rng.Float64() < 1/(1+math.Exp(-eta)) {
			status = "Success"
		}
		fmt.Fprintf(&b, "S%03d,%.2f,%d,%s,%.1f,%.2f,%s\n",
			i, funding, founders(rng), sectors[rng.Intn(len(sectors))], rng.Float64()*20, 0.1+rng.Float64()*7.8, status)
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "data", "startup_dataset.csv"), []byte(b.String()), 0o644))
	return root
}

func anyFounders(rng *rand.Rand) int { return 1 + rng.Intn(4) }

func TestAnalysisServiceEndToEnd(t *testing.T) {
	root := writeProject(t, 400, anyFounders)
	cfg, err := config.Load(root)
	require.NoError(t, err)

	var out bytes.Buffer
	res, err := NewAnalysisService(cfg, quietLogger(), &out).Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, res.Report.RunID)
	assert.Empty(t, res.Report.Failed())
	for _, name := range []string{StepLoad, StepDescribe, StepLabel, StepDerive, StepVisualize, StepHypotheses, StepRegression} {
		step, ok := res.Report.Step(name)
		require.True(t, ok, name)
		assert.Equal(t, StepOK, step.Status, name)
	}

	assert.Equal(t, 400, res.Profile.Rows)
	assert.True(t, res.Table.Has("is_success"))
	assert.True(t, res.Table.Has("log_funding"))
	assert.True(t, res.Table.Has("gdp_bin"))

	require.Len(t, res.Charts, 9)
	for _, c := range res.Charts {
		assert.False(t, c.Skipped, c.Name)
		assert.FileExists(t, filepath.Join(root, "graphs", c.Name))
	}

	require.Len(t, res.Hypotheses, 3)
	for _, h := range res.Hypotheses {
		require.NoError(t, h.Err, h.ID)
		require.NotNil(t, h.Result, h.ID)
	}
	assert.Len(t, res.Hypotheses[2].Rates, 2)

	require.NotNil(t, res.Regression)
	summary, err := os.ReadFile(filepath.Join(root, "graphs", "logit_summary.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "Logit Regression Results")
	assert.Contains(t, string(summary), "C(sector)[T.Fintech]")
	assert.Contains(t, string(summary), "log_funding")

	report := out.String()
	for _, section := range []string{"HEAD", "SHAPE", "INFO", "DESCRIBE", "VALUE COUNTS: status", "VALUE COUNTS: sector", "SUCCESS RATE", "H1:", "H2:", "H3:", "LOGISTIC REGRESSION RESULTS", "ARTIFACTS"} {
		assert.Contains(t, report, section)
	}
}

func TestAnalysisServiceIsolatesDegenerateTest(t *testing.T) {
	// no solo founders: H3 has an empty group
	root := writeProject(t, 300, func(rng *rand.Rand) int { return 2 + rng.Intn(3) })
	cfg, err := config.Load(root)
	require.NoError(t, err)

	var out bytes.Buffer
	res, err := NewAnalysisService(cfg, quietLogger(), &out).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Hypotheses, 3)
	assert.NoError(t, res.Hypotheses[0].Err)
	assert.NoError(t, res.Hypotheses[1].Err)
	require.Error(t, res.Hypotheses[2].Err)
	assert.Equal(t, errors.CodeDegenerateSample, errors.GetCode(res.Hypotheses[2].Err))
	assert.Contains(t, res.Hypotheses[2].Err.Error(), `"solo"`)

	failed := res.Report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, StepHypotheses+"/H3", failed[0].Name)

	require.NotNil(t, res.Regression, "regression still runs")
	assert.FileExists(t, res.Regression.Path)
	assert.Contains(t, out.String(), "test failed:")
}

func TestAnalysisServiceMissingDataFile(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	res, err := NewAnalysisService(cfg, quietLogger(), io.Discard).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodeFileNotFound, errors.GetCode(err))
	assert.Contains(t, err.Error(), "startups_clean.csv")

	step, ok := res.Report.Step(StepLoad)
	require.True(t, ok)
	assert.Equal(t, StepFailed, step.Status)
	_, ran := res.Report.Step(StepDescribe)
	assert.False(t, ran)
}

func outcomeTable(t *testing.T) *dataset.Table {
	t.Helper()
	table, err := dataset.NewTable(
		dataset.NewNumericColumn("total_funding_usd", []float64{1000, 2000, 3000, 5000, 6000, 7000}),
		dataset.NewNumericColumn("founder_count", []float64{1, 2, 1, 3, 2, 1}),
		dataset.NewCategoricalColumn("status", []string{"Failure", "Failure", "Failure", "Success", "Success", "Success"}, nil),
		dataset.NewNumericColumn("is_success", []float64{0, 0, 0, 1, 1, 1}),
	)
	require.NoError(t, err)
	return table
}

func TestHypothesisServiceFundingBySuccess(t *testing.T) {
	cfg, err := config.Default("/project", config.VariantDataset)
	require.NoError(t, err)

	outcomes, err := NewHypothesisService(cfg.Columns, cfg.Outcome, quietLogger()).RunAll(outcomeTable(t))
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	h1 := outcomes[0]
	require.NoError(t, h1.Err)
	assert.Equal(t, "success", h1.Result.A.Label)
	assert.Equal(t, "Failure", h1.Result.B.Label)
	assert.InDelta(t, 6000, h1.Result.A.Mean, 1e-9)
	assert.InDelta(t, 2000, h1.Result.B.Mean, 1e-9)
	assert.Greater(t, h1.Result.Statistic, 0.0)
	assert.Less(t, h1.Result.PValue, 0.05)
}

func TestHypothesisServiceTeamSuccessRates(t *testing.T) {
	var founders, success, funding []float64
	var status []string
	add := func(n, count, successes int) {
		for i := 0; i < n; i++ {
			founders = append(founders, float64(count))
			funding = append(funding, float64(1000*(len(funding)+1)))
			if i < successes {
				success = append(success, 1)
				status = append(status, "Success")
			} else {
				success = append(success, 0)
				status = append(status, "Failure")
			}
		}
	}
	add(10, 1, 3)
	add(5, 2, 3)
	add(5, 3, 3)

	table, err := dataset.NewTable(
		dataset.NewNumericColumn("total_funding_usd", funding),
		dataset.NewNumericColumn("founder_count", founders),
		dataset.NewCategoricalColumn("status", status, nil),
		dataset.NewNumericColumn("is_success", success),
	)
	require.NoError(t, err)

	cfg, err := config.Default("/project", config.VariantDataset)
	require.NoError(t, err)
	outcomes, err := NewHypothesisService(cfg.Columns, cfg.Outcome, quietLogger()).RunAll(table)
	require.NoError(t, err)

	h3 := outcomes[2]
	require.NoError(t, h3.Err)
	require.Len(t, h3.Rates, 2)
	assert.Equal(t, "solo", h3.Rates[0].Key)
	assert.InDelta(t, 0.3, h3.Rates[0].Rate(), 1e-12)
	assert.Equal(t, "small team", h3.Rates[1].Key)
	assert.InDelta(t, 0.6, h3.Rates[1].Rate(), 1e-12)
	assert.Equal(t, 10, h3.Result.A.N)
	assert.Equal(t, 10, h3.Result.B.N)
}

func TestHypothesisServiceMissingColumnIsFatal(t *testing.T) {
	cfg, err := config.Default("/project", config.VariantClean)
	require.NoError(t, err)

	_, err = NewHypothesisService(cfg.Columns, cfg.Outcome, quietLogger()).RunAll(outcomeTable(t))
	require.Error(t, err)
	assert.Equal(t, errors.CodeMissingColumn, errors.GetCode(err))
	assert.True(t, errors.IsFatal(err))
}

func TestRegressionServiceUnwritableSummary(t *testing.T) {
	root := writeProject(t, 300, anyFounders)
	cfg, err := config.Load(root)
	require.NoError(t, err)

	blocker := filepath.Join(root, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	cfg.Paths.SummaryFile = filepath.Join(blocker, "logit_summary.txt")
	cfg.Paths.FiguresDir = filepath.Join(root, "figs")

	svc := NewAnalysisService(cfg, quietLogger(), io.Discard)
	res, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodeOutputError, errors.GetCode(err))

	step, ok := res.Report.Step(StepRegression)
	require.True(t, ok)
	assert.Equal(t, StepFailed, step.Status)
	assert.FileExists(t, filepath.Join(root, "figs", charts.FundingDistribution))
}

func TestStageRunnerRecordsOutcomes(t *testing.T) {
	report := &RunReport{RunID: "r"}
	runner := NewStageRunner(report, quietLogger())

	require.NoError(t, runner.Run("ok", func() error { return nil }))
	require.NoError(t, runner.Run("stat", func() error { return errors.NotConverged("separation") }))
	err := runner.Run("io", func() error { return errors.FileNotFound("/x.csv") })
	require.Error(t, err)
	runner.Skip("bins", "column absent")

	require.Len(t, report.Steps, 4)
	assert.Equal(t, StepOK, report.Steps[0].Status)
	assert.Equal(t, StepFailed, report.Steps[1].Status)
	assert.Equal(t, StepFailed, report.Steps[2].Status)
	assert.Equal(t, StepSkipped, report.Steps[3].Status)
	assert.Len(t, report.Failed(), 2)
}

func TestAnalysisServiceTagsSkippedValueCountsWithRunID(t *testing.T) {
	root := writeProject(t, 100, anyFounders)
	env := filepath.Join(root, config.FileName)
	f, err := os.OpenFile(env, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("INDUSTRY_COLUMN=category\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	cfg, err := config.Load(root)
	require.NoError(t, err)

	var logs bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&logs)
	logger.SetFormatter(&logrus.TextFormatter{DisableColors: true})

	res, _ := NewAnalysisService(cfg, logger, io.Discard).Run(context.Background())
	require.NotNil(t, res)

	var line string
	for _, l := range strings.Split(logs.String(), "\n") {
		if strings.Contains(l, "skipping value counts") {
			line = l
		}
	}
	require.NotEmpty(t, line)
	assert.Contains(t, line, "column=category")
	assert.Contains(t, line, "run_id="+res.Report.RunID)
}
