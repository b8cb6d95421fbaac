package report

import (
	"bytes"
	"testing"

	"startupstats/domain/dataset"
	"startupstats/domain/stats"
	"startupstats/internal/analysis"
	"startupstats/internal/errors"
	"startupstats/internal/profiling"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) *dataset.Table {
	t.Helper()
	table, err := dataset.NewTable(
		dataset.NewNumericColumn("total_funding_usd", []float64{1000, 2000, 5000}),
		dataset.NewCategoricalColumn("status", []string{"Failure", "Failure", "Success"}, nil),
	)
	require.NoError(t, err)
	return table
}

func TestEDASections(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	table := sampleTable(t)
	profile := profiling.NewDistributionAnalyzer().Describe(table)

	p.DataFile("/data/startup_dataset.csv")
	p.Head(table, 2)
	p.Shape(profile)
	p.Info(profile)
	p.Describe(profile)
	counts, ok := profiling.NewDistributionAnalyzer().ValueCounts(table, "status")
	require.True(t, ok)
	p.ValueCounts(counts)
	p.SuccessRate(counts)

	out := buf.String()
	for _, want := range []string{
		"Data file: /data/startup_dataset.csv",
		"=== HEAD ===",
		"total_funding_usd",
		"(3, 2)",
		"3 non-null",
		"categorical",
		"2666.6667",
		"VALUE COUNTS: status",
		"0.6667",
	} {
		assert.Contains(t, out, want)
	}
}

func TestHypothesisSection(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	result := &stats.TestResult{
		Test:      stats.TestWelch,
		A:         stats.GroupStats{Label: "solo", N: 10, Mean: 2.5, Variance: 1},
		B:         stats.GroupStats{Label: "small team", N: 10, Mean: 3.5, Variance: 1},
		Statistic: -2.236,
		DF:        18,
		PValue:    0.038,
	}
	rates := []analysis.Bucket{{Key: "solo", Count: 10, Successes: 3}, {Key: "small team", Count: 10, Successes: 6}}
	p.Hypothesis("H3: solo vs small team", result, rates, nil)

	out := buf.String()
	assert.Contains(t, out, "H3: solo vs small team")
	assert.Contains(t, out, "t = -2.2360")
	assert.Contains(t, out, "p = 0.038")
	assert.Contains(t, out, "is significant")
	assert.Contains(t, out, "success rate (solo): 0.3000 (3/10)")
	assert.Contains(t, out, "success rate (small team): 0.6000 (6/10)")
}

func TestFailedSteps(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Hypothesis("H1", nil, nil, errors.DegenerateSample(`group "failure" has 0 observations`))
	p.Regression("", errors.NotConverged("perfect separation detected"))

	out := buf.String()
	assert.Contains(t, out, `test failed: group "failure" has 0 observations`)
	assert.Contains(t, out, "regression failed: perfect separation detected")
}

func TestFailedHypothesisKeepsSuccessRates(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	rates := []analysis.Bucket{{Key: "solo", Count: 1, Successes: 1}, {Key: "small team", Count: 8, Successes: 4}}
	p.Hypothesis("H3: funding, solo vs small team", nil, rates, errors.DegenerateSample(`group "solo" has 1 observations, need at least 2`))

	out := buf.String()
	assert.Contains(t, out, "success rate (solo): 1.0000 (1/1)")
	assert.Contains(t, out, "success rate (small team): 0.5000 (4/8)")
	assert.Contains(t, out, `test failed: group "solo" has 1 observations`)
}
