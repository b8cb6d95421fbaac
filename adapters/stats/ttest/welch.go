// Package ttest implements two-sample mean comparison tests.
package ttest

import (
	"fmt"
	"math"

	"startupstats/domain/stats"
	"startupstats/internal/errors"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sample is one labelled group of observations. NaN values are dropped
// before testing.
type Sample struct {
	Label  string
	Values []float64
}

// MinGroupSize is the smallest group for which a variance is defined
const MinGroupSize = 2

// Welch performs Welch's unequal-variance t-test of mean(a) - mean(b).
// It fails with DEGENERATE_SAMPLE when either group has fewer than two
// observations or both groups have zero variance.
func Welch(a, b Sample) (stats.TestResult, error) {
	x := dropMissing(a.Values)
	y := dropMissing(b.Values)

	if len(x) < MinGroupSize {
		return stats.TestResult{}, errors.DegenerateSample(
			fmt.Sprintf("group %q has %d observations, need at least %d", a.Label, len(x), MinGroupSize))
	}
	if len(y) < MinGroupSize {
		return stats.TestResult{}, errors.DegenerateSample(
			fmt.Sprintf("group %q has %d observations, need at least %d", b.Label, len(y), MinGroupSize))
	}

	n1, n2 := float64(len(x)), float64(len(y))
	mean1, var1 := stat.MeanVariance(x, nil)
	mean2, var2 := stat.MeanVariance(y, nil)

	// t = (mean1 - mean2) / sqrt(var1/n1 + var2/n2)
	se1, se2 := var1/n1, var2/n2
	se := math.Sqrt(se1 + se2)
	if se == 0 || math.IsNaN(se) {
		return stats.TestResult{}, errors.DegenerateSample(
			fmt.Sprintf("groups %q and %q both have zero variance", a.Label, b.Label))
	}
	tStat := (mean1 - mean2) / se

	// Welch-Satterthwaite degrees of freedom
	df := (se1 + se2) * (se1 + se2) / (se1*se1/(n1-1) + se2*se2/(n2-1))

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	pValue := 2 * dist.Survival(math.Abs(tStat))

	return stats.TestResult{
		Test:      stats.TestWelch,
		A:         stats.GroupStats{Label: a.Label, N: len(x), Mean: mean1, Variance: var1},
		B:         stats.GroupStats{Label: b.Label, N: len(y), Mean: mean2, Variance: var2},
		Statistic: tStat,
		DF:        df,
		PValue:    math.Min(pValue, 1),
	}, nil
}

func dropMissing(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
