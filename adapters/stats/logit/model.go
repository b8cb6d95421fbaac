package logit

import (
	"math"

	"startupstats/domain/dataset"
	"startupstats/domain/stats"
	"startupstats/internal/errors"

	"gonum.org/v1/gonum/stat/distuv"
)

// Model fits a formula against a table
type Model struct {
	formula Formula
	opts    Options
}

// NewModel creates a logistic regression model for a formula
func NewModel(formula Formula, opts Options) *Model {
	return &Model{formula: formula, opts: opts}
}

// Formula returns the model formula
func (m *Model) Formula() Formula { return m.formula }

// Fit builds the design and fits it, returning the full summary
func (m *Model) Fit(table *dataset.Table) (*stats.ModelSummary, *Design, error) {
	design, err := BuildDesign(table, m.formula)
	if err != nil {
		return nil, nil, err
	}

	fit, err := FitMLE(design.X, design.Y, m.opts)
	if err != nil {
		return nil, design, errors.Wrapf(err, "fitting %s", m.formula)
	}

	return Summarize(m.formula.Outcome, design, fit), design, nil
}

// Summarize derives standard errors, Wald tests and fit statistics
func Summarize(outcome string, design *Design, fit *Fit) *stats.ModelSummary {
	n := len(design.Y)
	k := len(design.Terms)
	z975 := distuv.UnitNormal.Quantile(0.975)

	summary := &stats.ModelSummary{
		DependentVariable: outcome,
		Method:            "MLE",
		Observations:      n,
		DFModel:           k - 1,
		DFResidual:        n - k,
		LogLikelihood:     fit.LogLikelihood,
		NullLogLikelihood: nullLogLikelihood(design.Y),
		Iterations:        fit.Iterations,
		Converged:         fit.Converged,
	}

	for j, term := range design.Terms {
		est := fit.Beta[j]
		se := math.Sqrt(fit.Covariance.At(j, j))
		z := est / se
		summary.Coefficients = append(summary.Coefficients, stats.Coefficient{
			Term:     term,
			Estimate: est,
			StdErr:   se,
			Z:        z,
			PValue:   2 * distuv.UnitNormal.Survival(math.Abs(z)),
			CILow:    est - z975*se,
			CIHigh:   est + z975*se,
		})
	}

	summary.PseudoR2 = 1 - summary.LogLikelihood/summary.NullLogLikelihood
	llr := 2 * (summary.LogLikelihood - summary.NullLogLikelihood)
	if summary.DFModel > 0 {
		summary.LLRPValue = distuv.ChiSquared{K: float64(summary.DFModel)}.Survival(llr)
	} else {
		summary.LLRPValue = math.NaN()
	}
	summary.AIC = -2*summary.LogLikelihood + 2*float64(k)
	summary.BIC = -2*summary.LogLikelihood + float64(k)*math.Log(float64(n))

	return summary
}
