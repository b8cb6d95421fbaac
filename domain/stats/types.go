package stats

// TestType identifies the statistical test that produced a result
type TestType string

const (
	TestWelch TestType = "welch_ttest"
)

// GroupStats summarises one side of a two-sample comparison
type GroupStats struct {
	Label    string  `json:"label"`
	N        int     `json:"n"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
}

// TestResult is the outcome of a two-sample hypothesis test.
// Statistic is signed as mean(A) - mean(B).
type TestResult struct {
	Test      TestType   `json:"test"`
	A         GroupStats `json:"a"`
	B         GroupStats `json:"b"`
	Statistic float64    `json:"statistic"`
	DF        float64    `json:"df"`
	PValue    float64    `json:"p_value"`
}

// Significant reports whether the p-value is below alpha
func (r TestResult) Significant(alpha float64) bool {
	return r.PValue < alpha
}

// Coefficient is one fitted regression term
type Coefficient struct {
	Term     string  `json:"term"`
	Estimate float64 `json:"estimate"`
	StdErr   float64 `json:"std_err"`
	Z        float64 `json:"z"`
	PValue   float64 `json:"p_value"`
	CILow    float64 `json:"ci_low"`
	CIHigh   float64 `json:"ci_high"`
}

// ModelSummary is a fitted logistic regression with fit statistics
type ModelSummary struct {
	DependentVariable string        `json:"dependent_variable"`
	Method            string        `json:"method"`
	Coefficients      []Coefficient `json:"coefficients"`
	Observations      int           `json:"observations"`
	DFModel           int           `json:"df_model"`
	DFResidual        int           `json:"df_residual"`
	LogLikelihood     float64       `json:"log_likelihood"`
	NullLogLikelihood float64       `json:"null_log_likelihood"`
	PseudoR2          float64       `json:"pseudo_r2"`
	LLRPValue         float64       `json:"llr_p_value"`
	AIC               float64       `json:"aic"`
	BIC               float64       `json:"bic"`
	Iterations        int           `json:"iterations"`
	Converged         bool          `json:"converged"`
}

// Coefficient returns the named term
func (m *ModelSummary) Coefficient(term string) (Coefficient, bool) {
	for _, c := range m.Coefficients {
		if c.Term == term {
			return c, true
		}
	}
	return Coefficient{}, false
}
