package logit

import (
	"fmt"
	"math"

	"startupstats/internal/errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Options control the Newton-Raphson iterations
type Options struct {
	MaxIterations int
	Tolerance     float64 // convergence threshold on the log-likelihood and parameter change
}

// DefaultOptions matches the usual logit defaults
func DefaultOptions() Options {
	return Options{MaxIterations: 35, Tolerance: 1e-8}
}

// maxCondition bounds the information matrix condition number
const maxCondition = 1e12

// separationTolerance is how close fitted probabilities may get to the
// observed outcomes before the fit counts as perfectly separated
const separationTolerance = 1e-8

// maxStdErrRatio bounds a standard error relative to 1+|coefficient|
const maxStdErrRatio = 100

// Fit is the raw output of a maximum-likelihood fit
type Fit struct {
	Beta          []float64
	Covariance    *mat.SymDense
	LogLikelihood float64
	Iterations    int
	Converged     bool
}

// FitMLE maximises the Bernoulli log-likelihood of y given x. It fails
// with NOT_CONVERGED on a single-class outcome, perfect separation, a
// singular information matrix or an exhausted iteration budget.
func FitMLE(x *mat.Dense, y []float64, opts Options) (*Fit, error) {
	n, k := x.Dims()
	if n != len(y) {
		return nil, errors.InternalError(fmt.Sprintf("design has %d rows, outcome has %d", n, len(y)))
	}
	if n <= k {
		return nil, errors.NotConverged(fmt.Sprintf("%d observations cannot identify %d parameters", n, k))
	}

	positives := floats.Sum(y)
	if positives == 0 || positives == float64(n) {
		return nil, errors.NotConverged("outcome has a single class; the likelihood has no maximum")
	}

	beta := mat.NewVecDense(k, nil)
	prob := make([]float64, n)
	llOld := logLikelihood(x, y, beta, prob)

	for iter := 1; iter <= opts.MaxIterations; iter++ {
		chol, err := information(x, prob)
		if err != nil {
			return nil, err
		}

		grad := mat.NewVecDense(k, nil)
		for i := 0; i < n; i++ {
			resid := y[i] - prob[i]
			row := x.RawRowView(i)
			for j := 0; j < k; j++ {
				grad.SetVec(j, grad.AtVec(j)+resid*row[j])
			}
		}

		var step mat.VecDense
		if err := chol.SolveVecTo(&step, grad); err != nil {
			return nil, errors.NotConverged(fmt.Sprintf("newton step failed at iteration %d: %v", iter, err))
		}
		beta.AddVec(beta, &step)

		ll := logLikelihood(x, y, beta, prob)
		if math.IsNaN(ll) || math.IsInf(ll, 0) {
			return nil, errors.NotConverged(fmt.Sprintf("log-likelihood became non-finite at iteration %d", iter))
		}
		if perfectlySeparated(y, prob) {
			return nil, errors.NotConverged("perfect separation detected; coefficients are not identified")
		}

		if math.Abs(ll-llOld) < opts.Tolerance && floats.Norm(step.RawVector().Data, math.Inf(1)) < opts.Tolerance {
			if rows := boundaryRows(prob); rows > 0 {
				return nil, errors.NotConverged(fmt.Sprintf("quasi-separation detected: %d rows fitted with probability 0 or 1", rows))
			}
			chol, err := information(x, prob)
			if err != nil {
				return nil, err
			}
			cov := mat.NewSymDense(k, nil)
			if err := chol.InverseTo(cov); err != nil {
				return nil, errors.NotConverged(fmt.Sprintf("covariance inversion failed: %v", err))
			}
			for j := 0; j < k; j++ {
				if se := math.Sqrt(cov.At(j, j)); se > maxStdErrRatio*(1+math.Abs(beta.AtVec(j))) {
					return nil, errors.NotConverged(fmt.Sprintf("standard error %.4g of parameter %d is unbounded (possible quasi-separation)", se, j))
				}
			}
			return &Fit{
				Beta:          mat.Col(nil, 0, beta),
				Covariance:    cov,
				LogLikelihood: ll,
				Iterations:    iter,
				Converged:     true,
			}, nil
		}
		llOld = ll
	}

	return nil, errors.NotConverged(fmt.Sprintf("maximum likelihood did not converge in %d iterations (possible quasi-separation)", opts.MaxIterations))
}

// information factorises X'WX with W = diag(p(1-p))
func information(x *mat.Dense, prob []float64) (*mat.Cholesky, error) {
	n, k := x.Dims()
	h := mat.NewSymDense(k, nil)
	for i := 0; i < n; i++ {
		w := prob[i] * (1 - prob[i])
		row := x.RawRowView(i)
		for a := 0; a < k; a++ {
			wa := w * row[a]
			for b := a; b < k; b++ {
				h.SetSym(a, b, h.At(a, b)+wa*row[b])
			}
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(h); !ok || chol.Cond() > maxCondition {
		return nil, errors.NotConverged("information matrix is singular; predictors are collinear or perfectly separate the outcome")
	}
	return &chol, nil
}

// logLikelihood evaluates the Bernoulli log-likelihood at beta and
// stores the fitted probabilities in prob
func logLikelihood(x *mat.Dense, y []float64, beta *mat.VecDense, prob []float64) float64 {
	var eta mat.VecDense
	eta.MulVec(x, beta)

	ll := 0.0
	for i := range y {
		e := eta.AtVec(i)
		prob[i] = sigmoid(e)
		ll += y[i]*e - softplus(e)
	}
	return ll
}

func sigmoid(e float64) float64 {
	if e >= 0 {
		return 1 / (1 + math.Exp(-e))
	}
	z := math.Exp(e)
	return z / (1 + z)
}

// softplus is log(1 + exp(e)) without overflow
func softplus(e float64) float64 {
	if e > 0 {
		return e + math.Log1p(math.Exp(-e))
	}
	return math.Log1p(math.Exp(e))
}

// boundaryRows counts fitted probabilities within separationTolerance of
// 0 or 1
func boundaryRows(prob []float64) int {
	rows := 0
	for _, p := range prob {
		if p < separationTolerance || p > 1-separationTolerance {
			rows++
		}
	}
	return rows
}

func perfectlySeparated(y, prob []float64) bool {
	for i := range y {
		if math.Abs(y[i]-prob[i]) > separationTolerance {
			return false
		}
	}
	return true
}

// nullLogLikelihood is the log-likelihood of the intercept-only model
func nullLogLikelihood(y []float64) float64 {
	mean := floats.Sum(y) / float64(len(y))
	ll := 0.0
	for _, v := range y {
		ll += v*math.Log(mean) + (1-v)*math.Log(1-mean)
	}
	return ll
}
