// Package logit fits binomial logistic regressions by maximum likelihood.
package logit

import (
	"fmt"
	"math"
	"sort"

	"startupstats/domain/dataset"
	"startupstats/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// InterceptTerm names the constant column of every design
const InterceptTerm = "Intercept"

// Formula describes outcome ~ numeric terms + C(categorical)
type Formula struct {
	Outcome     string
	Numeric     []string
	Categorical string // optional; one-hot encoded against a reference level
}

// String renders the formula in patsy notation
func (f Formula) String() string {
	s := f.Outcome + " ~ "
	for i, term := range f.Numeric {
		if i > 0 {
			s += " + "
		}
		s += term
	}
	if f.Categorical != "" {
		if len(f.Numeric) > 0 {
			s += " + "
		}
		s += "C(" + f.Categorical + ")"
	}
	return s
}

// Design is a model matrix built from a table
type Design struct {
	Terms     []string
	X         *mat.Dense
	Y         []float64
	Rows      []int  // table row of each design row
	Reference string // dropped level of the categorical term
	Levels    []string
}

// LevelTerm names the indicator column of a categorical level
func LevelTerm(column, level string) string {
	return fmt.Sprintf("C(%s)[T.%s]", column, level)
}

// BuildDesign drops rows missing any formula variable, then encodes the
// categorical term with k-1 indicators. The reference level is the
// lexicographically first level present.
func BuildDesign(table *dataset.Table, f Formula) (*Design, error) {
	outcome, err := table.Numeric(f.Outcome)
	if err != nil {
		return nil, errors.Wrapf(err, "outcome %s", f.Outcome)
	}

	numeric := make([][]float64, len(f.Numeric))
	for i, name := range f.Numeric {
		if numeric[i], err = table.Numeric(name); err != nil {
			return nil, errors.Wrapf(err, "predictor %s", name)
		}
	}

	var category *dataset.Column
	if f.Categorical != "" {
		if category, err = table.Column(f.Categorical); err != nil {
			return nil, errors.Wrapf(err, "predictor C(%s)", f.Categorical)
		}
	}

	var rows []int
	for i := 0; i < table.Rows(); i++ {
		if math.IsNaN(outcome[i]) {
			continue
		}
		if outcome[i] != 0 && outcome[i] != 1 {
			return nil, errors.MalformedData(fmt.Sprintf("outcome %s must be 0 or 1, got %v at record %d", f.Outcome, outcome[i], i+1))
		}
		complete := true
		for _, col := range numeric {
			if math.IsNaN(col[i]) {
				complete = false
				break
			}
		}
		if complete && category != nil && category.IsMissing(i) {
			complete = false
		}
		if complete {
			rows = append(rows, i)
		}
	}

	d := &Design{Terms: []string{InterceptTerm}, Rows: rows}
	d.Terms = append(d.Terms, f.Numeric...)

	if category != nil {
		seen := make(map[string]bool)
		for _, i := range rows {
			level := category.Format(i)
			if !seen[level] {
				seen[level] = true
				d.Levels = append(d.Levels, level)
			}
		}
		sort.Strings(d.Levels)
		if len(d.Levels) > 0 {
			d.Reference = d.Levels[0]
			for _, level := range d.Levels[1:] {
				d.Terms = append(d.Terms, LevelTerm(f.Categorical, level))
			}
		}
	}

	if len(rows) == 0 {
		return nil, errors.DegenerateSample(fmt.Sprintf("no complete rows for %s", f))
	}

	levelIndex := make(map[string]int, len(d.Levels))
	for j, level := range d.Levels {
		levelIndex[level] = j
	}

	k := len(d.Terms)
	d.X = mat.NewDense(len(rows), k, nil)
	d.Y = make([]float64, len(rows))
	for r, i := range rows {
		d.X.Set(r, 0, 1)
		for j, col := range numeric {
			d.X.Set(r, 1+j, col[i])
		}
		if category != nil {
			if j := levelIndex[category.Format(i)]; j > 0 {
				d.X.Set(r, len(numeric)+j, 1)
			}
		}
		d.Y[r] = outcome[i]
	}

	return d, nil
}
