package analysis

import (
	"math"

	"startupstats/domain/dataset"
	"startupstats/internal/errors"
)

// LogFunding adds dst = log(1 + src). Missing and negative values stay
// missing.
func LogFunding(table *dataset.Table, src, dst string) error {
	values, err := table.Numeric(src)
	if err != nil {
		return errors.Wrapf(err, "cannot derive %s", dst)
	}

	out := make([]float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) || v < 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = math.Log1p(v)
	}
	return table.AddColumn(dataset.NewNumericColumn(dst, out))
}
