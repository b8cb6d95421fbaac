package analysis

import (
	"fmt"
	"math"
	"sort"

	"startupstats/domain/dataset"
	"startupstats/internal/errors"
)

// OutOfRangePolicy decides what happens to values outside the bounds
type OutOfRangePolicy string

const (
	// OutOfRangeExclude leaves the bin missing
	OutOfRangeExclude OutOfRangePolicy = "exclude"
	// OutOfRangeError fails the binning
	OutOfRangeError OutOfRangePolicy = "error"
)

// Binner maps a continuous value onto fixed, labelled ranges. The first
// interval is closed [b0, b1]; every later one is half-open (b_i, b_i+1].
type Binner struct {
	bounds []float64
	labels []string
	policy OutOfRangePolicy
}

// NewBinner validates the bounds and labels
func NewBinner(bounds []float64, labels []string, policy OutOfRangePolicy) (*Binner, error) {
	if len(bounds) < 2 {
		return nil, errors.ConfigInvalid("at least two bin bounds are required")
	}
	for i := 1; i < len(bounds); i++ {
		if !(bounds[i] > bounds[i-1]) {
			return nil, errors.ConfigInvalid(fmt.Sprintf("bin bounds must be strictly increasing (%v)", bounds))
		}
	}
	if len(labels) != len(bounds)-1 {
		return nil, errors.ConfigInvalid(fmt.Sprintf("%d bounds need %d labels, got %d", len(bounds), len(bounds)-1, len(labels)))
	}
	switch policy {
	case OutOfRangeExclude, OutOfRangeError:
	default:
		return nil, errors.ConfigInvalid(fmt.Sprintf("unknown out-of-range policy %q", policy))
	}

	return &Binner{
		bounds: append([]float64(nil), bounds...),
		labels: append([]string(nil), labels...),
		policy: policy,
	}, nil
}

// Labels returns the bin labels in ascending order
func (b *Binner) Labels() []string {
	return append([]string(nil), b.labels...)
}

// Bin returns the label for v. ok is false for missing values and, under
// the exclude policy, for out-of-range values.
func (b *Binner) Bin(v float64) (label string, ok bool, err error) {
	if math.IsNaN(v) {
		return "", false, nil
	}
	lo, hi := b.bounds[0], b.bounds[len(b.bounds)-1]
	if v < lo || v > hi {
		if b.policy == OutOfRangeError {
			return "", false, errors.MalformedData(fmt.Sprintf("value %v outside bin range [%v, %v]", v, lo, hi))
		}
		return "", false, nil
	}
	idx := sort.SearchFloat64s(b.bounds, v)
	if idx == 0 {
		return b.labels[0], true, nil
	}
	return b.labels[idx-1], true, nil
}

// Apply adds a categorical bin column dst computed from src
func (b *Binner) Apply(table *dataset.Table, src, dst string) error {
	values, err := table.Numeric(src)
	if err != nil {
		return errors.Wrapf(err, "cannot derive %s", dst)
	}

	labels := make([]string, len(values))
	missing := make([]bool, len(values))
	for i, v := range values {
		label, ok, err := b.Bin(v)
		if err != nil {
			return errors.Wrapf(err, "binning %s at record %d (file line %d)", src, i+1, i+2)
		}
		labels[i] = label
		missing[i] = !ok
	}
	return table.AddColumn(dataset.NewCategoricalColumn(dst, labels, missing))
}
