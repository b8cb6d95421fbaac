// Package analysis derives outcome labels, transformed columns, buckets
// and group partitions from a loaded table.
package analysis

import (
	"startupstats/domain/dataset"
	"startupstats/internal/errors"
)

// Predicate decides whether a status cell counts as success. Missing
// cells are passed with present=false.
type Predicate func(value string, present bool) bool

// EqualsLabel matches cells exactly equal to label
func EqualsLabel(label string) Predicate {
	return func(value string, present bool) bool {
		return present && value == label
	}
}

// Labeler derives a 0/1 success column from a status column
type Labeler struct {
	StatusColumn string
	Predicate    Predicate
}

// NewLabeler creates a labeler for status == successLabel
func NewLabeler(statusColumn, successLabel string) *Labeler {
	return &Labeler{
		StatusColumn: statusColumn,
		Predicate:    EqualsLabel(successLabel),
	}
}

// Label computes the indicator without touching the table
func (l *Labeler) Label(table *dataset.Table, name string) (*dataset.Column, error) {
	status, err := table.Column(l.StatusColumn)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot derive %s", name)
	}

	flags := make([]float64, status.Len())
	for i := 0; i < status.Len(); i++ {
		present := !status.IsMissing(i)
		value := ""
		if present {
			value = status.Format(i)
		}
		if l.Predicate(value, present) {
			flags[i] = 1
		}
	}
	return dataset.NewNumericColumn(name, flags), nil
}

// Apply adds the indicator column. Reapplying with the same inputs is a
// no-op.
func (l *Labeler) Apply(table *dataset.Table, name string) error {
	col, err := l.Label(table, name)
	if err != nil {
		return err
	}
	return table.AddColumn(col)
}
