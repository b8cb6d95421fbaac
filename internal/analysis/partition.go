package analysis

import (
	"fmt"
	"math"

	"startupstats/domain/dataset"
	"startupstats/internal/errors"
)

// Group membership of a row in a Partition
const (
	Excluded = iota
	GroupA
	GroupB
)

// Partition assigns each row to one of two mutually exclusive groups, or
// to neither
type Partition struct {
	Name   string
	LabelA string
	LabelB string
	assign []int
}

// Sizes counts the rows in each group
func (p *Partition) Sizes() (a, b int) {
	for _, g := range p.assign {
		switch g {
		case GroupA:
			a++
		case GroupB:
			b++
		}
	}
	return a, b
}

// Split extracts the measured values for each group, dropping rows with a
// missing measurement
func (p *Partition) Split(values []float64) (a, b []float64, err error) {
	if len(values) != len(p.assign) {
		return nil, nil, errors.InternalError(fmt.Sprintf("partition %s covers %d rows, got %d values", p.Name, len(p.assign), len(values)))
	}
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		switch p.assign[i] {
		case GroupA:
			a = append(a, v)
		case GroupB:
			b = append(b, v)
		}
	}
	return a, b, nil
}

// SuccessRates tallies the success indicator per group
func (p *Partition) SuccessRates(success []float64) (a, b Bucket) {
	a.Key, b.Key = p.LabelA, p.LabelB
	for i, g := range p.assign {
		if i >= len(success) || math.IsNaN(success[i]) {
			continue
		}
		var bucket *Bucket
		switch g {
		case GroupA:
			bucket = &a
		case GroupB:
			bucket = &b
		default:
			continue
		}
		bucket.Count++
		if success[i] == 1 {
			bucket.Successes++
		}
	}
	return a, b
}

// ByOutcome partitions rows into success (A) and failure (B). With an empty
// failureLabel every non-success row is a failure; otherwise only rows
// whose status equals failureLabel are.
func ByOutcome(table *dataset.Table, successColumn, statusColumn, failureLabel string) (*Partition, error) {
	success, err := table.Numeric(successColumn)
	if err != nil {
		return nil, errors.Wrap(err, "outcome partition")
	}

	p := &Partition{
		Name:   "outcome",
		LabelA: "success",
		LabelB: "failure",
		assign: make([]int, len(success)),
	}

	var status *dataset.Column
	if failureLabel != "" {
		if status, err = table.Column(statusColumn); err != nil {
			return nil, errors.Wrap(err, "outcome partition")
		}
		p.LabelB = failureLabel
	}

	for i, s := range success {
		switch {
		case s == 1:
			p.assign[i] = GroupA
		case status == nil:
			p.assign[i] = GroupB
		case !status.IsMissing(i) && status.Format(i) == failureLabel:
			p.assign[i] = GroupB
		}
	}
	return p, nil
}

// ByTeamSize partitions rows into solo founders (count 1, A) and small
// teams (count 2 or 3, B). Any other count, or a missing one, is excluded.
func ByTeamSize(table *dataset.Table, foundersColumn string) (*Partition, error) {
	founders, err := table.Numeric(foundersColumn)
	if err != nil {
		return nil, errors.Wrap(err, "team size partition")
	}

	p := &Partition{
		Name:   "team_size",
		LabelA: "solo",
		LabelB: "small team",
		assign: make([]int, len(founders)),
	}
	for i, n := range founders {
		switch n {
		case 1:
			p.assign[i] = GroupA
		case 2, 3:
			p.assign[i] = GroupB
		}
	}
	return p, nil
}
