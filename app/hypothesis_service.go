package app

import (
	"startupstats/adapters/stats/ttest"
	"startupstats/domain/dataset"
	"startupstats/domain/stats"
	"startupstats/internal/analysis"
	"startupstats/internal/config"
	"startupstats/internal/errors"

	"github.com/sirupsen/logrus"
)

// HypothesisOutcome is the result of one fixed group comparison. Err is
// set when the test could not be computed.
type HypothesisOutcome struct {
	ID      string
	Title   string
	Measure string
	Result  *stats.TestResult
	Rates   []analysis.Bucket
	Err     error
}

// HypothesisService runs the fixed set of two-sample comparisons
type HypothesisService struct {
	columns config.ColumnConfig
	outcome config.OutcomeConfig
	log     logrus.FieldLogger
}

// NewHypothesisService creates a hypothesis service
func NewHypothesisService(columns config.ColumnConfig, outcome config.OutcomeConfig, logger logrus.FieldLogger) *HypothesisService {
	return &HypothesisService{columns: columns, outcome: outcome, log: logger}
}

type hypothesis struct {
	id, title, measure string
	partition          func(*dataset.Table) (*analysis.Partition, error)
	withRates          bool
}

func (s *HypothesisService) hypotheses() []hypothesis {
	byOutcome := func(t *dataset.Table) (*analysis.Partition, error) {
		return analysis.ByOutcome(t, s.columns.Success, s.outcome.StatusColumn, s.outcome.FailureLabel)
	}
	byTeam := func(t *dataset.Table) (*analysis.Partition, error) {
		return analysis.ByTeamSize(t, s.columns.Founders)
	}
	return []hypothesis{
		{id: "H1", title: "H1: funding, success vs failure", measure: s.columns.Funding, partition: byOutcome},
		{id: "H2", title: "H2: founder count, success vs failure", measure: s.columns.Founders, partition: byOutcome},
		{id: "H3", title: "H3: funding, solo vs small team", measure: s.columns.Funding, partition: byTeam, withRates: true},
	}
}

// RunAll executes every comparison in order. A degenerate sample fails
// only its own comparison. Input errors such as a missing column abort
// and are returned with the outcomes computed so far.
func (s *HypothesisService) RunAll(table *dataset.Table) ([]HypothesisOutcome, error) {
	var outcomes []HypothesisOutcome
	for _, h := range s.hypotheses() {
		outcome := s.run(table, h)
		outcomes = append(outcomes, outcome)

		entry := s.log.WithField("hypothesis", h.id)
		if outcome.Err != nil {
			if errors.IsFatal(outcome.Err) {
				return outcomes, outcome.Err
			}
			entry.WithError(outcome.Err).Warn("test could not be computed")
			continue
		}
		entry.WithFields(logrus.Fields{
			"t": outcome.Result.Statistic,
			"p": outcome.Result.PValue,
		}).Info("test completed")
	}
	return outcomes, nil
}

func (s *HypothesisService) run(table *dataset.Table, h hypothesis) HypothesisOutcome {
	outcome := HypothesisOutcome{ID: h.id, Title: h.title, Measure: h.measure}

	partition, err := h.partition(table)
	if err != nil {
		outcome.Err = errors.Wrapf(err, "%s", h.id)
		return outcome
	}
	na, nb := partition.Sizes()
	s.log.WithFields(logrus.Fields{
		"hypothesis":     h.id,
		partition.LabelA: na,
		partition.LabelB: nb,
	}).Debug("groups assigned")

	values, err := table.Numeric(h.measure)
	if err != nil {
		outcome.Err = errors.Wrapf(err, "%s", h.id)
		return outcome
	}
	a, b, err := partition.Split(values)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	if h.withRates {
		success, err := table.Numeric(s.columns.Success)
		if err != nil {
			outcome.Err = errors.Wrapf(err, "%s", h.id)
			return outcome
		}
		ra, rb := partition.SuccessRates(success)
		outcome.Rates = []analysis.Bucket{ra, rb}
	}

	result, err := ttest.Welch(
		ttest.Sample{Label: partition.LabelA, Values: a},
		ttest.Sample{Label: partition.LabelB, Values: b},
	)
	if err != nil {
		outcome.Err = errors.Wrapf(err, "%s on %s", h.id, h.measure)
		return outcome
	}
	outcome.Result = &result
	return outcome
}
