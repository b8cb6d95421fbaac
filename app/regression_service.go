package app

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"startupstats/adapters/stats/logit"
	"startupstats/domain/dataset"
	"startupstats/domain/stats"
	"startupstats/internal/config"
	"startupstats/internal/errors"

	"github.com/sirupsen/logrus"
)

// RegressionResult is a fitted model with its rendered summary
type RegressionResult struct {
	Summary *stats.ModelSummary
	Design  *logit.Design
	Text    string
	Path    string
}

// RegressionService fits the success model and persists its summary
type RegressionService struct {
	model       *logit.Model
	summaryFile string
	log         logrus.FieldLogger
	now         func() time.Time
}

// NewRegressionService creates a regression service for
// success ~ log_funding + founders + C(industry)
func NewRegressionService(cfg *config.Config, logger logrus.FieldLogger) *RegressionService {
	formula := logit.Formula{
		Outcome:     cfg.Columns.Success,
		Numeric:     []string{cfg.Columns.LogFunding, cfg.Columns.Founders},
		Categorical: cfg.Columns.Industry,
	}
	opts := logit.Options{
		MaxIterations: cfg.Logit.MaxIterations,
		Tolerance:     cfg.Logit.Tolerance,
	}
	return &RegressionService{
		model:       logit.NewModel(formula, opts),
		summaryFile: cfg.Paths.SummaryFile,
		log:         logger,
		now:         time.Now,
	}
}

// Run fits the model and writes the summary file. A fit that does not
// converge returns NOT_CONVERGED and writes nothing; a failed write
// returns OUTPUT_ERROR.
func (s *RegressionService) Run(table *dataset.Table, runID string) (*RegressionResult, error) {
	summary, design, err := s.model.Fit(table)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	meta := logit.RenderMeta{
		Formula:     s.model.Formula().String(),
		RunID:       runID,
		GeneratedAt: s.now(),
	}
	if err := logit.Render(&buf, summary, meta); err != nil {
		return nil, errors.Wrap(err, "rendering regression summary")
	}

	if err := os.MkdirAll(filepath.Dir(s.summaryFile), 0o755); err != nil {
		return nil, errors.OutputError(s.summaryFile, err)
	}
	if err := os.WriteFile(s.summaryFile, buf.Bytes(), 0o644); err != nil {
		return nil, errors.OutputError(s.summaryFile, err)
	}

	s.log.WithFields(logrus.Fields{
		"observations": summary.Observations,
		"iterations":   summary.Iterations,
		"pseudo_r2":    summary.PseudoR2,
		"path":         s.summaryFile,
	}).Info("regression summary written")

	return &RegressionResult{Summary: summary, Design: design, Text: buf.String(), Path: s.summaryFile}, nil
}
