package app

import (
	"time"

	"startupstats/internal/errors"

	"github.com/sirupsen/logrus"
)

// StepStatus is the outcome of one analysis step
type StepStatus string

const (
	StepOK      StepStatus = "ok"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

// StepOutcome records one executed step
type StepOutcome struct {
	Name      string
	Status    StepStatus
	Err       error
	RuntimeMs int64
}

// RunReport records every step of a run in execution order
type RunReport struct {
	RunID     string
	StartedAt time.Time
	Steps     []StepOutcome
}

// Failed returns the steps that did not succeed
func (r *RunReport) Failed() []StepOutcome {
	var out []StepOutcome
	for _, s := range r.Steps {
		if s.Status == StepFailed {
			out = append(out, s)
		}
	}
	return out
}

// Step returns the outcome recorded under name
func (r *RunReport) Step(name string) (StepOutcome, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepOutcome{}, false
}

// StageRunner executes steps in isolation and records their outcomes
type StageRunner struct {
	report *RunReport
	log    logrus.FieldLogger
}

// NewStageRunner creates a runner recording into report
func NewStageRunner(report *RunReport, logger logrus.FieldLogger) *StageRunner {
	return &StageRunner{report: report, log: logger}
}

// Run executes fn as step name. A fatal error is returned to the caller;
// a statistical failure is recorded and logged, and Run returns nil so
// the next step can proceed.
func (s *StageRunner) Run(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	outcome := StepOutcome{
		Name:      name,
		Status:    StepOK,
		Err:       err,
		RuntimeMs: time.Since(start).Milliseconds(),
	}
	entry := s.log.WithField("step", name)

	if err != nil {
		outcome.Status = StepFailed
		s.report.Steps = append(s.report.Steps, outcome)
		entry = entry.WithField("code", errors.GetCode(err))
		if errors.IsFatal(err) {
			entry.WithError(err).Error("step failed, aborting run")
			return err
		}
		entry.WithError(err).Warn("step failed, continuing")
		return nil
	}

	s.report.Steps = append(s.report.Steps, outcome)
	entry.WithField("runtime_ms", outcome.RuntimeMs).Debug("step completed")
	return nil
}

// Skip records a step that was not executed
func (s *StageRunner) Skip(name, reason string) {
	s.report.Steps = append(s.report.Steps, StepOutcome{Name: name, Status: StepSkipped})
	s.log.WithField("step", name).Warn("step skipped: " + reason)
}
