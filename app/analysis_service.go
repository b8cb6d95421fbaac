package app

import (
	"context"
	"io"
	"time"

	"startupstats/adapters/charts"
	"startupstats/adapters/excel"
	"startupstats/domain/dataset"
	"startupstats/internal/analysis"
	"startupstats/internal/config"
	"startupstats/internal/errors"
	"startupstats/internal/logging"
	"startupstats/internal/profiling"
	"startupstats/internal/report"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Step names recorded in the run report
const (
	StepLoad       = "load"
	StepDescribe   = "describe"
	StepLabel      = "label"
	StepDerive     = "derive"
	StepVisualize  = "visualize"
	StepHypotheses = "hypotheses"
	StepRegression = "regression"
)

// RunResult is everything a run produced
type RunResult struct {
	Report     *RunReport
	Table      *dataset.Table
	Profile    *profiling.Profile
	Charts     []charts.Chart
	Hypotheses []HypothesisOutcome
	Regression *RegressionResult
}

// AnalysisService runs the single pass analysis: load, describe, label,
// derive, visualize, test and model
type AnalysisService struct {
	cfg     *config.Config
	log     logrus.FieldLogger
	printer *report.Printer
}

// NewAnalysisService creates the service; the console report goes to out
func NewAnalysisService(cfg *config.Config, logger logrus.FieldLogger, out io.Writer) *AnalysisService {
	return &AnalysisService{
		cfg:     cfg,
		log:     logger,
		printer: report.NewPrinter(out),
	}
}

// Run executes the analysis. The returned error is non-nil only for a
// fatal failure; statistical failures are recorded in the run report.
func (s *AnalysisService) Run(ctx context.Context) (*RunResult, error) {
	runID := uuid.New().String()
	log := s.log.WithField("run_id", runID)
	res := &RunResult{Report: &RunReport{RunID: runID, StartedAt: time.Now()}}
	runner := NewStageRunner(res.Report, log)

	log.WithFields(logrus.Fields{
		"variant":   s.cfg.Variant,
		"data_file": s.cfg.Paths.DataFile,
	}).Info("starting analysis")

	steps := []struct {
		name string
		fn   func() error
	}{
		{StepLoad, func() error { return s.load(res, log) }},
		{StepDescribe, func() error { return s.describe(res, log) }},
		{StepLabel, func() error { return s.label(res) }},
		{StepDerive, func() error { return s.derive(res, runner) }},
		{StepVisualize, func() error { return s.visualize(res, log) }},
		{StepHypotheses, func() error { return s.hypotheses(res, log) }},
		{StepRegression, func() error { return s.regression(res, log) }},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := runner.Run(step.name, step.fn); err != nil {
			return res, err
		}
	}

	s.artifacts(res)
	log.WithField("failed_steps", len(res.Report.Failed())).Info("analysis finished")
	return res, nil
}

func (s *AnalysisService) load(res *RunResult, log logrus.FieldLogger) error {
	reader := excel.NewDataReader(s.cfg.Paths.DataFile, log)
	table, err := reader.ReadTable()
	if err != nil {
		return err
	}
	res.Table = table
	s.printer.DataFile(s.cfg.Paths.DataFile)
	s.printer.Head(table, s.cfg.Report.HeadRows)
	return nil
}

func (s *AnalysisService) describe(res *RunResult, log logrus.FieldLogger) error {
	analyzer := profiling.NewDistributionAnalyzer()
	res.Profile = analyzer.Describe(res.Table)

	s.printer.Shape(res.Profile)
	s.printer.Info(res.Profile)
	s.printer.Describe(res.Profile)
	for _, col := range []string{s.cfg.Outcome.StatusColumn, s.cfg.Columns.Industry} {
		if counts, ok := analyzer.ValueCounts(res.Table, col); ok {
			s.printer.ValueCounts(counts)
		} else {
			log.WithField("column", col).Warn("column absent, skipping value counts")
		}
	}
	return nil
}

func (s *AnalysisService) label(res *RunResult) error {
	labeler := analysis.NewLabeler(s.cfg.Outcome.StatusColumn, s.cfg.Outcome.SuccessLabel)
	if err := labeler.Apply(res.Table, s.cfg.Columns.Success); err != nil {
		return err
	}
	if counts, ok := profiling.NewDistributionAnalyzer().ValueCounts(res.Table, s.cfg.Columns.Success); ok {
		s.printer.SuccessRate(counts)
	}
	return nil
}

func (s *AnalysisService) derive(res *RunResult, runner *StageRunner) error {
	if err := analysis.LogFunding(res.Table, s.cfg.Columns.Funding, s.cfg.Columns.LogFunding); err != nil {
		return err
	}

	if !res.Table.Has(s.cfg.Columns.Macro) {
		runner.Skip(StepDerive+"/"+s.cfg.Columns.MacroBinned, "column "+s.cfg.Columns.Macro+" not found")
		return nil
	}
	binner, err := analysis.NewBinner(s.cfg.Bins.Bounds, s.cfg.Bins.Labels, analysis.OutOfRangePolicy(s.cfg.Bins.OutOfRange))
	if err != nil {
		return err
	}
	return binner.Apply(res.Table, s.cfg.Columns.Macro, s.cfg.Columns.MacroBinned)
}

func (s *AnalysisService) visualize(res *RunResult, log logrus.FieldLogger) error {
	cols := charts.Columns{
		Funding:     s.cfg.Columns.Funding,
		Founders:    s.cfg.Columns.Founders,
		Industry:    s.cfg.Columns.Industry,
		Experience:  s.cfg.Columns.Experience,
		Macro:       s.cfg.Columns.Macro,
		Status:      s.cfg.Outcome.StatusColumn,
		Success:     s.cfg.Columns.Success,
		MacroBinned: s.cfg.Columns.MacroBinned,
	}
	opts := charts.Options{
		Dir:       s.cfg.Paths.FiguresDir,
		HistBins:  s.cfg.Report.HistBins,
		BinLabels: s.cfg.Bins.Labels,
	}
	rendered, err := charts.NewVisualizer(cols, opts, logging.Component(log, "charts")).Render(res.Table)
	res.Charts = rendered
	return err
}

func (s *AnalysisService) hypotheses(res *RunResult, log logrus.FieldLogger) error {
	svc := NewHypothesisService(s.cfg.Columns, s.cfg.Outcome, logging.Component(log, "hypotheses"))
	outcomes, err := svc.RunAll(res.Table)
	res.Hypotheses = outcomes
	for _, o := range outcomes {
		s.printer.Hypothesis(o.Title, o.Result, o.Rates, o.Err)
		if o.Err != nil && !errors.IsFatal(o.Err) {
			res.Report.Steps = append(res.Report.Steps, StepOutcome{Name: StepHypotheses + "/" + o.ID, Status: StepFailed, Err: o.Err})
		}
	}
	return err
}

func (s *AnalysisService) regression(res *RunResult, log logrus.FieldLogger) error {
	svc := NewRegressionService(s.cfg, logging.Component(log, "regression"))
	result, err := svc.Run(res.Table, res.Report.RunID)
	if err != nil {
		s.printer.Regression("", err)
		return err
	}
	res.Regression = result
	s.printer.Regression(result.Text, nil)
	return nil
}

func (s *AnalysisService) artifacts(res *RunResult) {
	written := 0
	for _, c := range res.Charts {
		if !c.Skipped {
			written++
		}
	}
	summary := ""
	if res.Regression != nil {
		summary = res.Regression.Path
	}
	s.printer.Artifacts(s.cfg.Paths.FiguresDir, summary, written)
	for _, failed := range res.Report.Failed() {
		s.printer.Warning("step " + failed.Name + " failed: " + failed.Err.Error())
	}
}
