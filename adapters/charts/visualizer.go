package charts

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"

	"startupstats/domain/dataset"
	"startupstats/internal/analysis"
	"startupstats/internal/errors"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Chart file names
const (
	FundingDistribution = "funding_distribution.png"
	FundingByStatus     = "funding_by_status.png"
	ExperienceByStatus  = "experience_by_status.png"
	MacroVsFunding      = "gdp_vs_funding.png"
	SuccessByFounders   = "success_by_founders.png"
	SuccessByMacroBin   = "success_by_gdp_bin.png"
	SectorByStatus      = "sector_by_status.png"
	FundingByIndustry   = "funding_by_industry.png"
	FoundersCount       = "founders_distribution.png"
)

var barColor = color.RGBA{R: 70, G: 130, B: 180, A: 255}

// Columns names the table columns the charts read
type Columns struct {
	Funding     string
	Founders    string
	Industry    string
	Experience  string
	Macro       string
	Status      string
	Success     string
	MacroBinned string
}

// Options control chart rendering
type Options struct {
	Dir       string
	HistBins  int
	BinLabels []string
	Width     vg.Length
	Height    vg.Length
}

// Chart is the outcome of one rendering
type Chart struct {
	Name    string
	Path    string
	Skipped bool
	Reason  string
}

// Visualizer renders the fixed chart set to PNG files
type Visualizer struct {
	cols Columns
	opts Options
	log  logrus.FieldLogger
}

// NewVisualizer creates a visualizer writing into opts.Dir
func NewVisualizer(cols Columns, opts Options, logger logrus.FieldLogger) *Visualizer {
	if opts.HistBins <= 0 {
		opts.HistBins = 30
	}
	if opts.Width == 0 {
		opts.Width = 8 * vg.Inch
	}
	if opts.Height == 0 {
		opts.Height = 5 * vg.Inch
	}
	return &Visualizer{cols: cols, opts: opts, log: logger}
}

type renderFunc func(table *dataset.Table) (*plot.Plot, error)

// Render draws every chart. A chart whose input columns are absent is
// skipped with a warning; a write failure aborts with OUTPUT_ERROR.
func (v *Visualizer) Render(table *dataset.Table) ([]Chart, error) {
	if err := os.MkdirAll(v.opts.Dir, 0o755); err != nil {
		return nil, errors.OutputError(v.opts.Dir, err)
	}

	steps := []struct {
		name    string
		columns []string
		render  renderFunc
	}{
		{FundingDistribution, []string{v.cols.Funding}, v.fundingHistogram},
		{FundingByStatus, []string{v.cols.Funding, v.cols.Status}, v.boxByGroup(v.cols.Funding, v.cols.Status, "Funding by status")},
		{ExperienceByStatus, []string{v.cols.Experience, v.cols.Status}, v.boxByGroup(v.cols.Experience, v.cols.Status, "Founder experience by status")},
		{MacroVsFunding, []string{v.cols.Macro, v.cols.Funding}, v.macroScatter},
		{SuccessByFounders, []string{v.cols.Founders, v.cols.Success}, v.successByFounders},
		{SuccessByMacroBin, []string{v.cols.MacroBinned, v.cols.Success}, v.successByMacroBin},
		{SectorByStatus, []string{v.cols.Industry, v.cols.Status}, v.sectorByStatus},
		{FundingByIndustry, []string{v.cols.Funding, v.cols.Industry}, v.boxByGroup(v.cols.Funding, v.cols.Industry, "Funding by industry")},
		{FoundersCount, []string{v.cols.Founders}, v.foundersDistribution},
	}

	charts := make([]Chart, 0, len(steps))
	for _, step := range steps {
		chart := Chart{Name: step.name, Path: filepath.Join(v.opts.Dir, step.name)}

		if missing, ok := absent(table, step.columns); ok {
			chart.Skipped = true
			chart.Reason = fmt.Sprintf("column %q not found", missing)
			v.log.WithField("chart", step.name).Warn("skipping chart: " + chart.Reason)
			charts = append(charts, chart)
			continue
		}

		p, err := step.render(table)
		if err != nil {
			if errors.IsFatal(err) {
				return charts, err
			}
			chart.Skipped = true
			chart.Reason = err.Error()
			v.log.WithField("chart", step.name).Warn("skipping chart: " + chart.Reason)
			charts = append(charts, chart)
			continue
		}

		if err := p.Save(v.opts.Width, v.opts.Height, chart.Path); err != nil {
			return charts, errors.OutputError(chart.Path, err)
		}
		v.log.WithField("chart", step.name).Debug("chart written")
		charts = append(charts, chart)
	}
	return charts, nil
}

// absent returns the first column that is unconfigured or not in the table
func absent(table *dataset.Table, columns []string) (string, bool) {
	for _, c := range columns {
		if c == "" || !table.Has(c) {
			return c, true
		}
	}
	return "", false
}

func (v *Visualizer) fundingHistogram(table *dataset.Table) (*plot.Plot, error) {
	funding, err := table.Numeric(v.cols.Funding)
	if err != nil {
		return nil, err
	}
	values := present(funding)
	if len(values) == 0 {
		return nil, errors.DegenerateSample(fmt.Sprintf("column %s has no values", v.cols.Funding))
	}

	hist, err := plotter.NewHist(plotter.Values(values), v.opts.HistBins)
	if err != nil {
		return nil, errors.InternalError(err.Error())
	}
	hist.FillColor = barColor

	p := plot.New()
	p.Title.Text = "Distribution of total funding"
	p.X.Label.Text = v.cols.Funding
	p.Y.Label.Text = "Count"
	p.Add(hist)
	return p, nil
}

// boxByGroup draws one box per level of the grouping column, levels in
// lexicographic order
func (v *Visualizer) boxByGroup(measure, group, title string) renderFunc {
	return func(table *dataset.Table) (*plot.Plot, error) {
		values, err := table.Numeric(measure)
		if err != nil {
			return nil, err
		}
		groups, err := table.Column(group)
		if err != nil {
			return nil, err
		}

		byLevel := make(map[string]plotter.Values)
		for i, x := range values {
			if math.IsNaN(x) || groups.IsMissing(i) {
				continue
			}
			level := groups.Format(i)
			byLevel[level] = append(byLevel[level], x)
		}
		if len(byLevel) == 0 {
			return nil, errors.DegenerateSample(fmt.Sprintf("no rows with both %s and %s", measure, group))
		}

		levels := sortedKeys(byLevel)
		p := plot.New()
		p.Title.Text = title
		p.X.Label.Text = group
		p.Y.Label.Text = measure
		for i, level := range levels {
			box, err := plotter.NewBoxPlot(vg.Points(20), float64(i), byLevel[level])
			if err != nil {
				return nil, errors.InternalError(err.Error())
			}
			box.FillColor = plotutil.Color(i)
			p.Add(box)
		}
		p.NominalX(levels...)
		return p, nil
	}
}

func (v *Visualizer) macroScatter(table *dataset.Table) (*plot.Plot, error) {
	macro, err := table.Numeric(v.cols.Macro)
	if err != nil {
		return nil, err
	}
	funding, err := table.Numeric(v.cols.Funding)
	if err != nil {
		return nil, err
	}

	var points plotter.XYs
	for i := range macro {
		if math.IsNaN(macro[i]) || math.IsNaN(funding[i]) {
			continue
		}
		points = append(points, plotter.XY{X: macro[i], Y: funding[i]})
	}
	if len(points) == 0 {
		return nil, errors.DegenerateSample(fmt.Sprintf("no rows with both %s and %s", v.cols.Macro, v.cols.Funding))
	}

	scatter, err := plotter.NewScatter(points)
	if err != nil {
		return nil, errors.InternalError(err.Error())
	}
	scatter.GlyphStyle.Color = barColor
	scatter.GlyphStyle.Radius = vg.Points(3)

	p := plot.New()
	p.Title.Text = "GDP growth vs funding"
	p.X.Label.Text = v.cols.Macro
	p.Y.Label.Text = v.cols.Funding
	p.Add(plotter.NewGrid(), scatter)
	return p, nil
}

func (v *Visualizer) successByFounders(table *dataset.Table) (*plot.Plot, error) {
	founders, err := table.Numeric(v.cols.Founders)
	if err != nil {
		return nil, err
	}
	success, err := table.Numeric(v.cols.Success)
	if err != nil {
		return nil, err
	}
	return rateChart(analysis.SuccessRatesByValue(founders, success), "Success rate by founder count", v.cols.Founders)
}

func (v *Visualizer) successByMacroBin(table *dataset.Table) (*plot.Plot, error) {
	bins, err := table.Column(v.cols.MacroBinned)
	if err != nil {
		return nil, err
	}
	success, err := table.Numeric(v.cols.Success)
	if err != nil {
		return nil, err
	}
	return rateChart(analysis.SuccessRatesByCategory(bins, success, v.opts.BinLabels), "Success rate by GDP growth bin", v.cols.MacroBinned)
}

func rateChart(rates *analysis.RateTable, title, xLabel string) (*plot.Plot, error) {
	if len(rates.Buckets) == 0 {
		return nil, errors.DegenerateSample(fmt.Sprintf("no rows to aggregate for %s", xLabel))
	}

	values := make(plotter.Values, len(rates.Buckets))
	names := make([]string, len(rates.Buckets))
	for i, b := range rates.Buckets {
		values[i] = b.Rate()
		names[i] = b.Key
	}

	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return nil, errors.InternalError(err.Error())
	}
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "Success rate"
	p.Y.Min = 0
	p.Y.Max = 1
	p.Add(bars)
	p.NominalX(names...)
	return p, nil
}

// sectorByStatus draws one bar series per status, grouped by industry
func (v *Visualizer) sectorByStatus(table *dataset.Table) (*plot.Plot, error) {
	industry, err := table.Column(v.cols.Industry)
	if err != nil {
		return nil, err
	}
	status, err := table.Column(v.cols.Status)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]map[string]int)
	sectors := make(map[string]bool)
	for i := 0; i < table.Rows(); i++ {
		if industry.IsMissing(i) || status.IsMissing(i) {
			continue
		}
		s, sector := status.Format(i), industry.Format(i)
		if counts[s] == nil {
			counts[s] = make(map[string]int)
		}
		counts[s][sector]++
		sectors[sector] = true
	}
	if len(sectors) == 0 {
		return nil, errors.DegenerateSample(fmt.Sprintf("no rows with both %s and %s", v.cols.Industry, v.cols.Status))
	}

	sectorNames := sortedKeys(sectors)
	statuses := sortedKeys(counts)
	width := vg.Points(12)

	p := plot.New()
	p.Title.Text = "Industry by status"
	p.X.Label.Text = v.cols.Industry
	p.Y.Label.Text = "Count"
	p.Legend.Top = true

	for j, s := range statuses {
		values := make(plotter.Values, len(sectorNames))
		for i, sector := range sectorNames {
			values[i] = float64(counts[s][sector])
		}
		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return nil, errors.InternalError(err.Error())
		}
		bars.Color = plotutil.Color(j)
		bars.LineStyle.Width = vg.Length(0)
		bars.Offset = width * vg.Length(float64(j)-float64(len(statuses)-1)/2)
		p.Add(bars)
		p.Legend.Add(s, bars)
	}
	p.NominalX(sectorNames...)
	return p, nil
}

func (v *Visualizer) foundersDistribution(table *dataset.Table) (*plot.Plot, error) {
	founders, err := table.Numeric(v.cols.Founders)
	if err != nil {
		return nil, err
	}

	counts := make(map[float64]int)
	for _, n := range founders {
		if !math.IsNaN(n) {
			counts[n]++
		}
	}
	if len(counts) == 0 {
		return nil, errors.DegenerateSample(fmt.Sprintf("column %s has no values", v.cols.Founders))
	}

	keys := make([]float64, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Float64s(keys)

	values := make(plotter.Values, len(keys))
	names := make([]string, len(keys))
	for i, k := range keys {
		values[i] = float64(counts[k])
		names[i] = fmt.Sprintf("%g", k)
	}

	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return nil, errors.InternalError(err.Error())
	}
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)

	p := plot.New()
	p.Title.Text = "Number of founders"
	p.X.Label.Text = v.cols.Founders
	p.Y.Label.Text = "Count"
	p.Add(bars)
	p.NominalX(names...)
	return p, nil
}

func present(values []float64) plotter.Values {
	out := make(plotter.Values, 0, len(values))
	for _, x := range values {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
