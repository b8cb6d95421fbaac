package profiling

import (
	"math"
	"sort"

	"startupstats/domain/dataset"

	"github.com/montanaflynn/stats"
)

// NumericSummary is the describe() row for one numeric column
type NumericSummary struct {
	Column string
	Count  int
	Mean   float64
	StdDev float64 // sample standard deviation (n-1)
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
}

// ValueCount is one entry of a categorical frequency table
type ValueCount struct {
	Value string
	Count int
}

// CategoricalSummary is the frequency table of one categorical column
type CategoricalSummary struct {
	Column string
	Count  int
	Unique int
	Counts []ValueCount
}

// ColumnInfo is one line of the table info section
type ColumnInfo struct {
	Column  string
	NonNull int
	Kind    dataset.Kind
}

// Profile is the full descriptive summary of a table
type Profile struct {
	Rows        int
	Columns     int
	Info        []ColumnInfo
	Numeric     []NumericSummary
	Categorical []CategoricalSummary
}

// Types returns the inferred kind per column, in table order
func (p *Profile) Types() map[string]dataset.Kind {
	types := make(map[string]dataset.Kind, len(p.Info))
	for _, info := range p.Info {
		types[info.Column] = info.Kind
	}
	return types
}

// DistributionAnalyzer computes descriptive summaries
type DistributionAnalyzer struct{}

// NewDistributionAnalyzer creates a new distribution analyzer
func NewDistributionAnalyzer() *DistributionAnalyzer {
	return &DistributionAnalyzer{}
}

// Describe profiles every column of the table. It never mutates the table.
func (da *DistributionAnalyzer) Describe(table *dataset.Table) *Profile {
	profile := &Profile{
		Rows:    table.Rows(),
		Columns: table.Width(),
	}

	for _, col := range table.Columns() {
		profile.Info = append(profile.Info, ColumnInfo{
			Column:  col.Name(),
			NonNull: col.NonNull(),
			Kind:    col.Kind(),
		})

		switch col.Kind() {
		case dataset.KindNumeric:
			profile.Numeric = append(profile.Numeric, da.SummarizeNumeric(col.Name(), col.Floats()))
		case dataset.KindCategorical:
			profile.Categorical = append(profile.Categorical, da.summarizeCategorical(col))
		}
	}

	return profile
}

// ValueCounts returns the frequency table of a column. Absent columns
// report ok=false so callers can skip the section.
func (da *DistributionAnalyzer) ValueCounts(table *dataset.Table, column string) (CategoricalSummary, bool) {
	col, err := table.Column(column)
	if err != nil {
		return CategoricalSummary{}, false
	}
	if col.Kind() == dataset.KindCategorical {
		return da.summarizeCategorical(col), true
	}

	labels := make([]string, col.Len())
	missing := make([]bool, col.Len())
	for i := 0; i < col.Len(); i++ {
		missing[i] = col.IsMissing(i)
		labels[i] = col.Format(i)
	}
	return da.summarizeCategorical(dataset.NewCategoricalColumn(column, labels, missing)), true
}

// SummarizeNumeric computes count, mean, sample std, min, quartiles and
// max over the non-missing values. An empty sample yields NaN fields.
func (da *DistributionAnalyzer) SummarizeNumeric(column string, values []float64) NumericSummary {
	data := make(stats.Float64Data, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			data = append(data, v)
		}
	}

	summary := NumericSummary{Column: column, Count: len(data)}
	if len(data) == 0 {
		nan := math.NaN()
		summary.Mean, summary.StdDev, summary.Min, summary.Max = nan, nan, nan, nan
		summary.Q25, summary.Median, summary.Q75 = nan, nan, nan
		return summary
	}

	summary.Mean, _ = stats.Mean(data)
	summary.Min, _ = stats.Min(data)
	summary.Max, _ = stats.Max(data)
	if len(data) > 1 {
		summary.StdDev, _ = stats.StandardDeviationSample(data)
	} else {
		summary.StdDev = math.NaN()
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	summary.Q25 = quantile(sorted, 0.25)
	summary.Median = quantile(sorted, 0.50)
	summary.Q75 = quantile(sorted, 0.75)

	return summary
}

// quantile interpolates linearly between order statistics at
// position p*(n-1) of an ascending sample
func quantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := math.Floor(pos)
	hi := math.Ceil(pos)
	if lo == hi {
		return sorted[int(lo)]
	}
	frac := pos - lo
	return sorted[int(lo)]*(1-frac) + sorted[int(hi)]*frac
}

// summarizeCategorical counts values, most frequent first, ties by value
func (da *DistributionAnalyzer) summarizeCategorical(col *dataset.Column) CategoricalSummary {
	counts := make(map[string]int)
	present := 0
	for i := 0; i < col.Len(); i++ {
		v, ok := col.Text(i)
		if !ok {
			continue
		}
		counts[v]++
		present++
	}

	out := make([]ValueCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, ValueCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})

	return CategoricalSummary{
		Column: col.Name(),
		Count:  present,
		Unique: len(out),
		Counts: out,
	}
}

// Proportions returns each value's share of the non-missing count
func (s CategoricalSummary) Proportions() map[string]float64 {
	out := make(map[string]float64, len(s.Counts))
	if s.Count == 0 {
		return out
	}
	for _, vc := range s.Counts {
		out[vc.Value] = float64(vc.Count) / float64(s.Count)
	}
	return out
}
