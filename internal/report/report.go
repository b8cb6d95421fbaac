package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"startupstats/domain/dataset"
	"startupstats/domain/stats"
	"startupstats/internal/analysis"
	"startupstats/internal/profiling"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// Printer writes the human readable console report
type Printer struct {
	out    io.Writer
	header *color.Color
	good   *color.Color
	bad    *color.Color
}

// NewPrinter creates a printer writing to out
func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out:    out,
		header: color.New(color.FgCyan, color.Bold),
		good:   color.New(color.FgGreen),
		bad:    color.New(color.FgRed),
	}
}

// Section prints a section heading
func (p *Printer) Section(title string) {
	p.header.Fprintf(p.out, "\n=== %s ===\n", title)
}

func (p *Printer) table(header []string) *tablewriter.Table {
	t := tablewriter.NewWriter(p.out)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	return t
}

// DataFile prints the input location
func (p *Printer) DataFile(path string) {
	fmt.Fprintf(p.out, "Data file: %s\n", path)
}

// Head prints the first rows of the table
func (p *Printer) Head(table *dataset.Table, n int) {
	p.Section("HEAD")
	t := p.table(table.Names())
	t.AppendBulk(table.Head(n))
	t.Render()
}

// Shape prints the row and column counts
func (p *Printer) Shape(profile *profiling.Profile) {
	p.Section("SHAPE")
	fmt.Fprintf(p.out, "(%d, %d)\n", profile.Rows, profile.Columns)
}

// Info prints per column non-null counts and inferred types
func (p *Printer) Info(profile *profiling.Profile) {
	p.Section("INFO")
	t := p.table([]string{"#", "Column", "Non-Null Count", "Dtype"})
	for i, info := range profile.Info {
		t.Append([]string{
			strconv.Itoa(i),
			info.Column,
			fmt.Sprintf("%d non-null", info.NonNull),
			string(info.Kind),
		})
	}
	t.Render()
}

// Describe prints the numeric summary statistics
func (p *Printer) Describe(profile *profiling.Profile) {
	p.Section("DESCRIBE")
	t := p.table([]string{"column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"})
	t.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, s := range profile.Numeric {
		t.Append([]string{
			s.Column,
			strconv.Itoa(s.Count),
			num(s.Mean), num(s.StdDev), num(s.Min),
			num(s.Q25), num(s.Median), num(s.Q75), num(s.Max),
		})
	}
	t.Render()
}

// ValueCounts prints a frequency table
func (p *Printer) ValueCounts(summary profiling.CategoricalSummary) {
	p.Section("VALUE COUNTS: " + summary.Column)
	t := p.table([]string{summary.Column, "count"})
	for _, vc := range summary.Counts {
		t.Append([]string{vc.Value, strconv.Itoa(vc.Count)})
	}
	t.Render()
}

// SuccessRate prints the normalized counts of the success indicator
func (p *Printer) SuccessRate(summary profiling.CategoricalSummary) {
	p.Section("SUCCESS RATE")
	props := summary.Proportions()
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := p.table([]string{summary.Column, "proportion"})
	for _, k := range keys {
		t.Append([]string{k, num(props[k])})
	}
	t.Render()
}

// Hypothesis prints one two-sample test with optional group success rates.
// A failed test prints its diagnostic instead of numbers; success rates
// are printed either way.
func (p *Printer) Hypothesis(title string, result *stats.TestResult, rates []analysis.Bucket, err error) {
	p.Section(title)
	for _, b := range rates {
		fmt.Fprintf(p.out, "success rate (%s): %s (%d/%d)\n", b.Key, num(b.Rate()), b.Successes, b.Count)
	}
	if err != nil {
		p.bad.Fprintf(p.out, "test failed: %v\n", err)
		return
	}

	t := p.table([]string{"group", "n", "mean", "variance"})
	t.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, g := range []stats.GroupStats{result.A, result.B} {
		t.Append([]string{g.Label, strconv.Itoa(g.N), num(g.Mean), num(g.Variance)})
	}
	t.Render()

	fmt.Fprintf(p.out, "t = %.4f, df = %.2f, p = %.4g\n", result.Statistic, result.DF, result.PValue)
	if result.Significant(0.05) {
		p.good.Fprintln(p.out, "difference is significant at the 5% level")
	} else {
		fmt.Fprintln(p.out, "difference is not significant at the 5% level")
	}
}

// Regression prints the rendered model summary or the fit failure
func (p *Printer) Regression(summary string, err error) {
	p.Section("LOGISTIC REGRESSION RESULTS")
	if err != nil {
		p.bad.Fprintf(p.out, "regression failed: %v\n", err)
		return
	}
	fmt.Fprint(p.out, summary)
}

// Artifacts lists written files
func (p *Printer) Artifacts(dir, summaryFile string, written int) {
	p.Section("ARTIFACTS")
	fmt.Fprintf(p.out, "%d charts saved to %s\n", written, dir)
	if summaryFile != "" {
		fmt.Fprintf(p.out, "Regression summary saved to %s\n", summaryFile)
	}
}

// Warning prints a highlighted notice
func (p *Printer) Warning(msg string) {
	p.bad.Fprintln(p.out, msg)
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}
