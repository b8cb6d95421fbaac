package logit

import (
	"fmt"
	"io"
	"strings"
	"time"

	"startupstats/domain/stats"
)

// RenderMeta carries run details printed in the summary header
type RenderMeta struct {
	Formula     string
	RunID       string
	GeneratedAt time.Time
}

const summaryWidth = 78

// Render writes a fixed-width text summary of a fitted model
func Render(w io.Writer, s *stats.ModelSummary, meta RenderMeta) error {
	var b strings.Builder

	title := "Logit Regression Results"
	pad := (summaryWidth - len(title)) / 2
	b.WriteString(strings.Repeat(" ", pad) + title + "\n")
	b.WriteString(strings.Repeat("=", summaryWidth) + "\n")

	converged := "False"
	if s.Converged {
		converged = "True"
	}
	left := [][2]string{
		{"Dep. Variable:", s.DependentVariable},
		{"Model:", "Logit"},
		{"Method:", s.Method},
		{"Date:", meta.GeneratedAt.Format("Mon, 02 Jan 2006")},
		{"Time:", meta.GeneratedAt.Format("15:04:05")},
		{"converged:", converged},
		{"Iterations:", fmt.Sprintf("%d", s.Iterations)},
	}
	right := [][2]string{
		{"No. Observations:", fmt.Sprintf("%d", s.Observations)},
		{"Df Residuals:", fmt.Sprintf("%d", s.DFResidual)},
		{"Df Model:", fmt.Sprintf("%d", s.DFModel)},
		{"Pseudo R-squ.:", fmt.Sprintf("%.4f", s.PseudoR2)},
		{"Log-Likelihood:", fmt.Sprintf("%.2f", s.LogLikelihood)},
		{"LL-Null:", fmt.Sprintf("%.2f", s.NullLogLikelihood)},
		{"LLR p-value:", fmt.Sprintf("%.4g", s.LLRPValue)},
	}
	for i := range left {
		fmt.Fprintf(&b, "%-15s%22s   %-18s%20s\n", left[i][0], left[i][1], right[i][0], right[i][1])
	}
	fmt.Fprintf(&b, "%-15s%22s   %-18s%20s\n", "AIC:", fmt.Sprintf("%.2f", s.AIC), "BIC:", fmt.Sprintf("%.2f", s.BIC))
	b.WriteString(strings.Repeat("=", summaryWidth) + "\n")

	termWidth := 20
	for _, c := range s.Coefficients {
		if len(c.Term) > termWidth {
			termWidth = len(c.Term)
		}
	}
	fmt.Fprintf(&b, "%-*s %10s %10s %10s %8s %10s %10s\n", termWidth, "", "coef", "std err", "z", "P>|z|", "[0.025", "0.975]")
	b.WriteString(strings.Repeat("-", termWidth+64) + "\n")
	for _, c := range s.Coefficients {
		fmt.Fprintf(&b, "%-*s %10.4f %10.3f %10.3f %8.3f %10.3f %10.3f\n",
			termWidth, c.Term, c.Estimate, c.StdErr, c.Z, c.PValue, c.CILow, c.CIHigh)
	}
	b.WriteString(strings.Repeat("=", summaryWidth) + "\n")

	if meta.Formula != "" {
		fmt.Fprintf(&b, "Formula: %s\n", meta.Formula)
	}
	if meta.RunID != "" {
		fmt.Fprintf(&b, "Run: %s\n", meta.RunID)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
