package tracking

import (
	"fmt"
	"strings"
	"time"

	"finqa/internal/eval"
)

// renderReport builds the human-readable markdown summary of a run.
func renderReport(run *Run, summary eval.Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, `# Financial QA Evaluation Report

**Run ID:** %s
**Started:** %s
**Model:** %s (temperature %.2f)
**Dataset:** %s (n=%d)
**Workers:** %d, max iterations: %d

---

`,
		run.ID,
		run.StartedAt.Format("2006-01-02 15:04:05"),
		run.Params.Model,
		run.Params.Temperature,
		run.Params.DataPath,
		run.Params.N,
		run.Params.Workers,
		run.Params.MaxIterations,
	)

	b.WriteString("## Scores\n\n")
	fmt.Fprintf(&b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Items evaluated | %d |\n", summary.Total)
	fmt.Fprintf(&b, "| Exact match | %d (%.1f%%) |\n", summary.ExactMatches, summary.ExactMatchRate*100)
	fmt.Fprintf(&b, "| Numerical match | %d (%.1f%%) |\n", summary.NumericalMatches, summary.NumericalMatchRate*100)
	fmt.Fprintf(&b, "| Approved | %d |\n", summary.Approved)
	fmt.Fprintf(&b, "| Iteration cap reached | %d |\n", summary.MaxIterations)
	fmt.Fprintf(&b, "| Failed | %d |\n\n", summary.Failed)

	b.WriteString("## Latency\n\n")
	fmt.Fprintf(&b, "| Stat | Seconds |\n|---|---|\n")
	for _, row := range []struct {
		name  string
		value time.Duration
	}{
		{"mean", summary.Latency.Mean},
		{"min", summary.Latency.Min},
		{"p25", summary.Latency.P25},
		{"p50", summary.Latency.P50},
		{"p75", summary.Latency.P75},
		{"p95", summary.Latency.P95},
		{"p99", summary.Latency.P99},
		{"max", summary.Latency.Max},
	} {
		fmt.Fprintf(&b, "| %s | %.3f |\n", row.name, row.value.Seconds())
	}

	return b.String()
}
