// Package report renders a preview of one invocation's decisions without
// enqueuing anything. It is the reporting collaborator at the engine
// boundary: given the decision list it produces JSON, CSV, or HTML.
package report

import (
	"encoding/csv"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/rshade/commitpilot/internal/engine"
)

// Supported output formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatHTML = "html"
)

// Row is one category's outcome.
type Row struct {
	Category         string  `json:"category"`
	Enabled          bool    `json:"enabled"`
	CurrentCoverage  float64 `json:"current_coverage"`
	TargetCoverage   float64 `json:"target_coverage"`
	StepPercent      float64 `json:"step_percent"`
	HourlyCommitment float64 `json:"hourly_commitment"`
	Term             string  `json:"term,omitempty"`
	PaymentOption    string  `json:"payment_option,omitempty"`
	Strategy         string  `json:"strategy_name,omitempty"`
	SkipReason       string  `json:"skip_reason,omitempty"`
}

// Report is the rendered preview of one invocation.
type Report struct {
	RunID             string    `json:"run_id"`
	GeneratedAt       time.Time `json:"generated_at"`
	TargetStrategy    string    `json:"target_strategy_type"`
	SplitStrategy     string    `json:"split_strategy_type"`
	Rows              []Row     `json:"rows"`
	PlannedCount      int       `json:"planned_count"`
	PlannedCommitment float64   `json:"planned_hourly_commitment"`
}

// Build folds the decision list into a report, preserving category order.
func Build(runID string, cfg *engine.Config, decisions []engine.Decision, generatedAt time.Time) *Report {
	r := &Report{
		RunID:          runID,
		GeneratedAt:    generatedAt,
		TargetStrategy: cfg.TargetStrategyType,
		SplitStrategy:  cfg.SplitStrategyType,
		Rows:           make([]Row, 0, len(decisions)),
	}
	for _, d := range decisions {
		row := Row{
			Category:        string(d.Category),
			Enabled:         d.Enabled,
			CurrentCoverage: d.CurrentCoverage,
			TargetCoverage:  d.TargetCoverage,
			StepPercent:     d.StepPercent,
			SkipReason:      d.SkipReason,
		}
		if d.Plan != nil {
			row.HourlyCommitment = d.Plan.HourlyCommitment
			row.Term = d.Plan.Term
			row.PaymentOption = d.Plan.PaymentOption
			row.Strategy = d.Plan.Strategy
			r.PlannedCount++
			r.PlannedCommitment += d.Plan.HourlyCommitment
		}
		r.Rows = append(r.Rows, row)
	}
	return r
}

// Render writes the report in the requested format.
func (r *Report) Render(w io.Writer, format string) error {
	switch format {
	case FormatJSON:
		return r.WriteJSON(w)
	case FormatCSV:
		return r.WriteCSV(w)
	case FormatHTML:
		return r.WriteHTML(w)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteJSON renders the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

var csvHeader = []string{
	"category", "enabled", "current_coverage", "target_coverage",
	"step_percent", "hourly_commitment", "term", "payment_option",
	"strategy_name", "skip_reason",
}

// WriteCSV renders one row per category.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range r.Rows {
		record := []string{
			row.Category,
			strconv.FormatBool(row.Enabled),
			formatAmount(row.CurrentCoverage),
			formatAmount(row.TargetCoverage),
			formatAmount(row.StepPercent),
			formatAmount(row.HourlyCommitment),
			row.Term,
			row.PaymentOption,
			row.Strategy,
			row.SkipReason,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head><title>commitpilot run {{.RunID}}</title></head>
<body>
<h1>Purchase preview</h1>
<p>Run {{.RunID}} generated {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}},
strategy {{.TargetStrategy}}/{{.SplitStrategy}},
{{.PlannedCount}} plan(s) totaling ${{printf "%.4f" .PlannedCommitment}}/h.</p>
<table border="1" cellpadding="4">
<tr>
<th>Category</th><th>Enabled</th><th>Coverage</th><th>Target</th>
<th>Step %</th><th>Commitment $/h</th><th>Term</th><th>Payment</th><th>Skip reason</th>
</tr>
{{range .Rows}}<tr>
<td>{{.Category}}</td>
<td>{{.Enabled}}</td>
<td>{{printf "%.2f" .CurrentCoverage}}%</td>
<td>{{printf "%.2f" .TargetCoverage}}%</td>
<td>{{printf "%.2f" .StepPercent}}</td>
<td>{{printf "%.4f" .HourlyCommitment}}</td>
<td>{{.Term}}</td>
<td>{{.PaymentOption}}</td>
<td>{{.SkipReason}}</td>
</tr>
{{end}}</table>
</body>
</html>
`))

// WriteHTML renders a minimal standalone page.
func (r *Report) WriteHTML(w io.Writer) error {
	return htmlTemplate.Execute(w, r)
}
