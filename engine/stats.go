package engine

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
)

// Stats accumulates per-rule rewrite counters across one optimizer run,
// grounded on the teacher's PerformanceStatistics: a single struct
// updated in place during the run, with export methods for the formats
// the ambient config layer supports (json, csv, html).
type Stats struct {
	// Applied counts how many times each rule (by its index in the
	// compiled rule set) fired.
	Applied []uint64

	// TotalRewrites is the sum of Applied.
	TotalRewrites uint64
}

func newStats(ruleCount int) Stats {
	return Stats{Applied: make([]uint64, ruleCount)}
}

func (s *Stats) recordApply(ruleIndex int) {
	s.Applied[ruleIndex]++
	s.TotalRewrites++
}

// String renders a short human-readable summary, teacher style
// (PerformanceStatistics.String()).
func (s *Stats) String() string {
	fired := 0
	for _, c := range s.Applied {
		if c > 0 {
			fired++
		}
	}
	return fmt.Sprintf("rewrites=%d rules-fired=%d/%d", s.TotalRewrites, fired, len(s.Applied))
}

type ruleStatRow struct {
	Rule  int    `json:"rule"`
	Count uint64 `json:"count"`
}

func (s *Stats) rows() []ruleStatRow {
	rows := make([]ruleStatRow, len(s.Applied))
	for i, c := range s.Applied {
		rows[i] = ruleStatRow{Rule: i, Count: c}
	}
	return rows
}

// ExportJSON writes the per-rule rewrite counts as a JSON object.
func (s *Stats) ExportJSON(w io.Writer) error {
	payload := struct {
		TotalRewrites uint64        `json:"total_rewrites"`
		Rules         []ruleStatRow `json:"rules"`
	}{
		TotalRewrites: s.TotalRewrites,
		Rules:         s.rows(),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// ExportCSV writes one row per rule: index, fire count.
func (s *Stats) ExportCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"rule", "count"}); err != nil {
		return err
	}
	for _, row := range s.rows() {
		if err := cw.Write([]string{fmt.Sprintf("%d", row.Rule), fmt.Sprintf("%d", row.Count)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

const statsHTMLTemplate = `<!DOCTYPE html>
<html><head><title>zopt rewrite statistics</title></head><body>
<h1>zopt rewrite statistics</h1>
<p>Total rewrites: {{.TotalRewrites}}</p>
<table border="1" cellpadding="4">
<tr><th>Rule</th><th>Count</th></tr>
{{range .Rules}}<tr><td>{{.Rule}}</td><td>{{.Count}}</td></tr>
{{end}}
</table>
</body></html>
`

// ExportHTML writes a minimal HTML report, teacher style
// (PerformanceStatistics.ExportHTML).
func (s *Stats) ExportHTML(w io.Writer) error {
	tmpl, err := template.New("stats").Parse(statsHTMLTemplate)
	if err != nil {
		return err
	}
	payload := struct {
		TotalRewrites uint64
		Rules         []ruleStatRow
	}{
		TotalRewrites: s.TotalRewrites,
		Rules:         s.rows(),
	}
	return tmpl.Execute(w, payload)
}
