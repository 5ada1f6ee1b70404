package engine

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultPrecision is the number of decimal places for statistics in
// human-readable output.
const DefaultPrecision = 2

// tabwriterPadding is the minimum padding between columns in rendered tables.
const tabwriterPadding = 2

// colWidthSource is the maximum display width of the source column.
const colWidthSource = 40

// truncateMinLen is the minimum truncation length below which no ellipsis is added.
const truncateMinLen = 3

// RenderOptions controls report rendering. The zero value renders with
// DefaultPrecision and a generated run identity.
type RenderOptions struct {
	// Precision is the number of decimal places for statistics in table
	// output; values <= 0 select DefaultPrecision. Machine formats (JSON,
	// NDJSON, CSV) always carry full precision.
	Precision int
	// RunID identifies the invocation in the JSON metadata envelope. Empty
	// means a fresh ULID.
	RunID string
	// GeneratedAt timestamps the JSON metadata envelope. Zero means now.
	GeneratedAt time.Time
	// Version is the tool version recorded in the JSON metadata envelope.
	Version string
}

// precision returns the effective decimal places.
func (o RenderOptions) precision() int {
	if o.Precision <= 0 {
		return DefaultPrecision
	}
	return o.Precision
}

// formatStat formats a statistic with fixed decimal places.
func formatStat(v float64, precision int) string {
	return strconv.FormatFloat(v, 'f', precision, 64)
}

// formatStatFull formats a statistic at full float64 precision for machine
// output.
func formatStatFull(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// truncateSource shortens a source identifier to fit the source column.
func truncateSource(source string, maxLen int) string {
	if len(source) <= maxLen {
		return source
	}
	if maxLen <= truncateMinLen {
		return source[:maxLen]
	}
	return source[:maxLen-3] + "..."
}

// RenderBatchAsTable writes a formatted ASCII table of the batch report:
// one row per table, a summary footer over the whole-table means, and a
// findings section when findings is non-empty. When the reports carry
// detailed statistics, the extended columns are included.
func RenderBatchAsTable(w io.Writer, rep BatchReport, findings []Finding, opts RenderOptions) error {
	prec := opts.precision()
	detailed := len(rep.Reports) > 0 && rep.Reports[0].Detailed != nil

	tw := tabwriter.NewWriter(w, 0, 0, tabwriterPadding, ' ', 0)

	header := "SOURCE\tROWS\tCOLS\tMEAN\tMAX\tMIN"
	separator := "------\t----\t----\t----\t---\t---"
	if detailed {
		header += "\tSTD\tMEDIAN\tQ1\tQ3"
		separator += "\t---\t------\t--\t--"
	}
	if _, err := fmt.Fprintf(tw, "%s\n", header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := fmt.Fprintf(tw, "%s\n", separator); err != nil {
		return fmt.Errorf("writing separator: %w", err)
	}

	for i := range rep.Reports {
		r := &rep.Reports[i]
		line := fmt.Sprintf("%s\t%d\t%d\t%s\t%s\t%s",
			truncateSource(r.Source, colWidthSource), r.Rows, r.Cols,
			formatStat(r.Table.Mean, prec),
			formatStat(r.Table.Max, prec),
			formatStat(r.Table.Min, prec),
		)
		if detailed && r.Detailed != nil {
			line += fmt.Sprintf("\t%s\t%s\t%s\t%s",
				formatStat(r.Detailed.Std, prec),
				formatStat(r.Detailed.Median, prec),
				formatStat(r.Detailed.Q1, prec),
				formatStat(r.Detailed.Q3, prec),
			)
		}
		if _, err := fmt.Fprintf(tw, "%s\n", line); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}

	if _, err := fmt.Fprintf(tw, "\t\t\t\t\t\n"); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	if _, err := fmt.Fprintf(tw, "SUMMARY\t%d tables\t\t%s\t%s\t%s\n",
		rep.Summary.Tables,
		formatStat(rep.Summary.MeanOfMeans, prec),
		formatStat(rep.Summary.MaxOfMeans, prec),
		formatStat(rep.Summary.MinOfMeans, prec),
	); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	if len(findings) > 0 {
		if err := renderFindings(w, findings); err != nil {
			return err
		}
	}
	return nil
}

// renderFindings writes the findings section below the report table.
func renderFindings(w io.Writer, findings []Finding) error {
	if _, err := fmt.Fprintf(w, "\nFINDINGS\n--------\n"); err != nil {
		return fmt.Errorf("writing findings header: %w", err)
	}
	tw := tabwriter.NewWriter(w, 0, 0, tabwriterPadding, ' ', 0)
	for _, f := range findings {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\n",
			truncateSource(f.Source, colWidthSource), f.Kind, f.Detail); err != nil {
			return fmt.Errorf("writing finding: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing findings: %w", err)
	}
	return nil
}

// RenderTableDetail writes the per-column breakdown of a single table
// report, with a whole-table footer row.
func RenderTableDetail(w io.Writer, rep TableReport, opts RenderOptions) error {
	prec := opts.precision()

	if _, err := fmt.Fprintf(w, "%s (%d rows x %d cols)\n", rep.Source, rep.Rows, rep.Cols); err != nil {
		return fmt.Errorf("writing detail header: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 0, tabwriterPadding, ' ', 0)
	if _, err := fmt.Fprintf(tw, "COLUMN\tMEAN\tMAX\tMIN\n"); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, col := range rep.Columns {
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n",
			col.Column,
			formatStat(col.Mean, prec),
			formatStat(col.Max, prec),
			formatStat(col.Min, prec),
		); err != nil {
			return fmt.Errorf("writing column row: %w", err)
		}
	}
	if _, err := fmt.Fprintf(tw, "TABLE\t%s\t%s\t%s\n",
		formatStat(rep.Table.Mean, prec),
		formatStat(rep.Table.Max, prec),
		formatStat(rep.Table.Min, prec),
	); err != nil {
		return fmt.Errorf("writing table row: %w", err)
	}
	return tw.Flush()
}

// ReportMetadata identifies the invocation that produced a JSON report
// document. Run identity lives here, in the sink layer, so that the
// aggregation results themselves stay deterministic.
type ReportMetadata struct {
	RunID       string    `json:"runId"`
	GeneratedAt time.Time `json:"generatedAt"`
	Tool        string    `json:"tool"`
	Version     string    `json:"version,omitempty"`
}

// BatchJSONOutput is the top-level JSON document for a batch report.
type BatchJSONOutput struct {
	Metadata ReportMetadata `json:"metadata"`
	Reports  []TableReport  `json:"reports"`
	Summary  BatchSummary   `json:"summary"`
	Findings []Finding      `json:"findings"`
}

// RenderBatchAsJSON renders the batch report as a structured JSON document
// with a metadata envelope, the per-table reports, the cross-table summary,
// and any findings.
func RenderBatchAsJSON(w io.Writer, rep BatchReport, findings []Finding, opts RenderOptions) error {
	runID := opts.RunID
	if runID == "" {
		runID = ulid.Make().String()
	}
	generatedAt := opts.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}

	// Keep arrays non-null for consistent JSON output.
	reports := rep.Reports
	if reports == nil {
		reports = []TableReport{}
	}
	if findings == nil {
		findings = []Finding{}
	}

	output := BatchJSONOutput{
		Metadata: ReportMetadata{
			RunID:       runID,
			GeneratedAt: generatedAt,
			Tool:        "trialstat",
			Version:     opts.Version,
		},
		Reports:  reports,
		Summary:  rep.Summary,
		Findings: findings,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// RenderBatchAsNDJSON renders each table report as a separate JSON line
// with no metadata wrapper or summary.
func RenderBatchAsNDJSON(w io.Writer, rep BatchReport) error {
	for i := range rep.Reports {
		data, marshalErr := json.Marshal(&rep.Reports[i])
		if marshalErr != nil {
			return fmt.Errorf("marshaling report: %w", marshalErr)
		}
		if _, writeErr := fmt.Fprintf(w, "%s\n", data); writeErr != nil {
			return fmt.Errorf("writing NDJSON line: %w", writeErr)
		}
	}
	return nil
}

// csvHeader is the record header for CSV output; detailed columns are
// appended when the reports carry them.
var csvHeader = []string{"source", "rows", "cols", "mean", "max", "min"}

// csvDetailedHeader extends csvHeader in detailed mode.
var csvDetailedHeader = []string{"std", "median", "q1", "q3"}

// RenderBatchAsCSV renders one CSV record per table report at full float64
// precision. The cross-table summary is not included; CSV output is meant
// for further tabular processing.
func RenderBatchAsCSV(w io.Writer, rep BatchReport) error {
	detailed := len(rep.Reports) > 0 && rep.Reports[0].Detailed != nil

	cw := csv.NewWriter(w)

	header := csvHeader
	if detailed {
		header = append(append([]string(nil), csvHeader...), csvDetailedHeader...)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for i := range rep.Reports {
		r := &rep.Reports[i]
		record := []string{
			r.Source,
			strconv.Itoa(r.Rows),
			strconv.Itoa(r.Cols),
			formatStatFull(r.Table.Mean),
			formatStatFull(r.Table.Max),
			formatStatFull(r.Table.Min),
		}
		if detailed && r.Detailed != nil {
			record = append(record,
				formatStatFull(r.Detailed.Std),
				formatStatFull(r.Detailed.Median),
				formatStatFull(r.Detailed.Q1),
				formatStatFull(r.Detailed.Q3),
			)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing CSV record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}
