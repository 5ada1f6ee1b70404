package engine

import (
	"encoding/json"
	"fmt"
)

// Default screening thresholds.
const (
	// DefaultHighThreshold is the reading level above which cells count as high.
	DefaultHighThreshold = 5.0
	// DefaultOutlierTolerance is the allowed deviation of a table mean from
	// the batch mean of means before the table is flagged as an outlier.
	DefaultOutlierTolerance = 0.5
)

// FindingKind classifies a screening finding.
//
//nolint:recvcheck // UnmarshalJSON requires pointer receiver; String/MarshalJSON use value receivers.
type FindingKind int

const (
	// FindingNegativeValues flags tables containing cells below zero.
	// Negative observations are valid input but anomalous for this domain.
	FindingNegativeValues FindingKind = iota
	// FindingHighReadings flags tables with cells above the high threshold.
	FindingHighReadings
	// FindingMaxRamp flags per-column maxima that rise in an exact linear
	// ramp, a signature of synthetic data.
	FindingMaxRamp
	// FindingZeroMinima flags tables where every column minimum is zero.
	FindingZeroMinima
	// FindingOutlierMean flags tables whose whole-table mean deviates from
	// the batch mean of means by more than the tolerance.
	FindingOutlierMean
)

// String returns the machine-readable label for a FindingKind.
func (k FindingKind) String() string {
	switch k {
	case FindingNegativeValues:
		return "negative_values"
	case FindingHighReadings:
		return "high_readings"
	case FindingMaxRamp:
		return "max_ramp"
	case FindingZeroMinima:
		return "zero_minima"
	case FindingOutlierMean:
		return "outlier_mean"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// MarshalJSON implements json.Marshaler to output FindingKind as string.
func (k FindingKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON implements json.Unmarshaler to parse FindingKind from string.
func (k *FindingKind) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("parsing finding kind: %w", err)
	}
	switch str {
	case "negative_values":
		*k = FindingNegativeValues
	case "high_readings":
		*k = FindingHighReadings
	case "max_ramp":
		*k = FindingMaxRamp
	case "zero_minima":
		*k = FindingZeroMinima
	case "outlier_mean":
		*k = FindingOutlierMean
	default:
		return fmt.Errorf("unknown finding kind: %q", str)
	}
	return nil
}

// Finding is one screening observation about a table. Findings never affect
// summarization results; they annotate them.
type Finding struct {
	Kind   FindingKind `json:"kind"`
	Source string      `json:"source"`
	Count  int         `json:"count,omitempty"`
	Detail string      `json:"detail"`
}

// ScreenOptions holds the thresholds used by screening. Use
// DefaultScreenOptions for the standard values; a zero OutlierTolerance
// flags any deviation at all.
type ScreenOptions struct {
	HighThreshold    float64
	OutlierTolerance float64
}

// DefaultScreenOptions returns the standard screening thresholds.
func DefaultScreenOptions() ScreenOptions {
	return ScreenOptions{
		HighThreshold:    DefaultHighThreshold,
		OutlierTolerance: DefaultOutlierTolerance,
	}
}

// ScreenTable inspects one table and its report for anomalies. rep must be
// the report computed from t.
func ScreenTable(t *Table, rep TableReport, opts ScreenOptions) []Finding {
	var findings []Finding

	negatives := 0
	high := 0
	for _, row := range t.cells {
		for _, v := range row {
			if v < 0 {
				negatives++
			}
			if v > opts.HighThreshold {
				high++
			}
		}
	}
	total := t.Rows() * t.Cols()

	if negatives > 0 {
		findings = append(findings, Finding{
			Kind:   FindingNegativeValues,
			Source: rep.Source,
			Count:  negatives,
			Detail: fmt.Sprintf("%d of %d values are negative", negatives, total),
		})
	}
	if high > 0 {
		findings = append(findings, Finding{
			Kind:   FindingHighReadings,
			Source: rep.Source,
			Count:  high,
			Detail: fmt.Sprintf("%d of %d values exceed %g (%.1f%%)",
				high, total, opts.HighThreshold, 100*float64(high)/float64(total)),
		})
	}
	if step, ok := maximaRampStep(rep.Columns); ok {
		findings = append(findings, Finding{
			Kind:   FindingMaxRamp,
			Source: rep.Source,
			Detail: fmt.Sprintf("column maxima rise in an exact ramp of step %g", step),
		})
	}
	if allMinimaZero(rep.Columns) {
		findings = append(findings, Finding{
			Kind:   FindingZeroMinima,
			Source: rep.Source,
			Detail: "every column minimum is zero",
		})
	}

	return findings
}

// maximaRampStep reports whether the column maxima form an exact linear ramp
// with a non-zero step. At least three columns are required to call the
// pattern a ramp.
func maximaRampStep(columns []ColumnSummary) (float64, bool) {
	if len(columns) < 3 {
		return 0, false
	}
	step := columns[1].Max - columns[0].Max
	if step == 0 {
		return 0, false
	}
	for c := 2; c < len(columns); c++ {
		if columns[c].Max-columns[c-1].Max != step {
			return 0, false
		}
	}
	return step, true
}

// allMinimaZero reports whether every column minimum is exactly zero.
func allMinimaZero(columns []ColumnSummary) bool {
	for i := range columns {
		if columns[i].Min != 0 {
			return false
		}
	}
	return true
}

// ScreenBatch runs ScreenTable over every table and adds batch-level
// findings: tables whose whole-table mean deviates from the batch mean of
// means by more than the tolerance. rep must be the report computed from b.
func ScreenBatch(b Batch, rep BatchReport, opts ScreenOptions) []Finding {
	var findings []Finding

	for i, t := range b {
		if i >= len(rep.Reports) {
			break
		}
		findings = append(findings, ScreenTable(t, rep.Reports[i], opts)...)
	}

	for i := range rep.Reports {
		mean := rep.Reports[i].Table.Mean
		diff := mean - rep.Summary.MeanOfMeans
		if diff < 0 {
			diff = -diff
		}
		if diff > opts.OutlierTolerance {
			findings = append(findings, Finding{
				Kind:   FindingOutlierMean,
				Source: rep.Reports[i].Source,
				Detail: fmt.Sprintf("table mean %g deviates from batch mean %g by %g",
					mean, rep.Summary.MeanOfMeans, diff),
			})
		}
	}

	return findings
}
