package report

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/trialmetrics/trialstat/internal/engine"
)

// PDF layout in millimeters (A4 portrait).
const (
	pdfMargin     = 12.7
	pdfLineHeight = 6
	// pdfImageAspect is height over width, matching the plot canvas.
	pdfImageAspect = 0.5
)

// BatchPlotKey is the PDFOptions.Plots key for the batch overview plot.
const BatchPlotKey = "batch"

// TablePlotKey returns the PDFOptions.Plots key for one table's plot.
func TablePlotKey(source string) string {
	return "table:" + source
}

// PDFOptions controls PDF document composition.
type PDFOptions struct {
	// Title is the document heading. Empty selects a default.
	Title string
	// GeneratedAt timestamps the document. Zero means now.
	GeneratedAt time.Time
	// Version is the tool version printed under the title.
	Version string
	// Precision is the number of decimal places for statistics; values
	// <= 0 select engine.DefaultPrecision.
	Precision int
	// Plots maps plot keys (BatchPlotKey, TablePlotKey) to PNG bytes to
	// embed. Missing keys simply omit the plot.
	Plots map[string][]byte
}

func (o PDFOptions) precision() int {
	if o.Precision <= 0 {
		return engine.DefaultPrecision
	}
	return o.Precision
}

// pdfDoc wraps gofpdf with the document's text styles and layout state.
type pdfDoc struct {
	pdf          *gofpdf.Fpdf
	contentWidth float64
	pageHeight   float64
}

func newPDFDoc() *pdfDoc {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AddPage()

	pageWidth, pageHeight := pdf.GetPageSize()
	return &pdfDoc{
		pdf:          pdf,
		contentWidth: pageWidth - 2*pdfMargin,
		pageHeight:   pageHeight,
	}
}

func (d *pdfDoc) styleH1() {
	d.pdf.SetFont("Arial", "B", 16)
	d.pdf.SetTextColor(0, 0, 0)
}

func (d *pdfDoc) styleH2() {
	d.pdf.SetFont("Arial", "B", 13)
	d.pdf.SetTextColor(0, 0, 0)
}

func (d *pdfDoc) styleNormal() {
	d.pdf.SetFont("Arial", "", 10)
	d.pdf.SetTextColor(0, 0, 0)
}

func (d *pdfDoc) styleTableHeader() {
	d.pdf.SetFont("Arial", "B", 9)
	d.pdf.SetFillColor(200, 200, 200)
	d.pdf.SetTextColor(0, 0, 0)
}

func (d *pdfDoc) styleTableCell() {
	d.pdf.SetFont("Arial", "", 9)
	d.pdf.SetTextColor(50, 50, 50)
}

// heading writes a section heading followed by a small gap.
func (d *pdfDoc) heading(text string, h1 bool) {
	if h1 {
		d.styleH1()
	} else {
		d.styleH2()
	}
	align := "L"
	if h1 {
		align = "C"
	}
	d.pdf.CellFormat(d.contentWidth, pdfLineHeight+2, text, "", 1, align, false, 0, "")
	d.pdf.Ln(1)
}

// paragraph writes flowing body text.
func (d *pdfDoc) paragraph(text string) {
	d.styleNormal()
	d.pdf.MultiCell(d.contentWidth, pdfLineHeight-1, text, "", "L", false)
	d.pdf.Ln(1)
}

// table writes a bordered table with a filled header row. Column widths
// are fractions of the content width.
func (d *pdfDoc) table(headers []string, widthsRel []float64, rows [][]string) {
	widths := make([]float64, len(widthsRel))
	for i, rel := range widthsRel {
		widths[i] = rel * d.contentWidth
	}

	d.styleTableHeader()
	for i, header := range headers {
		d.pdf.CellFormat(widths[i], pdfLineHeight, header, "1", 0, "C", true, 0, "")
	}
	d.pdf.Ln(-1)

	d.styleTableCell()
	for _, row := range rows {
		for i, cell := range row {
			d.pdf.CellFormat(widths[i], pdfLineHeight, cell, "1", 0, "C", false, 0, "")
		}
		d.pdf.Ln(-1)
	}
	d.pdf.Ln(2)
}

// image embeds a registered PNG at the current position, breaking the
// page first when it would not fit.
func (d *pdfDoc) image(name string, png []byte) {
	width := d.contentWidth * 0.9
	height := width * pdfImageAspect

	if d.pdf.GetY()+height > d.pageHeight-pdfMargin {
		d.pdf.AddPage()
	}

	d.pdf.RegisterImageReader(name, "PNG", bytes.NewReader(png))
	x := pdfMargin + (d.contentWidth-width)/2
	d.pdf.Image(name, x, d.pdf.GetY(), width, height, true, "PNG", 0, "")
	d.pdf.Ln(3)
}

// WritePDF composes the batch report as a PDF document: title and batch
// summary, one section per table with its column statistics, embedded
// plots for the keys present in opts.Plots, and a findings appendix.
func WritePDF(w io.Writer, rep engine.BatchReport, findings []engine.Finding, opts PDFOptions) error {
	prec := opts.precision()
	title := opts.Title
	if title == "" {
		title = "Observation Summary Report"
	}
	generatedAt := opts.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}

	d := newPDFDoc()

	d.heading(title, true)
	toolLine := fmt.Sprintf("Generated %s by trialstat", generatedAt.Format(time.RFC3339))
	if opts.Version != "" {
		toolLine += " " + opts.Version
	}
	d.paragraph(toolLine)
	d.pdf.Ln(2)

	d.heading("Batch Summary", false)
	d.table(
		[]string{"Tables", "Mean of means", "Max of means", "Min of means"},
		[]float64{0.25, 0.25, 0.25, 0.25},
		[][]string{{
			strconv.Itoa(rep.Summary.Tables),
			fstat(rep.Summary.MeanOfMeans, prec),
			fstat(rep.Summary.MaxOfMeans, prec),
			fstat(rep.Summary.MinOfMeans, prec),
		}},
	)

	if png, ok := opts.Plots[BatchPlotKey]; ok && len(png) > 0 {
		d.image(BatchPlotKey, png)
	}

	for i := range rep.Reports {
		r := &rep.Reports[i]
		d.pdf.AddPage()
		d.heading(fmt.Sprintf("%s (%d rows x %d cols)", r.Source, r.Rows, r.Cols), false)

		rows := make([][]string, 0, len(r.Columns)+1)
		for _, col := range r.Columns {
			rows = append(rows, []string{
				strconv.Itoa(col.Column),
				fstat(col.Mean, prec),
				fstat(col.Max, prec),
				fstat(col.Min, prec),
			})
		}
		rows = append(rows, []string{
			"table",
			fstat(r.Table.Mean, prec),
			fstat(r.Table.Max, prec),
			fstat(r.Table.Min, prec),
		})
		d.table(
			[]string{"Column", "Mean", "Max", "Min"},
			[]float64{0.25, 0.25, 0.25, 0.25},
			rows,
		)

		if r.Detailed != nil {
			d.paragraph(fmt.Sprintf("Std %s, median %s, Q1 %s, Q3 %s",
				fstat(r.Detailed.Std, prec),
				fstat(r.Detailed.Median, prec),
				fstat(r.Detailed.Q1, prec),
				fstat(r.Detailed.Q3, prec),
			))
		}

		key := TablePlotKey(r.Source)
		if png, ok := opts.Plots[key]; ok && len(png) > 0 {
			d.image(key, png)
		}
	}

	if len(findings) > 0 {
		d.pdf.AddPage()
		d.heading("Findings", false)
		rows := make([][]string, len(findings))
		for i, f := range findings {
			rows[i] = []string{f.Source, f.Kind.String(), f.Detail}
		}
		d.table(
			[]string{"Source", "Kind", "Detail"},
			[]float64{0.25, 0.2, 0.55},
			rows,
		)
	}

	// gofpdf is error-sticky; Output reports the first failure.
	if err := d.pdf.Output(w); err != nil {
		return fmt.Errorf("writing PDF: %w", err)
	}
	return nil
}

// fstat formats a statistic with fixed decimal places.
func fstat(v float64, precision int) string {
	return strconv.FormatFloat(v, 'f', precision, 64)
}
