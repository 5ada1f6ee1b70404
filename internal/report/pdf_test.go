package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trialmetrics/trialstat/internal/engine"
)

func TestWritePDF(t *testing.T) {
	t.Run("ProducesDocument", func(t *testing.T) {
		_, rep := sampleBatch(t)

		var buf bytes.Buffer
		err := WritePDF(&buf, rep, nil, PDFOptions{
			GeneratedAt: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
			Version:     "1.0.0",
		})
		require.NoError(t, err)

		out := buf.Bytes()
		require.Greater(t, len(out), 4)
		assert.Equal(t, "%PDF", string(out[:4]))
	})

	t.Run("WithFindingsAndPlots", func(t *testing.T) {
		batch, rep := sampleBatch(t)
		findings := engine.ScreenBatch(batch, rep, engine.DefaultScreenOptions())
		require.NotEmpty(t, findings)

		batchPNG, err := PlotBatch(rep, PlotOptions{})
		require.NoError(t, err)
		tablePNG, err := PlotTable(rep.Reports[0], PlotOptions{})
		require.NoError(t, err)

		var buf bytes.Buffer
		err = WritePDF(&buf, rep, findings, PDFOptions{
			Title: "Weekly QA Review",
			Plots: map[string][]byte{
				BatchPlotKey:                       batchPNG,
				TablePlotKey(rep.Reports[0].Source): tablePNG,
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "%PDF", string(buf.Bytes()[:4]))
	})

	t.Run("DetailedReports", func(t *testing.T) {
		a, err := engine.New("trial-a.csv", [][]float64{{1, 2, 3}, {4, 5, 6}})
		require.NoError(t, err)
		tr, err := engine.SummarizeTableDetailed(a)
		require.NoError(t, err)
		rep := engine.BatchReport{
			Reports: []engine.TableReport{tr},
			Summary: engine.BatchSummary{Tables: 1, MeanOfMeans: 3.5, MaxOfMeans: 3.5, MinOfMeans: 3.5},
		}

		var buf bytes.Buffer
		require.NoError(t, WritePDF(&buf, rep, nil, PDFOptions{}))
		assert.Equal(t, "%PDF", string(buf.Bytes()[:4]))
	})
}
