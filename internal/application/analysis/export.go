package analysis

import (
	"bytes"
	"encoding/csv"
	"math"
	"strconv"

	domaindataset "github.com/moleculab/sarscope/internal/domain/dataset"
)

// formatCell renders a statistic for CSV export; undefined values become
// empty cells.
func formatCell(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// RenderSummaryCSV serializes per-field descriptive statistics.
func RenderSummaryCSV(summaries []domaindataset.FieldSummary) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	_ = w.Write([]string{"field", "count", "mean", "median", "std", "min", "max"})
	for _, s := range summaries {
		_ = w.Write([]string{
			string(s.Field),
			strconv.Itoa(s.Count),
			formatCell(s.Mean),
			formatCell(s.Median),
			formatCell(s.Std),
			formatCell(s.Min),
			formatCell(s.Max),
		})
	}
	w.Flush()
	return buf.Bytes()
}

// RenderCorrelationCSV serializes the correlation matrix with field names on
// both axes.
func RenderCorrelationCSV(m domaindataset.CorrelationMatrix) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, 0, len(m.Fields)+1)
	header = append(header, "")
	for _, f := range m.Fields {
		header = append(header, string(f))
	}
	_ = w.Write(header)

	for i, f := range m.Fields {
		row := make([]string, 0, len(m.Fields)+1)
		row = append(row, string(f))
		for j := range m.Fields {
			row = append(row, formatCell(m.Values[i][j]))
		}
		_ = w.Write(row)
	}
	w.Flush()
	return buf.Bytes()
}
