package dataset

import (
	"math"
	"sort"

	"github.com/moleculab/sarscope/internal/domain/compound"
	compoundtypes "github.com/moleculab/sarscope/pkg/types/compound"
)

// ─────────────────────────────────────────────────────────────────────────────
// Descriptive statistics
// ─────────────────────────────────────────────────────────────────────────────

// FieldSummary holds descriptive statistics for one analysis field.  Count is
// the number of defined (non-NaN) observations; every other statistic is
// computed over those observations only.  Std is the sample standard
// deviation (n-1 denominator) and is NaN when fewer than two observations
// exist; Mean, Median, Min and Max are NaN when Count is zero.
type FieldSummary struct {
	Field  compoundtypes.PropertyField
	Count  int
	Mean   float64
	Median float64
	Std    float64
	Min    float64
	Max    float64
}

// Describe computes a FieldSummary for every analysis field, in canonical
// field order.
func Describe(compounds []compound.Compound) []FieldSummary {
	out := make([]FieldSummary, 0, len(compoundtypes.AnalysisFields))
	for _, field := range compoundtypes.AnalysisFields {
		out = append(out, describeField(compounds, field))
	}
	return out
}

// DescribeField computes descriptive statistics for a single field.
func DescribeField(compounds []compound.Compound, field compoundtypes.PropertyField) FieldSummary {
	return describeField(compounds, field)
}

func describeField(compounds []compound.Compound, field compoundtypes.PropertyField) FieldSummary {
	vals := fieldValues(compounds, field)
	s := FieldSummary{Field: field, Count: len(vals)}
	if len(vals) == 0 {
		s.Mean, s.Median, s.Std, s.Min, s.Max = nan, nan, nan, nan, nan
		return s
	}

	s.Mean = mean(vals)
	s.Median = median(vals)
	s.Std = sampleStd(vals, s.Mean)
	s.Min, s.Max = minMax(vals)
	return s
}

// ─────────────────────────────────────────────────────────────────────────────
// Correlation
// ─────────────────────────────────────────────────────────────────────────────

// CorrelationMatrix is a symmetric Pearson correlation matrix over the
// analysis fields.  Values[i][j] correlates Fields[i] with Fields[j]; entries
// are NaN where fewer than two complete observation pairs exist or a field
// has zero variance over the complete pairs.
type CorrelationMatrix struct {
	Fields []compoundtypes.PropertyField
	Values [][]float64
}

// Correlate computes pairwise-complete Pearson correlations: for each field
// pair, only compounds where both values are defined contribute.
func Correlate(compounds []compound.Compound) CorrelationMatrix {
	fields := compoundtypes.AnalysisFields
	cols := make([][]float64, len(fields))
	for i, f := range fields {
		cols[i] = rawColumn(compounds, f)
	}

	values := make([][]float64, len(fields))
	for i := range fields {
		values[i] = make([]float64, len(fields))
		for j := range fields {
			if j < i {
				values[i][j] = values[j][i]
				continue
			}
			values[i][j] = pearson(cols[i], cols[j])
		}
	}

	return CorrelationMatrix{Fields: fields, Values: values}
}

// pearson computes the correlation over indices where both columns are
// defined.  The columns must have equal length.
func pearson(x, y []float64) float64 {
	var xs, ys []float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	n := len(xs)
	if n < 2 {
		return nan
	}

	mx, my := mean(xs), mean(ys)
	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return nan
	}
	return sxy / math.Sqrt(sxx*syy)
}

// ─────────────────────────────────────────────────────────────────────────────
// Overview
// ─────────────────────────────────────────────────────────────────────────────

// Overview is the headline summary of a compound set.  MeanPIC50 and
// MaxPIC50 are NaN when no compound has a defined potency, and
// TopCompoundID is empty in that case.
type Overview struct {
	CompoundCount    int
	TargetCount      int
	DrugLikeCount    int
	DrugLikeFraction float64
	MeanPIC50        float64
	MaxPIC50         float64
	TopCompoundID    string
}

// Summarize computes the overview for a compound set.
func Summarize(compounds []compound.Compound) Overview {
	o := Overview{
		CompoundCount: len(compounds),
		MeanPIC50:     nan,
		MaxPIC50:      nan,
	}
	if len(compounds) == 0 {
		return o
	}

	targets := make(map[string]struct{})
	var potencies []float64
	for i := range compounds {
		c := &compounds[i]
		targets[c.Target] = struct{}{}
		if c.DrugLike {
			o.DrugLikeCount++
		}
		if c.HasPIC50() {
			potencies = append(potencies, c.PIC50)
			if math.IsNaN(o.MaxPIC50) || c.PIC50 > o.MaxPIC50 {
				o.MaxPIC50 = c.PIC50
				o.TopCompoundID = c.ChemblID
			}
		}
	}

	o.TargetCount = len(targets)
	o.DrugLikeFraction = float64(o.DrugLikeCount) / float64(len(compounds))
	if len(potencies) > 0 {
		o.MeanPIC50 = mean(potencies)
	}
	return o
}

// ─────────────────────────────────────────────────────────────────────────────
// DTO conversion
// ─────────────────────────────────────────────────────────────────────────────

// finitePtr returns a pointer to v, or nil when v is undefined.  JSON has no
// NaN, so undefined statistics travel as null.
func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ToDTO converts the summary for transport.
func (s FieldSummary) ToDTO() compoundtypes.FieldSummaryDTO {
	return compoundtypes.FieldSummaryDTO{
		Field:  s.Field,
		Count:  s.Count,
		Mean:   finitePtr(s.Mean),
		Median: finitePtr(s.Median),
		Std:    finitePtr(s.Std),
		Min:    finitePtr(s.Min),
		Max:    finitePtr(s.Max),
	}
}

// ToDTO converts the matrix for transport.
func (m CorrelationMatrix) ToDTO() compoundtypes.CorrelationDTO {
	values := make([][]*float64, len(m.Values))
	for i, row := range m.Values {
		values[i] = make([]*float64, len(row))
		for j, v := range row {
			values[i][j] = finitePtr(v)
		}
	}
	return compoundtypes.CorrelationDTO{Fields: m.Fields, Values: values}
}

// ToDTO converts the overview for transport.
func (o Overview) ToDTO() compoundtypes.OverviewDTO {
	return compoundtypes.OverviewDTO{
		CompoundCount:    o.CompoundCount,
		TargetCount:      o.TargetCount,
		DrugLikeCount:    o.DrugLikeCount,
		DrugLikeFraction: o.DrugLikeFraction,
		MeanPIC50:        finitePtr(o.MeanPIC50),
		MaxPIC50:         finitePtr(o.MaxPIC50),
		TopCompoundID:    o.TopCompoundID,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Numeric helpers
// ─────────────────────────────────────────────────────────────────────────────

var nan = math.NaN()

// fieldValues extracts the defined values of a field, dropping NaN.
func fieldValues(compounds []compound.Compound, field compoundtypes.PropertyField) []float64 {
	var out []float64
	for i := range compounds {
		v, err := compounds[i].Property(field)
		if err != nil || math.IsNaN(v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// rawColumn extracts a field column aligned with the compound slice, keeping
// NaN placeholders so pairwise completion can align columns.
func rawColumn(compounds []compound.Compound, field compoundtypes.PropertyField) []float64 {
	out := make([]float64, len(compounds))
	for i := range compounds {
		v, err := compounds[i].Property(field)
		if err != nil {
			v = nan
		}
		out[i] = v
	}
	return out
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func median(vals []float64) float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func sampleStd(vals []float64, mean float64) float64 {
	if len(vals) < 2 {
		return nan
	}
	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)-1))
}

func minMax(vals []float64) (float64, float64) {
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
