package compound

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIC50(t *testing.T) {
	tests := []struct {
		name string
		ic50 float64
		want float64
	}{
		{"one micromolar", 1000, 6.0},
		{"fifty nanomolar", 50, 7.3010299956639813},
		{"one nanomolar", 1, 9.0},
		{"one molar", 1e9, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PIC50(tt.ic50), 1e-9)
		})
	}
}

func TestPIC50Undefined(t *testing.T) {
	assert.True(t, math.IsNaN(PIC50(0)))
	assert.True(t, math.IsNaN(PIC50(-5)))
	assert.True(t, math.IsNaN(PIC50(math.NaN())))
}

func TestPIC50Monotonic(t *testing.T) {
	// More potent (smaller IC50) must always score higher.
	assert.Greater(t, PIC50(10), PIC50(100))
	assert.Greater(t, PIC50(0.5), PIC50(1))
}

func TestRuleOfFiveViolations(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want int
	}{
		{
			name: "fully compliant",
			rec:  Record{MW: 350.4, LogP: 2.1, HBD: 2, HBA: 5},
			want: 0,
		},
		{
			name: "boundary values comply",
			rec:  Record{MW: 500, LogP: 5, HBD: 5, HBA: 10},
			want: 0,
		},
		{
			name: "single violation on weight",
			rec:  Record{MW: 512.7, LogP: 3.8, HBD: 3, HBA: 8},
			want: 1,
		},
		{
			name: "two violations",
			rec:  Record{MW: 550.1, LogP: 6.2, HBD: 4, HBA: 9},
			want: 2,
		},
		{
			name: "all four rules broken",
			rec:  Record{MW: 690.3, LogP: 7.4, HBD: 6, HBA: 12},
			want: 4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StrictRuleOfFive.Violations(&tt.rec))
		})
	}
}

func TestDrugLikeStrict(t *testing.T) {
	clean := Record{MW: 350, LogP: 2, HBD: 2, HBA: 5}
	oneOff := Record{MW: 512, LogP: 2, HBD: 2, HBA: 5}

	assert.True(t, StrictRuleOfFive.DrugLike(&clean))
	assert.False(t, StrictRuleOfFive.DrugLike(&oneOff))

	// A relaxed policy tolerates the single violation.
	relaxed := RuleOfFive{MaxViolations: 1}
	assert.True(t, relaxed.DrugLike(&oneOff))
}

func TestAnnotate(t *testing.T) {
	rec := Record{
		ChemblID: "CHEMBL25",
		Name:     "aspirin",
		Target:   "COX-1",
		IC50:     50,
		MW:       180.16,
		LogP:     1.19,
		HBD:      1,
		HBA:      4,
		PSA:      63.6,
	}

	c := StrictRuleOfFive.Annotate(rec)

	assert.Equal(t, "CHEMBL25", c.ChemblID)
	assert.InDelta(t, 7.301, c.PIC50, 1e-3)
	assert.Equal(t, 0, c.LipinskiViolations)
	assert.True(t, c.DrugLike)
	assert.True(t, c.HasPIC50())
}

func TestAnnotateUndefinedPotency(t *testing.T) {
	c := StrictRuleOfFive.Annotate(Record{ChemblID: "CHEMBL1", IC50: 0, MW: 300})
	assert.False(t, c.HasPIC50())

	dto := c.ToDTO()
	assert.Nil(t, dto.PIC50)
}

func TestAnnotateAllReferenceSet(t *testing.T) {
	records := []Record{
		{ChemblID: "CHEMBL1", Target: "EGFR", IC50: 12.5, MW: 349.8, LogP: 3.2, HBD: 1, HBA: 6, PSA: 68.7},
		{ChemblID: "CHEMBL2", Target: "EGFR", IC50: 480, MW: 523.1, LogP: 4.1, HBD: 2, HBA: 8, PSA: 92.4},
		{ChemblID: "CHEMBL3", Target: "BRAF", IC50: 2100, MW: 612.9, LogP: 6.8, HBD: 6, HBA: 11, PSA: 131.2},
		{ChemblID: "CHEMBL4", Target: "BRAF", IC50: 95, MW: 568.4, LogP: 5.6, HBD: 3, HBA: 9, PSA: 104.1},
	}

	compounds := StrictRuleOfFive.AnnotateAll(records)
	require.Len(t, compounds, 4)

	wantViolations := []int{0, 1, 4, 2}
	wantDrugLike := []bool{true, false, false, false}
	for i, c := range compounds {
		assert.Equal(t, wantViolations[i], c.LipinskiViolations, "compound %s", c.ChemblID)
		assert.Equal(t, wantDrugLike[i], c.DrugLike, "compound %s", c.ChemblID)
	}
}
