package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moleculab/sarscope/internal/domain/compound"
	compoundtypes "github.com/moleculab/sarscope/pkg/types/compound"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func TestFilterEmptySelectsEverything(t *testing.T) {
	compounds := loadReference(t)

	var f Filter
	assert.True(t, f.IsEmpty())

	got := f.Apply(compounds)
	require.Len(t, got, len(compounds))
	for i := range got {
		assert.Equal(t, compounds[i].ChemblID, got[i].ChemblID)
	}
}

func TestFilterByTarget(t *testing.T) {
	compounds := loadReference(t)

	f := Filter{Targets: []string{"BRAF"}}
	got := f.Apply(compounds)

	require.Len(t, got, 2)
	assert.Equal(t, "CHEMBL3", got[0].ChemblID)
	assert.Equal(t, "CHEMBL4", got[1].ChemblID)
}

func TestFilterRangeInclusive(t *testing.T) {
	compounds := loadReference(t)

	// Bounds sit exactly on CHEMBL1's and CHEMBL2's molecular weights.
	f := Filter{Ranges: map[compoundtypes.PropertyField]Range{
		compoundtypes.FieldMW: {Min: fptr(349.8), Max: fptr(523.1)},
	}}
	got := f.Apply(compounds)

	require.Len(t, got, 2)
	assert.Equal(t, "CHEMBL1", got[0].ChemblID)
	assert.Equal(t, "CHEMBL2", got[1].ChemblID)
}

func TestFilterCriteriaAreANDed(t *testing.T) {
	compounds := loadReference(t)

	f := Filter{
		Targets: []string{"EGFR"},
		Ranges: map[compoundtypes.PropertyField]Range{
			compoundtypes.FieldPIC50: {Min: fptr(7.0)},
		},
	}
	got := f.Apply(compounds)

	// Only CHEMBL1 (EGFR, IC50 12.5 nM -> pIC50 ~7.9) passes both.
	require.Len(t, got, 1)
	assert.Equal(t, "CHEMBL1", got[0].ChemblID)
}

func TestFilterUndefinedPIC50NeverMatchesRange(t *testing.T) {
	csv := `chembl_id,name,target,ic50,mw,logp,hbd,hba,psa
CHEMBL1,active,EGFR,10,300,2,1,4,60
CHEMBL2,inactive,EGFR,0,310,2,1,4,60
`
	compounds, _, err := LoadCSV(strings.NewReader(csv), compound.StrictRuleOfFive)
	require.NoError(t, err)

	// Open-ended bounds on either side still exclude the undefined potency.
	for _, f := range []Filter{
		{Ranges: map[compoundtypes.PropertyField]Range{compoundtypes.FieldPIC50: {Min: fptr(0)}}},
		{Ranges: map[compoundtypes.PropertyField]Range{compoundtypes.FieldPIC50: {Max: fptr(100)}}},
	} {
		got := f.Apply(compounds)
		require.Len(t, got, 1)
		assert.Equal(t, "CHEMBL1", got[0].ChemblID)
	}
}

func TestFilterDrugLikeOnly(t *testing.T) {
	compounds := loadReference(t)

	f := Filter{DrugLikeOnly: true}
	got := f.Apply(compounds)

	require.Len(t, got, 1)
	assert.Equal(t, "CHEMBL1", got[0].ChemblID)
}

func TestFilterMaxViolations(t *testing.T) {
	compounds := loadReference(t)

	f := Filter{MaxViolations: iptr(1)}
	got := f.Apply(compounds)

	require.Len(t, got, 2)
	assert.Equal(t, "CHEMBL1", got[0].ChemblID)
	assert.Equal(t, "CHEMBL2", got[1].ChemblID)
}

func TestFilterIdempotent(t *testing.T) {
	compounds := loadReference(t)

	f := Filter{Targets: []string{"EGFR"}, DrugLikeOnly: true}
	once := f.Apply(compounds)
	twice := f.Apply(once)

	assert.Equal(t, once, twice)
}

func TestFilterValidate(t *testing.T) {
	tests := []struct {
		name    string
		filter  Filter
		wantErr bool
	}{
		{"empty filter", Filter{}, false},
		{
			"valid range",
			Filter{Ranges: map[compoundtypes.PropertyField]Range{compoundtypes.FieldLogP: {Min: fptr(0), Max: fptr(5)}}},
			false,
		},
		{
			"unknown field",
			Filter{Ranges: map[compoundtypes.PropertyField]Range{"smiles": {}}},
			true,
		},
		{
			"inverted range",
			Filter{Ranges: map[compoundtypes.PropertyField]Range{compoundtypes.FieldMW: {Min: fptr(500), Max: fptr(100)}}},
			true,
		},
		{"max violations too high", Filter{MaxViolations: iptr(5)}, true},
		{"max violations negative", Filter{MaxViolations: iptr(-1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
