package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moleculab/sarscope/internal/domain/compound"
	apperrors "github.com/moleculab/sarscope/pkg/errors"
)

const referenceCSV = `chembl_id,name,target,ic50,mw,logp,hbd,hba,psa
CHEMBL1,cmp-one,EGFR,12.5,349.8,3.2,1,6,68.7
CHEMBL2,cmp-two,EGFR,480,523.1,4.1,2,8,92.4
CHEMBL3,cmp-three,BRAF,2100,612.9,6.8,6,11,131.2
CHEMBL4,cmp-four,BRAF,95,568.4,5.6,3,9,104.1
`

func loadReference(t *testing.T) []compound.Compound {
	t.Helper()
	compounds, _, err := LoadCSV(strings.NewReader(referenceCSV), compound.StrictRuleOfFive)
	require.NoError(t, err)
	require.Len(t, compounds, 4)
	return compounds
}

func TestLoadCSV(t *testing.T) {
	compounds, report, err := LoadCSV(strings.NewReader(referenceCSV), compound.StrictRuleOfFive)
	require.NoError(t, err)

	assert.Equal(t, 4, report.RowsRead)
	assert.Equal(t, 4, report.RowsLoaded)
	assert.Equal(t, 0, report.RowsExcluded)

	wantViolations := []int{0, 1, 4, 2}
	for i, c := range compounds {
		assert.Equal(t, wantViolations[i], c.LipinskiViolations, "row %d", i)
	}
	assert.True(t, compounds[0].DrugLike)
	assert.False(t, compounds[1].DrugLike)
}

func TestLoadCSVColumnOrderFree(t *testing.T) {
	csv := `psa,chembl_id,target,ic50,name,mw,logp,hbd,hba,extra
63.6,CHEMBL25,COX-1,50,aspirin,180.16,1.19,1,4,ignored
`
	compounds, report, err := LoadCSV(strings.NewReader(csv), compound.StrictRuleOfFive)
	require.NoError(t, err)
	require.Len(t, compounds, 1)
	assert.Equal(t, 1, report.RowsLoaded)

	c := compounds[0]
	assert.Equal(t, "CHEMBL25", c.ChemblID)
	assert.InDelta(t, 63.6, c.PSA, 1e-9)
	assert.InDelta(t, 7.301, c.PIC50, 1e-3)
}

func TestLoadCSVMissingColumns(t *testing.T) {
	csv := "chembl_id,name,ic50,mw\nCHEMBL1,x,10,300\n"
	_, _, err := LoadCSV(strings.NewReader(csv), compound.StrictRuleOfFive)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDatasetSchemaInvalid))
	assert.Contains(t, err.Error(), "hba")
	assert.Contains(t, err.Error(), "target")
	assert.Contains(t, err.Error(), "psa")
}

func TestLoadCSVEmptyStream(t *testing.T) {
	_, _, err := LoadCSV(strings.NewReader(""), compound.StrictRuleOfFive)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDatasetSchemaInvalid))
}

func TestLoadCSVExcludesMalformedRows(t *testing.T) {
	csv := `chembl_id,name,target,ic50,mw,logp,hbd,hba,psa
CHEMBL1,good,EGFR,10,300,2,1,4,60
CHEMBL2,bad-number,EGFR,abc,300,2,1,4,60
CHEMBL3,short-row,EGFR,10
,missing-id,EGFR,10,300,2,1,4,60
CHEMBL5,good-too,EGFR,20,310,2.5,1,5,62
`
	compounds, report, err := LoadCSV(strings.NewReader(csv), compound.StrictRuleOfFive)
	require.NoError(t, err)

	require.Len(t, compounds, 2)
	assert.Equal(t, "CHEMBL1", compounds[0].ChemblID)
	assert.Equal(t, "CHEMBL5", compounds[1].ChemblID)

	assert.Equal(t, 5, report.RowsRead)
	assert.Equal(t, 2, report.RowsLoaded)
	assert.Equal(t, 3, report.RowsExcluded)
	assert.Equal(t, 1, report.Exclusions[ExclusionNonNumeric])
	assert.Equal(t, 1, report.Exclusions[ExclusionBadFieldCount])
	assert.Equal(t, 1, report.Exclusions[ExclusionInvalidRecord])
}

func TestLoadCSVZeroIC50Kept(t *testing.T) {
	csv := `chembl_id,name,target,ic50,mw,logp,hbd,hba,psa
CHEMBL1,inactive,EGFR,0,300,2,1,4,60
`
	compounds, report, err := LoadCSV(strings.NewReader(csv), compound.StrictRuleOfFive)
	require.NoError(t, err)
	require.Len(t, compounds, 1)
	assert.Equal(t, 1, report.RowsLoaded)
	assert.False(t, compounds[0].HasPIC50())
}
