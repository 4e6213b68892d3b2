package chembl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moleculab/sarscope/internal/config"
	"github.com/moleculab/sarscope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/moleculab/sarscope/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.ChEMBLConfig{
		BaseURL:         srv.URL,
		Timeout:         5 * time.Second,
		PageSize:        2,
		MaxRetries:      2,
		RetryBackoff:    time.Millisecond,
		UserAgent:       "sarscope-test",
		MaxActivityRows: 100,
	}
	return NewClient(cfg, logging.NewNopLogger())
}

func TestSearchTargets(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/target.json", r.URL.Path)
		assert.Equal(t, "EGFR", r.URL.Query().Get("pref_name__icontains"))
		w.Write([]byte(`{"targets":[
			{"target_chembl_id":"CHEMBL203","pref_name":"Epidermal growth factor receptor","organism":"Homo sapiens","target_type":"SINGLE PROTEIN"}
		]}`))
	}))

	targets, err := c.SearchTargets(context.Background(), "EGFR", 5)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "CHEMBL203", targets[0].ChemblID)
	assert.Equal(t, "Homo sapiens", targets[0].Organism)
}

func TestSearchTargetsEmptyQuery(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	_, err := c.SearchTargets(context.Background(), "  ", 5)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSourceTargetEmpty))
}

func TestFetchActivitiesPaginates(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/activity.json", r.URL.Path)
		assert.Equal(t, "IC50", r.URL.Query().Get("standard_type"))
		switch calls.Add(1) {
		case 1:
			w.Write([]byte(`{"activities":[
				{"molecule_chembl_id":"CHEMBL1","standard_value":"12.5"},
				{"molecule_chembl_id":"CHEMBL2","standard_value":"480"}
			],"page_meta":{"next":"/activity.json?offset=2"}}`))
		default:
			w.Write([]byte(`{"activities":[
				{"molecule_chembl_id":"CHEMBL3","standard_value":"not-a-number"},
				{"molecule_chembl_id":"CHEMBL4","standard_value":"95"}
			],"page_meta":{"next":""}}`))
		}
	}))

	activities, err := c.FetchActivities(context.Background(), "CHEMBL203")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	// The unparseable standard value is skipped.
	require.Len(t, activities, 3)
	assert.Equal(t, "CHEMBL1", activities[0].MoleculeChemblID)
	assert.InDelta(t, 95, activities[2].StandardValue, 1e-9)
}

func TestFetchMolecules(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/molecule.json", r.URL.Path)
		w.Write([]byte(`{"molecules":[
			{"molecule_chembl_id":"CHEMBL1","pref_name":"gefitinib","molecule_properties":
				{"mw_freebase":"446.9","alogp":"4.1","hbd":"1","hba":"7","psa":"68.7"}},
			{"molecule_chembl_id":"CHEMBL2","pref_name":"broken","molecule_properties":
				{"mw_freebase":"","alogp":"2.0","hbd":"1","hba":"4","psa":"60"}},
			{"molecule_chembl_id":"CHEMBL3","pref_name":"no-props","molecule_properties":null}
		]}`))
	}))

	mols, err := c.FetchMolecules(context.Background(), []string{"CHEMBL1", "CHEMBL2"})
	require.NoError(t, err)

	// Only the fully populated molecule survives.
	require.Len(t, mols, 1)
	m := mols["CHEMBL1"]
	assert.Equal(t, "gefitinib", m.PrefName)
	assert.InDelta(t, 446.9, m.MW, 1e-9)
	assert.InDelta(t, 68.7, m.PSA, 1e-9)
}

func TestClientRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"targets":[]}`))
	}))

	_, err := c.SearchTargets(context.Background(), "EGFR", 5)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientRateLimitSurfaces(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.SearchTargets(context.Background(), "EGFR", 5)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSourceRateLimited))
}
