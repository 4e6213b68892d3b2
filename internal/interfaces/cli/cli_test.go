package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `chembl_id,name,target,ic50,mw,logp,hbd,hba,psa
CHEMBL1,alpha,EGFR,12.5,349.8,2.1,1,4,75.2
CHEMBL2,beta,EGFR,250.0,523.1,4.8,2,7,110.5
CHEMBL3,gamma,JAK2,0,612.9,6.2,6,12,155.0
CHEMBL4,delta,JAK2,3400.0,568.4,5.5,3,9,130.7
`

// runCommand executes the root command with the given args and returns the
// captured stdout and stderr.
func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeSampleCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "compounds.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
	return path
}

func TestAnalyzeJSON(t *testing.T) {
	path := writeSampleCSV(t)

	out, _, err := runCommand(t, "analyze", path, "--output", "json")
	require.NoError(t, err)

	var report analyzeReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 4, report.RowsLoaded)
	assert.Equal(t, 4, report.CompoundCount)
	assert.Equal(t, 2, report.TargetCount)
	assert.Equal(t, 1, report.DrugLikeCount)
	assert.Equal(t, "CHEMBL1", report.TopCompoundID)

	var mw *summaryRow
	for i := range report.Summary {
		if report.Summary[i].Field == "mw" {
			mw = &report.Summary[i]
		}
	}
	require.NotNil(t, mw)
	require.NotNil(t, mw.Mean)
	assert.InDelta(t, 513.55, *mw.Mean, 1e-9)
}

func TestAnalyzeTargetFilter(t *testing.T) {
	path := writeSampleCSV(t)

	out, _, err := runCommand(t, "analyze", path, "--target", "EGFR", "--output", "json")
	require.NoError(t, err)

	var report analyzeReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.CompoundCount)
	assert.Equal(t, 1, report.TargetCount)
}

func TestAnalyzeMaxViolations(t *testing.T) {
	path := writeSampleCSV(t)

	// CHEMBL2 has one violation, so relaxing the policy admits it.
	out, _, err := runCommand(t, "analyze", path, "--max-violations", "1", "--drug-like", "--output", "json")
	require.NoError(t, err)

	var report analyzeReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.CompoundCount)
}

func TestAnalyzeExportDir(t *testing.T) {
	path := writeSampleCSV(t)
	exportDir := filepath.Join(t.TempDir(), "reports")

	_, _, err := runCommand(t, "analyze", path, "--export-dir", exportDir)
	require.NoError(t, err)

	summary, err := os.ReadFile(filepath.Join(exportDir, "summary_statistics.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(summary), "field,count,mean,median,std,min,max\n"))

	correlation, err := os.ReadFile(filepath.Join(exportDir, "correlation_matrix.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(correlation), "pic50")
}

func TestAnalyzeMissingFile(t *testing.T) {
	_, _, err := runCommand(t, "analyze", filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestAnalyzeBadSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("chembl_id,name\nCHEMBL1,alpha\n"), 0o644))

	_, _, err := runCommand(t, "analyze", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestNeighborsCommand(t *testing.T) {
	path := writeSampleCSV(t)

	out, _, err := runCommand(t, "neighbors", path, "CHEMBL1", "--k", "2", "--output", "json")
	require.NoError(t, err)

	var list neighborList
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Equal(t, "CHEMBL1", list.Query)
	assert.Len(t, list.Neighbors, 2)
	for _, n := range list.Neighbors {
		assert.NotEqual(t, "CHEMBL1", n.ChemblID)
	}
}

func TestRejectsUnknownOutputFormat(t *testing.T) {
	path := writeSampleCSV(t)

	_, _, err := runCommand(t, "analyze", path, "--output", "yaml")
	assert.Error(t, err)
}

func TestTargetsCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/target.json", r.URL.Path)
		fmt.Fprint(w, `{"targets":[{"target_chembl_id":"CHEMBL203","pref_name":"EGFR","organism":"Homo sapiens","target_type":"SINGLE PROTEIN"}]}`)
	}))
	defer srv.Close()
	t.Setenv("SARSCOPE_CHEMBL_BASE_URL", srv.URL)

	out, _, err := runCommand(t, "targets", "EGFR", "--output", "json")
	require.NoError(t, err)

	var list targetList
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list.Targets, 1)
	assert.Equal(t, "CHEMBL203", list.Targets[0].ChemblID)
}

func TestDatasetsListCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/datasets", r.URL.Path)
		require.Equal(t, "1", r.URL.Query().Get("page"))
		fmt.Fprint(w, `{"success":true,"data":[
			{"id":"5f7b9c1a-0000-0000-0000-000000000001","created_at":"2026-08-01T10:00:00Z","updated_at":"2026-08-01T10:00:00Z",
			 "name":"egfr-panel","source":"upload","compound_count":4,"target_count":2,
			 "load_report":{"rows_read":4,"rows_loaded":4,"rows_excluded":0}}],
			"pagination":{"page":1,"page_size":20,"total":1},"timestamp":"2026-08-01T10:00:01Z"}`)
	}))
	defer srv.Close()

	out, _, err := runCommand(t, "datasets", "list", "--server", srv.URL, "--output", "json")
	require.NoError(t, err)

	var list datasetList
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Datasets, 1)
	assert.Equal(t, "egfr-panel", list.Datasets[0].Name)
	assert.Equal(t, 4, list.Datasets[0].CompoundCount)
}

func TestDatasetsDeleteCommand(t *testing.T) {
	const id = "5f7b9c1a-0000-0000-0000-000000000001"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/api/v1/datasets/"+id, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	out, _, err := runCommand(t, "datasets", "delete", id, "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted dataset "+id)
}

func TestDatasetsListServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"success":false,"error":{"code":"DS_001","message":"dataset not found"},"timestamp":"2026-08-01T10:00:01Z"}`)
	}))
	defer srv.Close()

	_, _, err := runCommand(t, "datasets", "list", "--server", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset not found")
}

func TestFetchCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/activity.json":
			fmt.Fprint(w, `{"activities":[
				{"molecule_chembl_id":"CHEMBL10","standard_value":"20.0"},
				{"molecule_chembl_id":"CHEMBL11","standard_value":"150.0"}],
				"page_meta":{"next":""}}`)
		case "/molecule.json":
			fmt.Fprint(w, `{"molecules":[
				{"molecule_chembl_id":"CHEMBL10","pref_name":"cpd-a","molecule_properties":
					{"mw_freebase":"349.8","alogp":"2.1","hbd":"1","hba":"4","psa":"75.2"}},
				{"molecule_chembl_id":"CHEMBL11","pref_name":"cpd-b","molecule_properties":
					{"mw_freebase":"523.1","alogp":"4.8","hbd":"2","hba":"7","psa":"110.5"}}]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()
	t.Setenv("SARSCOPE_CHEMBL_BASE_URL", srv.URL)

	outPath := filepath.Join(t.TempDir(), "fetched.csv")
	_, errOut, err := runCommand(t, "fetch", "--target", "CHEMBL203", "--out", outPath)
	require.NoError(t, err)
	assert.Contains(t, errOut, "2 compounds")

	// The fetched file must round-trip through analyze.
	out, _, err := runCommand(t, "analyze", outPath, "--output", "json")
	require.NoError(t, err)

	var report analyzeReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.CompoundCount)
}

func TestFormatTable(t *testing.T) {
	out := formatTable(
		[]string{"id", "value"},
		[][]string{{"CHEMBL1", "7.9031"}, {"CHEMBL2", "6.6021"}},
	)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "id       value ", lines[0])
	assert.Equal(t, "-------  ------", lines[1])
}
