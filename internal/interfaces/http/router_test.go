package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analysisapp "github.com/moleculab/sarscope/internal/application/analysis"
	datasetapp "github.com/moleculab/sarscope/internal/application/dataset"
	"github.com/moleculab/sarscope/internal/config"
	"github.com/moleculab/sarscope/internal/domain/compound"
	apihttp "github.com/moleculab/sarscope/internal/interfaces/http"
	"github.com/moleculab/sarscope/internal/interfaces/http/handlers"
	"github.com/moleculab/sarscope/internal/testutil"
	apperrors "github.com/moleculab/sarscope/pkg/errors"
	"github.com/moleculab/sarscope/pkg/types/common"
	compoundtypes "github.com/moleculab/sarscope/pkg/types/compound"
)

const sampleCSV = `chembl_id,name,target,ic50,mw,logp,hbd,hba,psa
CHEMBL1,alpha,EGFR,12.5,349.8,2.1,1,4,75.2
CHEMBL2,beta,EGFR,250.0,523.1,4.8,2,7,110.5
CHEMBL3,gamma,JAK2,0,612.9,6.2,6,12,155.0
CHEMBL4,delta,JAK2,3400.0,568.4,5.5,3,9,130.7
`

type testAPI struct {
	router *gin.Engine
	repo   *testutil.MemoryDatasetRepo
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	logger := testutil.NewMockLogger()
	repo := testutil.NewMemoryDatasetRepo()

	datasetSvc := datasetapp.NewService(repo, nil, nil, nil, nil, compound.StrictRuleOfFive, 0, logger)
	analysisSvc := analysisapp.NewService(repo, nil, nil, nil, 10, 0, logger)

	cfg := config.ServerConfig{Mode: gin.TestMode}
	router := apihttp.NewRouter(cfg, apihttp.RouterDeps{
		Datasets: handlers.NewDatasetHandler(datasetSvc, 8<<20),
		Analysis: handlers.NewAnalysisHandler(analysisSvc),
		Health:   handlers.NewHealthHandler(),
		Logger:   logger,
	})
	return &testAPI{router: router, repo: repo}
}

func (a *testAPI) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) upload(t *testing.T, name, csv string) common.ID {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("name", name))
	part, err := w.CreateFormFile("file", "compounds.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	rec := a.do(t, http.MethodPost, "/api/v1/datasets", &buf, w.FormDataContentType())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp common.APIResponse[compoundtypes.DatasetDTO]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	return resp.Data.ID
}

func TestUploadDataset(t *testing.T) {
	api := newTestAPI(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "screen_42.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	rec := api.do(t, http.MethodPost, "/api/v1/datasets", &buf, w.FormDataContentType())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp common.APIResponse[compoundtypes.DatasetDTO]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "screen_42.csv", resp.Data.Name, "name falls back to the uploaded file name")
	assert.Equal(t, 4, resp.Data.CompoundCount)
	assert.Equal(t, 4, resp.Data.LoadReport.RowsLoaded)

	d, err := api.repo.FindByID(context.Background(), resp.Data.ID)
	require.NoError(t, err)
	assert.Len(t, d.Compounds, 4)
}

func TestUploadMissingFile(t *testing.T) {
	api := newTestAPI(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("name", "broken"))
	require.NoError(t, w.Close())

	rec := api.do(t, http.MethodPost, "/api/v1/datasets", &buf, w.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp common.APIResponse[any]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(apperrors.ErrCodeBadRequest), resp.Error.Code)
}

func TestUploadBadSchema(t *testing.T) {
	api := newTestAPI(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "bad.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("chembl_id,name\nCHEMBL1,alpha\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	rec := api.do(t, http.MethodPost, "/api/v1/datasets", &buf, w.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp common.APIResponse[any]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(apperrors.ErrCodeDatasetSchemaInvalid), resp.Error.Code)
}

func TestGetDatasetNotFound(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/datasets/"+string(common.NewID()), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDatasetBadID(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/datasets/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListDatasets(t *testing.T) {
	api := newTestAPI(t)
	api.upload(t, "first", sampleCSV)
	api.upload(t, "second", sampleCSV)

	rec := api.do(t, http.MethodGet, "/api/v1/datasets?page=1&page_size=1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp common.APIResponse[[]compoundtypes.DatasetDTO]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, int64(2), resp.Pagination.Total)
	assert.Len(t, resp.Data, 1)
}

func TestRecordsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	id := api.upload(t, "screen", sampleCSV)

	rec := api.do(t, http.MethodGet, "/api/v1/datasets/"+string(id)+"/records?page=1&page_size=3", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp common.APIResponse[[]compoundtypes.CompoundDTO]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, int64(4), resp.Pagination.Total)
	assert.Len(t, resp.Data, 3)
}

func TestRecordsFilterParams(t *testing.T) {
	api := newTestAPI(t)
	id := api.upload(t, "screen", sampleCSV)

	rec := api.do(t, http.MethodGet,
		"/api/v1/datasets/"+string(id)+"/records?target=EGFR&min_mw=400", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp common.APIResponse[[]compoundtypes.CompoundDTO]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, int64(1), resp.Pagination.Total)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "CHEMBL2", resp.Data[0].ChemblID)
}

func TestRecordsBadFilterParam(t *testing.T) {
	api := newTestAPI(t)
	id := api.upload(t, "screen", sampleCSV)

	rec := api.do(t, http.MethodGet,
		"/api/v1/datasets/"+string(id)+"/records?min_mw=heavy", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryDataset(t *testing.T) {
	api := newTestAPI(t)
	id := api.upload(t, "screen", sampleCSV)

	body := bytes.NewBufferString(`{"targets":["EGFR"],"ranges":{"mw":{"min":400}}}`)
	rec := api.do(t, http.MethodPost, "/api/v1/datasets/"+string(id)+"/query", body, "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp common.APIResponse[compoundtypes.QueryResultDTO]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Records, 1)
	assert.Equal(t, "CHEMBL2", resp.Data.Records[0].ChemblID)
	assert.Equal(t, 1, resp.Data.Overview.CompoundCount)
	require.NotEmpty(t, resp.Data.Summary)
	assert.Equal(t, 1, resp.Data.Summary[0].Count)
}

func TestQueryInvalidFilter(t *testing.T) {
	api := newTestAPI(t)
	id := api.upload(t, "screen", sampleCSV)

	body := bytes.NewBufferString(`{"ranges":{"color":{"min":1}}}`)
	rec := api.do(t, http.MethodPost, "/api/v1/datasets/"+string(id)+"/query", body, "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp common.APIResponse[any]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(apperrors.ErrCodeDatasetFilterInvalid), resp.Error.Code)
}

func TestOverviewEndpoint(t *testing.T) {
	api := newTestAPI(t)
	id := api.upload(t, "screen", sampleCSV)

	rec := api.do(t, http.MethodGet, "/api/v1/datasets/"+string(id)+"/overview", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp common.APIResponse[compoundtypes.OverviewDTO]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Data.CompoundCount)
	assert.Equal(t, 2, resp.Data.TargetCount)
	assert.Equal(t, 1, resp.Data.DrugLikeCount)
	assert.Equal(t, "CHEMBL1", resp.Data.TopCompoundID)
	require.NotNil(t, resp.Data.MaxPIC50)
	assert.InDelta(t, 7.903, *resp.Data.MaxPIC50, 1e-3)
}

func TestSummaryEndpoint(t *testing.T) {
	api := newTestAPI(t)
	id := api.upload(t, "screen", sampleCSV)

	rec := api.do(t, http.MethodGet, "/api/v1/datasets/"+string(id)+"/summary", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp common.APIResponse[[]compoundtypes.FieldSummaryDTO]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, len(compoundtypes.AnalysisFields))

	byField := map[compoundtypes.PropertyField]compoundtypes.FieldSummaryDTO{}
	for _, s := range resp.Data {
		byField[s.Field] = s
	}
	mw := byField[compoundtypes.FieldMW]
	require.NotNil(t, mw.Mean)
	assert.InDelta(t, 513.55, *mw.Mean, 1e-9)

	// CHEMBL3 has IC50 = 0, so only three pIC50 values exist.
	pic50 := byField[compoundtypes.FieldPIC50]
	assert.Equal(t, 3, pic50.Count)
}

func TestNeighborsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	id := api.upload(t, "screen", sampleCSV)

	rec := api.do(t, http.MethodGet,
		fmt.Sprintf("/api/v1/datasets/%s/neighbors?chembl_id=CHEMBL1&k=2", id), nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp common.APIResponse[[]json.RawMessage]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
}

func TestNeighborsRequiresChemblID(t *testing.T) {
	api := newTestAPI(t)
	id := api.upload(t, "screen", sampleCSV)

	rec := api.do(t, http.MethodGet, "/api/v1/datasets/"+string(id)+"/neighbors", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteDataset(t *testing.T) {
	api := newTestAPI(t)
	id := api.upload(t, "screen", sampleCSV)

	rec := api.do(t, http.MethodDelete, "/api/v1/datasets/"+string(id), nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/datasets/"+string(id), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/readyz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyReportsFailure(t *testing.T) {
	logger := testutil.NewMockLogger()
	repo := testutil.NewMemoryDatasetRepo()
	datasetSvc := datasetapp.NewService(repo, nil, nil, nil, nil, compound.StrictRuleOfFive, 0, logger)
	analysisSvc := analysisapp.NewService(repo, nil, nil, nil, 10, 0, logger)

	health := handlers.NewHealthHandler(handlers.CheckFunc{
		CheckName: "postgres",
		Fn:        func(context.Context) error { return fmt.Errorf("connection refused") },
	})
	router := apihttp.NewRouter(config.ServerConfig{Mode: gin.TestMode}, apihttp.RouterDeps{
		Datasets: handlers.NewDatasetHandler(datasetSvc, 8<<20),
		Analysis: handlers.NewAnalysisHandler(analysisSvc),
		Health:   health,
		Logger:   logger,
	})

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestIDEchoed(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}
