package ingest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moleculab/sarscope/internal/domain/compound"
	domaindataset "github.com/moleculab/sarscope/internal/domain/dataset"
	"github.com/moleculab/sarscope/internal/infrastructure/chembl"
	"github.com/moleculab/sarscope/internal/infrastructure/messaging/kafka"
	"github.com/moleculab/sarscope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/moleculab/sarscope/pkg/errors"
	compoundtypes "github.com/moleculab/sarscope/pkg/types/compound"
)

type fakeSource struct {
	targets    []chembl.Target
	activities map[string][]chembl.Activity
	molecules  map[string]chembl.MoleculeProperties
}

func (f *fakeSource) SearchTargets(_ context.Context, _ string, _ int) ([]chembl.Target, error) {
	return f.targets, nil
}

func (f *fakeSource) FetchActivities(_ context.Context, targetID string) ([]chembl.Activity, error) {
	return f.activities[targetID], nil
}

func (f *fakeSource) FetchMolecules(_ context.Context, ids []string) (map[string]chembl.MoleculeProperties, error) {
	out := make(map[string]chembl.MoleculeProperties)
	for _, id := range ids {
		if p, ok := f.molecules[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type captureIngestor struct {
	name    string
	records []compound.Record
	report  compoundtypes.LoadReport
	source  compoundtypes.DatasetSource
}

func (c *captureIngestor) IngestRecords(_ context.Context, name string, records []compound.Record, report compoundtypes.LoadReport, source compoundtypes.DatasetSource) (*domaindataset.Dataset, error) {
	c.name = name
	c.records = records
	c.report = report
	c.source = source
	policy := compound.StrictRuleOfFive
	return domaindataset.NewDataset(name, source, policy.AnnotateAll(records), report), nil
}

type fakeQueue struct{ jobs []kafka.FetchJob }

func (f *fakeQueue) EnqueueFetchJob(_ context.Context, job kafka.FetchJob) error {
	f.jobs = append(f.jobs, job)
	return nil
}

func defaultSource() *fakeSource {
	return &fakeSource{
		activities: map[string][]chembl.Activity{
			"CHEMBL203": {
				{MoleculeChemblID: "CHEMBL10", TargetChemblID: "CHEMBL203", StandardValue: 10},
				{MoleculeChemblID: "CHEMBL10", TargetChemblID: "CHEMBL203", StandardValue: 30},
				{MoleculeChemblID: "CHEMBL20", TargetChemblID: "CHEMBL203", StandardValue: 500},
			},
			"CHEMBL5145": {
				{MoleculeChemblID: "CHEMBL30", TargetChemblID: "CHEMBL5145", StandardValue: 95},
			},
		},
		molecules: map[string]chembl.MoleculeProperties{
			"CHEMBL10": {PrefName: "alpha", MW: 349.8, LogP: 3.2, HBD: 1, HBA: 6, PSA: 68.7},
			"CHEMBL20": {PrefName: "beta", MW: 523.1, LogP: 4.1, HBD: 2, HBA: 8, PSA: 92.4},
		},
	}
}

func TestFetchAveragesActivitiesPerMolecule(t *testing.T) {
	source := defaultSource()
	ingestor := &captureIngestor{}
	svc := NewService(source, ingestor, nil, nil, logging.NewNopLogger())

	d, err := svc.Fetch(context.Background(), "egfr", []string{"CHEMBL203"})
	require.NoError(t, err)
	assert.Equal(t, 2, d.Size())

	require.Len(t, ingestor.records, 2)
	assert.Equal(t, "CHEMBL10", ingestor.records[0].ChemblID)
	assert.InDelta(t, 20, ingestor.records[0].IC50, 1e-9) // mean of 10 and 30
	assert.Equal(t, "alpha", ingestor.records[0].Name)
	assert.Equal(t, compoundtypes.SourceChEMBL, ingestor.source)

	assert.Equal(t, 3, ingestor.report.RowsRead)
	assert.Equal(t, 2, ingestor.report.RowsLoaded)
}

func TestFetchMergesTargets(t *testing.T) {
	source := defaultSource()
	source.molecules["CHEMBL30"] = chembl.MoleculeProperties{PrefName: "gamma", MW: 400, LogP: 2, HBD: 1, HBA: 5, PSA: 70}
	ingestor := &captureIngestor{}
	svc := NewService(source, ingestor, nil, nil, logging.NewNopLogger())

	d, err := svc.Fetch(context.Background(), "multi", []string{"CHEMBL203", "CHEMBL5145"})
	require.NoError(t, err)
	assert.Equal(t, 3, d.Size())
	assert.Equal(t, []string{"CHEMBL203", "CHEMBL5145"}, d.Targets())
}

func TestFetchExcludesMoleculesWithoutProperties(t *testing.T) {
	source := defaultSource()
	ingestor := &captureIngestor{}
	svc := NewService(source, ingestor, nil, nil, logging.NewNopLogger())

	_, err := svc.Fetch(context.Background(), "multi", []string{"CHEMBL203", "CHEMBL5145"})
	require.NoError(t, err)

	// CHEMBL30 has no molecule properties in the default source.
	assert.Equal(t, 1, ingestor.report.Exclusions["missing_properties"])
}

func TestFetchNoTargets(t *testing.T) {
	svc := NewService(defaultSource(), &captureIngestor{}, nil, nil, logging.NewNopLogger())
	_, err := svc.Fetch(context.Background(), "x", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSourceTargetEmpty))
}

func TestFetchNoUsableRecords(t *testing.T) {
	source := &fakeSource{activities: map[string][]chembl.Activity{}}
	svc := NewService(source, &captureIngestor{}, nil, nil, logging.NewNopLogger())

	_, err := svc.Fetch(context.Background(), "x", []string{"CHEMBL999"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDatasetEmpty))
}

func TestEnqueue(t *testing.T) {
	queue := &fakeQueue{}
	svc := NewService(defaultSource(), &captureIngestor{}, queue, nil, logging.NewNopLogger())

	jobID, err := svc.Enqueue(context.Background(), "egfr", []string{"CHEMBL203"})
	require.NoError(t, err)
	assert.NotEmpty(t, jobID)

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, jobID, queue.jobs[0].JobID)
	assert.Equal(t, "egfr", queue.jobs[0].DatasetName)
}

func TestEnqueueWithoutQueue(t *testing.T) {
	svc := NewService(defaultSource(), &captureIngestor{}, nil, nil, logging.NewNopLogger())
	_, err := svc.Enqueue(context.Background(), "egfr", []string{"CHEMBL203"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotImplemented))
}

func TestHandleJob(t *testing.T) {
	ingestor := &captureIngestor{}
	svc := NewService(defaultSource(), ingestor, nil, nil, logging.NewNopLogger())

	payload, err := json.Marshal(kafka.FetchJob{
		JobID:       "job-1",
		DatasetName: "egfr",
		Targets:     []string{"CHEMBL203"},
	})
	require.NoError(t, err)

	err = svc.HandleJob(context.Background(), kafka.EventEnvelope{
		EventID:   "evt-1",
		EventType: "fetch.requested",
		Payload:   payload,
	})
	require.NoError(t, err)
	assert.Equal(t, "egfr", ingestor.name)
}

func TestHandleJobBadPayload(t *testing.T) {
	svc := NewService(defaultSource(), &captureIngestor{}, nil, nil, logging.NewNopLogger())
	err := svc.HandleJob(context.Background(), kafka.EventEnvelope{Payload: []byte("{")})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSerialization))
}
