// Package ingest orchestrates building datasets from the ChEMBL web
// services, synchronously or through the worker queue.
package ingest

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/google/uuid"

	"github.com/moleculab/sarscope/internal/domain/compound"
	domaindataset "github.com/moleculab/sarscope/internal/domain/dataset"
	"github.com/moleculab/sarscope/internal/infrastructure/chembl"
	"github.com/moleculab/sarscope/internal/infrastructure/messaging/kafka"
	"github.com/moleculab/sarscope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/moleculab/sarscope/pkg/errors"
	compoundtypes "github.com/moleculab/sarscope/pkg/types/compound"
)

// Exclusion reason keys specific to the ChEMBL path.
const (
	exclusionNoProperties = "missing_properties"
)

// SourceClient is the ChEMBL access port.
type SourceClient interface {
	SearchTargets(ctx context.Context, query string, limit int) ([]chembl.Target, error)
	FetchActivities(ctx context.Context, targetChemblID string) ([]chembl.Activity, error)
	FetchMolecules(ctx context.Context, chemblIDs []string) (map[string]chembl.MoleculeProperties, error)
}

// DatasetIngestor persists a fetched record set as a dataset.
type DatasetIngestor interface {
	IngestRecords(ctx context.Context, name string, records []compound.Record, report compoundtypes.LoadReport, source compoundtypes.DatasetSource) (*domaindataset.Dataset, error)
}

// JobQueue enqueues asynchronous fetch jobs.
type JobQueue interface {
	EnqueueFetchJob(ctx context.Context, job kafka.FetchJob) error
}

// FetchMetrics records fetch job outcomes.
type FetchMetrics interface {
	RecordFetchJob(outcome string)
}

// Service coordinates ChEMBL fetches.
type Service struct {
	source   SourceClient
	datasets DatasetIngestor
	queue    JobQueue
	metrics  FetchMetrics
	logger   logging.Logger
}

// NewService wires the ingest service.  queue and metrics may be nil.
func NewService(source SourceClient, datasets DatasetIngestor, queue JobQueue, metrics FetchMetrics, logger logging.Logger) *Service {
	return &Service{
		source:   source,
		datasets: datasets,
		queue:    queue,
		metrics:  metrics,
		logger:   logger.Named("ingest-service"),
	}
}

// SearchTargets resolves a free-text query to candidate protein targets.
func (s *Service) SearchTargets(ctx context.Context, query string, limit int) ([]chembl.Target, error) {
	return s.source.SearchTargets(ctx, query, limit)
}

// Enqueue submits an asynchronous fetch job and returns its identifier.
func (s *Service) Enqueue(ctx context.Context, datasetName string, targetIDs []string) (string, error) {
	if s.queue == nil {
		return "", apperrors.New(apperrors.ErrCodeNotImplemented, "asynchronous ingestion is not configured")
	}
	if len(targetIDs) == 0 {
		return "", apperrors.New(apperrors.ErrCodeSourceTargetEmpty, "at least one target is required")
	}

	job := kafka.FetchJob{
		JobID:       uuid.NewString(),
		DatasetName: datasetName,
		Targets:     targetIDs,
	}
	if err := s.queue.EnqueueFetchJob(ctx, job); err != nil {
		return "", err
	}

	s.logger.Info("fetch job enqueued",
		logging.String("job_id", job.JobID),
		logging.String("dataset", datasetName),
		logging.Any("targets", targetIDs))
	return job.JobID, nil
}

// Fetch builds a dataset from ChEMBL synchronously: every target's IC50
// activities are averaged per molecule, joined with structural properties
// and merged into one record set.
func (s *Service) Fetch(ctx context.Context, datasetName string, targetIDs []string) (*domaindataset.Dataset, error) {
	if len(targetIDs) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeSourceTargetEmpty, "at least one target is required")
	}

	records, report, err := s.buildRecords(ctx, targetIDs)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordFetchJob("failed")
		}
		return nil, err
	}
	if len(records) == 0 {
		if s.metrics != nil {
			s.metrics.RecordFetchJob("empty")
		}
		return nil, apperrors.New(apperrors.ErrCodeDatasetEmpty, "chembl fetch produced no usable records")
	}

	d, err := s.datasets.IngestRecords(ctx, datasetName, records, report, compoundtypes.SourceChEMBL)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordFetchJob("failed")
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordFetchJob("succeeded")
	}
	return d, nil
}

// HandleJob decodes and executes one queued fetch job.  Used by the worker's
// consumer loop.
func (s *Service) HandleJob(ctx context.Context, envelope kafka.EventEnvelope) error {
	var job kafka.FetchJob
	if err := json.Unmarshal(envelope.Payload, &job); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "decoding fetch job")
	}

	s.logger.Info("fetch job started",
		logging.String("job_id", job.JobID),
		logging.String("dataset", job.DatasetName))

	d, err := s.Fetch(ctx, job.DatasetName, job.Targets)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatasetIngestFailed, "executing fetch job").
			WithDetail("job_id: " + job.JobID)
	}

	s.logger.Info("fetch job finished",
		logging.String("job_id", job.JobID),
		logging.String("dataset_id", string(d.ID)),
		logging.Int("compounds", d.Size()))
	return nil
}

// buildRecords assembles the merged record set across targets.
func (s *Service) buildRecords(ctx context.Context, targetIDs []string) ([]compound.Record, compoundtypes.LoadReport, error) {
	var report compoundtypes.LoadReport

	type key struct{ molecule, target string }
	sums := make(map[key]struct {
		total float64
		n     int
	})

	for _, targetID := range targetIDs {
		activities, err := s.source.FetchActivities(ctx, targetID)
		if err != nil {
			return nil, report, err
		}
		report.RowsRead += len(activities)

		for _, a := range activities {
			k := key{a.MoleculeChemblID, a.TargetChemblID}
			entry := sums[k]
			entry.total += a.StandardValue
			entry.n++
			sums[k] = entry
		}
	}

	moleculeIDs := make(map[string]struct{}, len(sums))
	for k := range sums {
		moleculeIDs[k.molecule] = struct{}{}
	}
	ids := make([]string, 0, len(moleculeIDs))
	for id := range moleculeIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	props, err := s.source.FetchMolecules(ctx, ids)
	if err != nil {
		return nil, report, err
	}

	exclude := func(reason string) {
		report.RowsExcluded++
		if report.Exclusions == nil {
			report.Exclusions = make(map[string]int)
		}
		report.Exclusions[reason]++
	}

	keys := make([]key, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a].molecule != keys[b].molecule {
			return keys[a].molecule < keys[b].molecule
		}
		return keys[a].target < keys[b].target
	})

	records := make([]compound.Record, 0, len(keys))
	for _, k := range keys {
		p, ok := props[k.molecule]
		if !ok {
			exclude(exclusionNoProperties)
			continue
		}
		entry := sums[k]
		records = append(records, compound.Record{
			ChemblID: k.molecule,
			Name:     p.PrefName,
			Target:   k.target,
			IC50:     entry.total / float64(entry.n),
			MW:       p.MW,
			LogP:     p.LogP,
			HBD:      p.HBD,
			HBA:      p.HBA,
			PSA:      p.PSA,
		})
		report.RowsLoaded++
	}

	return records, report, nil
}
