// Package dataset implements the dataset lifecycle use cases: ingestion from
// CSV, listing, retrieval, filtering and deletion.
package dataset

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/moleculab/sarscope/internal/domain/compound"
	domaindataset "github.com/moleculab/sarscope/internal/domain/dataset"
	"github.com/moleculab/sarscope/internal/infrastructure/database/redis"
	"github.com/moleculab/sarscope/internal/infrastructure/messaging/kafka"
	"github.com/moleculab/sarscope/internal/infrastructure/monitoring/logging"
	"github.com/moleculab/sarscope/pkg/errors"
	"github.com/moleculab/sarscope/pkg/types/common"
	compoundtypes "github.com/moleculab/sarscope/pkg/types/compound"
)

// RawStore archives original dataset files in object storage.
type RawStore interface {
	ArchiveRawCSV(ctx context.Context, datasetID string, data []byte) (string, error)
	DeleteDatasetObjects(ctx context.Context, datasetID string) error
}

// EventPublisher notifies other components of dataset lifecycle changes.
type EventPublisher interface {
	PublishDatasetEvent(ctx context.Context, eventType string, event kafka.DatasetEvent) error
}

// Cache stores query results and invalidates cached analyses when a dataset
// changes.
type Cache interface {
	GetOrLoad(ctx context.Context, key string, dst any, load func(ctx context.Context) (any, error), opts ...redis.SetOption) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// IngestMetrics records ingestion counters.
type IngestMetrics interface {
	RecordDatasetIngested(source string, compounds, excluded int)
}

// Service orchestrates dataset use cases.
type Service struct {
	repo    domaindataset.Repository
	store   RawStore
	cache   Cache
	events  EventPublisher
	metrics IngestMetrics
	logger  logging.Logger

	// mu guards the settings the config reload path may replace.
	mu       sync.RWMutex
	policy   compound.RuleOfFive
	cacheTTL time.Duration
}

// NewService wires the dataset service.  store, cache, events and metrics
// may be nil in reduced deployments (CLI, tests); the corresponding side
// effects are skipped.  cacheTTL 0 falls back to the cache's default entry
// lifetime.
func NewService(
	repo domaindataset.Repository,
	store RawStore,
	cache Cache,
	events EventPublisher,
	metrics IngestMetrics,
	policy compound.RuleOfFive,
	cacheTTL time.Duration,
	logger logging.Logger,
) *Service {
	return &Service{
		repo:     repo,
		store:    store,
		cache:    cache,
		events:   events,
		metrics:  metrics,
		policy:   policy,
		cacheTTL: cacheTTL,
		logger:   logger.Named("dataset-service"),
	}
}

// UpdateSettings replaces the drug-likeness policy and the query cache TTL.
// Invoked from the configuration reload path; datasets already ingested keep
// their annotations.
func (s *Service) UpdateSettings(policy compound.RuleOfFive, cacheTTL time.Duration) {
	s.mu.Lock()
	s.policy = policy
	s.cacheTTL = cacheTTL
	s.mu.Unlock()
}

func (s *Service) settings() (compound.RuleOfFive, time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy, s.cacheTTL
}

// IngestCSV parses raw CSV bytes into a new dataset, archives the original
// file, persists the dataset and announces it.
func (s *Service) IngestCSV(ctx context.Context, name string, data []byte, source compoundtypes.DatasetSource) (*domaindataset.Dataset, error) {
	policy, _ := s.settings()
	compounds, report, err := domaindataset.LoadCSV(bytes.NewReader(data), policy)
	if err != nil {
		return nil, err
	}

	d := domaindataset.NewDataset(name, source, compounds, report)
	if err := d.Validate(); err != nil {
		return nil, err
	}

	if s.store != nil {
		key, err := s.store.ArchiveRawCSV(ctx, string(d.ID), data)
		if err != nil {
			// The archive is a convenience copy; ingestion proceeds without it.
			s.logger.Warn("archiving raw csv failed",
				logging.String("dataset", name), logging.Err(err))
		} else {
			d.RawObjectKey = key
		}
	}

	if err := s.repo.Save(ctx, d); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordDatasetIngested(string(source), report.RowsLoaded, report.RowsExcluded)
	}
	if s.events != nil {
		event := kafka.DatasetEvent{
			DatasetID:     string(d.ID),
			Name:          d.Name,
			Source:        string(d.Source),
			CompoundCount: d.Size(),
			RowsExcluded:  report.RowsExcluded,
		}
		if err := s.events.PublishDatasetEvent(ctx, kafka.EventDatasetIngested, event); err != nil {
			s.logger.Warn("publishing ingest event failed", logging.Err(err))
		}
	}

	s.logger.Info("dataset ingested",
		logging.String("dataset_id", string(d.ID)),
		logging.String("name", name),
		logging.String("source", string(source)),
		logging.Int("loaded", report.RowsLoaded),
		logging.Int("excluded", report.RowsExcluded))
	return d, nil
}

// IngestRecords builds a dataset from already-structured records (the ChEMBL
// fetch path) and persists it.
func (s *Service) IngestRecords(ctx context.Context, name string, records []compound.Record, report compoundtypes.LoadReport, source compoundtypes.DatasetSource) (*domaindataset.Dataset, error) {
	policy, _ := s.settings()
	compounds := policy.AnnotateAll(records)
	d := domaindataset.NewDataset(name, source, compounds, report)
	if err := d.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, d); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordDatasetIngested(string(source), report.RowsLoaded, report.RowsExcluded)
	}
	if s.events != nil {
		event := kafka.DatasetEvent{
			DatasetID:     string(d.ID),
			Name:          d.Name,
			Source:        string(d.Source),
			CompoundCount: d.Size(),
			RowsExcluded:  report.RowsExcluded,
		}
		if err := s.events.PublishDatasetEvent(ctx, kafka.EventDatasetIngested, event); err != nil {
			s.logger.Warn("publishing ingest event failed", logging.Err(err))
		}
	}
	return d, nil
}

// Get loads one dataset with all compounds.
func (s *Service) Get(ctx context.Context, id common.ID) (*domaindataset.Dataset, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns dataset metadata pages.
func (s *Service) List(ctx context.Context, p common.Pagination) ([]compoundtypes.DatasetDTO, int64, error) {
	if err := p.Validate(); err != nil {
		return nil, 0, errors.InvalidParam(err.Error())
	}
	return s.repo.List(ctx, p)
}

// Records returns one page of a dataset's compounds, optionally filtered.
func (s *Service) Records(ctx context.Context, id common.ID, filter *domaindataset.Filter, p common.Pagination) ([]compoundtypes.CompoundDTO, int64, error) {
	if err := p.Validate(); err != nil {
		return nil, 0, errors.InvalidParam(err.Error())
	}

	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	compounds := d.Compounds
	if filter != nil {
		if err := filter.Validate(); err != nil {
			return nil, 0, err
		}
		compounds = filter.Apply(compounds)
	}

	total := int64(len(compounds))
	start := p.Offset()
	if start > len(compounds) {
		start = len(compounds)
	}
	end := start + p.PageSize
	if end > len(compounds) {
		end = len(compounds)
	}

	out := make([]compoundtypes.CompoundDTO, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, compounds[i].ToDTO())
	}
	return out, total, nil
}

// queryCacheKey derives a stable key from the filter.  json.Marshal emits map
// keys in sorted order, so equal filters hash identically.
func queryCacheKey(id common.ID, filter domaindataset.Filter) (string, error) {
	raw, err := json.Marshal(filter)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("analysis:%s:query:%x", id, sha256.Sum256(raw)), nil
}

// Query applies a filter and returns the matching compounds together with
// the aggregate statistics of the matched subset.  Results are cached per
// dataset and filter.
func (s *Service) Query(ctx context.Context, id common.ID, filter domaindataset.Filter) (compoundtypes.QueryResultDTO, error) {
	var out compoundtypes.QueryResultDTO
	if err := filter.Validate(); err != nil {
		return out, err
	}

	compute := func(ctx context.Context) (any, error) {
		d, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		matched := filter.Apply(d.Compounds)
		result := compoundtypes.QueryResultDTO{
			Records:  make([]compoundtypes.CompoundDTO, 0, len(matched)),
			Overview: domaindataset.Summarize(matched).ToDTO(),
		}
		for i := range matched {
			result.Records = append(result.Records, matched[i].ToDTO())
		}
		summaries := domaindataset.Describe(matched)
		result.Summary = make([]compoundtypes.FieldSummaryDTO, 0, len(summaries))
		for _, sum := range summaries {
			result.Summary = append(result.Summary, sum.ToDTO())
		}
		return result, nil
	}

	if s.cache == nil {
		v, err := compute(ctx)
		if err != nil {
			return out, err
		}
		return v.(compoundtypes.QueryResultDTO), nil
	}

	key, err := queryCacheKey(id, filter)
	if err != nil {
		return out, errors.Internal("serializing filter failed").WithCause(err)
	}

	var opts []redis.SetOption
	if _, ttl := s.settings(); ttl > 0 {
		opts = append(opts, redis.WithTTL(ttl))
	}
	err = s.cache.GetOrLoad(ctx, key, &out, compute, opts...)
	return out, err
}

// Delete removes the dataset, its cached analyses and its stored objects.
func (s *Service) Delete(ctx context.Context, id common.ID) error {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPrefix(ctx, "analysis:"+string(id)); err != nil {
			s.logger.Warn("invalidating analysis cache failed", logging.Err(err))
		}
	}
	if s.store != nil {
		if err := s.store.DeleteDatasetObjects(ctx, string(id)); err != nil {
			s.logger.Warn("removing stored objects failed", logging.Err(err))
		}
	}
	if s.events != nil {
		event := kafka.DatasetEvent{
			DatasetID: string(id),
			Name:      d.Name,
			Source:    string(d.Source),
		}
		if err := s.events.PublishDatasetEvent(ctx, kafka.EventDatasetDeleted, event); err != nil {
			s.logger.Warn("publishing delete event failed", logging.Err(err))
		}
	}

	s.logger.Info("dataset deleted", logging.String("dataset_id", string(id)))
	return nil
}
