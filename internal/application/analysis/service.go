// Package analysis implements the statistics use cases over stored datasets:
// overview, descriptive summaries, correlation, neighbor lookup and report
// export.  Results are cached per dataset.
package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	domaindataset "github.com/moleculab/sarscope/internal/domain/dataset"
	"github.com/moleculab/sarscope/internal/infrastructure/database/redis"
	"github.com/moleculab/sarscope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/moleculab/sarscope/pkg/errors"
	"github.com/moleculab/sarscope/pkg/types/common"
	compoundtypes "github.com/moleculab/sarscope/pkg/types/compound"
)

// Cache is the subset of the caching port the analysis service needs.
type Cache interface {
	GetOrLoad(ctx context.Context, key string, dst any, load func(ctx context.Context) (any, error), opts ...redis.SetOption) error
}

// ExportStore writes report objects and hands out download links.
type ExportStore interface {
	PutExport(ctx context.Context, datasetID, name string, data []byte) (string, error)
	PresignedGetURL(ctx context.Context, key string) (string, error)
}

// AnalysisMetrics records analysis timings.
type AnalysisMetrics interface {
	RecordAnalysis(kind string, duration time.Duration)
}

// DatasetLoader loads datasets for analysis.
type DatasetLoader interface {
	FindByID(ctx context.Context, id common.ID) (*domaindataset.Dataset, error)
}

// Service computes and caches dataset analyses.
type Service struct {
	datasets DatasetLoader
	cache    Cache
	exports  ExportStore
	metrics  AnalysisMetrics
	logger   logging.Logger

	// mu guards the settings the config reload path may replace.
	mu       sync.RWMutex
	defaultK int
	cacheTTL time.Duration
}

// NewService wires the analysis service.  cache, exports and metrics may be
// nil; caching and export are then disabled.  cacheTTL 0 falls back to the
// cache's default entry lifetime.
func NewService(datasets DatasetLoader, cache Cache, exports ExportStore, metrics AnalysisMetrics, defaultK int, cacheTTL time.Duration, logger logging.Logger) *Service {
	if defaultK < 1 {
		defaultK = 10
	}
	return &Service{
		datasets: datasets,
		cache:    cache,
		exports:  exports,
		metrics:  metrics,
		defaultK: defaultK,
		cacheTTL: cacheTTL,
		logger:   logger.Named("analysis-service"),
	}
}

// UpdateSettings replaces the tunable analysis settings.  Invoked from the
// configuration reload path while requests are in flight.
func (s *Service) UpdateSettings(defaultK int, cacheTTL time.Duration) {
	if defaultK < 1 {
		defaultK = 10
	}
	s.mu.Lock()
	s.defaultK = defaultK
	s.cacheTTL = cacheTTL
	s.mu.Unlock()
}

func (s *Service) settings() (defaultK int, cacheTTL time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultK, s.cacheTTL
}

func cacheKey(id common.ID, kind string) string {
	return fmt.Sprintf("analysis:%s:%s", id, kind)
}

// cached runs compute through the cache when one is configured.
func (s *Service) cached(ctx context.Context, id common.ID, kind string, dst any, compute func(ctx context.Context) (any, error)) error {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordAnalysis(kind, time.Since(start))
		}
	}()

	if s.cache == nil {
		v, err := compute(ctx)
		if err != nil {
			return err
		}
		return assign(dst, v)
	}

	var opts []redis.SetOption
	if _, ttl := s.settings(); ttl > 0 {
		opts = append(opts, redis.WithTTL(ttl))
	}
	return s.cache.GetOrLoad(ctx, cacheKey(id, kind), dst, compute, opts...)
}

// Overview returns the headline summary for a dataset.
func (s *Service) Overview(ctx context.Context, id common.ID) (compoundtypes.OverviewDTO, error) {
	var out compoundtypes.OverviewDTO
	err := s.cached(ctx, id, "overview", &out, func(ctx context.Context) (any, error) {
		d, err := s.datasets.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return domaindataset.Summarize(d.Compounds).ToDTO(), nil
	})
	return out, err
}

// Describe returns per-field descriptive statistics for a dataset.
func (s *Service) Describe(ctx context.Context, id common.ID) ([]compoundtypes.FieldSummaryDTO, error) {
	var out []compoundtypes.FieldSummaryDTO
	err := s.cached(ctx, id, "describe", &out, func(ctx context.Context) (any, error) {
		d, err := s.datasets.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		summaries := domaindataset.Describe(d.Compounds)
		dtos := make([]compoundtypes.FieldSummaryDTO, 0, len(summaries))
		for _, sum := range summaries {
			dtos = append(dtos, sum.ToDTO())
		}
		return dtos, nil
	})
	return out, err
}

// Correlation returns the Pearson correlation matrix for a dataset.
func (s *Service) Correlation(ctx context.Context, id common.ID) (compoundtypes.CorrelationDTO, error) {
	var out compoundtypes.CorrelationDTO
	err := s.cached(ctx, id, "correlation", &out, func(ctx context.Context) (any, error) {
		d, err := s.datasets.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return domaindataset.Correlate(d.Compounds).ToDTO(), nil
	})
	return out, err
}

// Neighbors returns the k most similar compounds to the query compound.
// Neighbor lookups are not cached: the query space (compound x k) is too
// sparse for reuse.
func (s *Service) Neighbors(ctx context.Context, id common.ID, chemblID string, k int) ([]domaindataset.Neighbor, error) {
	if k < 1 {
		k, _ = s.settings()
	}

	start := time.Now()
	d, err := s.datasets.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	neighbors, err := domaindataset.Neighbors(d.Compounds, chemblID, k)
	if s.metrics != nil {
		s.metrics.RecordAnalysis("neighbors", time.Since(start))
	}
	return neighbors, err
}

// Export writes the summary and correlation reports of a dataset to object
// storage and returns their keys plus presigned download URLs.
func (s *Service) Export(ctx context.Context, id common.ID) (compoundtypes.ExportResultDTO, error) {
	var out compoundtypes.ExportResultDTO
	if s.exports == nil {
		return out, apperrors.New(apperrors.ErrCodeNotImplemented,
			"report export requires object storage")
	}

	d, err := s.datasets.FindByID(ctx, id)
	if err != nil {
		return out, err
	}

	summaryCSV := RenderSummaryCSV(domaindataset.Describe(d.Compounds))
	correlationCSV := RenderCorrelationCSV(domaindataset.Correlate(d.Compounds))

	out.SummaryKey, err = s.exports.PutExport(ctx, string(id), "summary_statistics.csv", summaryCSV)
	if err != nil {
		return compoundtypes.ExportResultDTO{}, err
	}
	out.CorrelationKey, err = s.exports.PutExport(ctx, string(id), "correlation_matrix.csv", correlationCSV)
	if err != nil {
		return compoundtypes.ExportResultDTO{}, err
	}

	if url, err := s.exports.PresignedGetURL(ctx, out.SummaryKey); err == nil {
		out.SummaryURL = url
	}
	if url, err := s.exports.PresignedGetURL(ctx, out.CorrelationKey); err == nil {
		out.CorrelationURL = url
	}

	s.logger.Info("reports exported",
		logging.String("dataset_id", string(id)),
		logging.String("summary_key", out.SummaryKey),
		logging.String("correlation_key", out.CorrelationKey))
	return out, nil
}

// assign copies a computed value into the caller's destination when no cache
// sits in between.  The compute functions return exactly the type dst points
// to, so the switch is exhaustive for this package.
func assign(dst, v any) error {
	switch d := dst.(type) {
	case *compoundtypes.OverviewDTO:
		d2, _ := v.(compoundtypes.OverviewDTO)
		*d = d2
	case *[]compoundtypes.FieldSummaryDTO:
		d2, _ := v.([]compoundtypes.FieldSummaryDTO)
		*d = d2
	case *compoundtypes.CorrelationDTO:
		d2, _ := v.(compoundtypes.CorrelationDTO)
		*d = d2
	default:
		return fmt.Errorf("unsupported analysis result type %T", dst)
	}
	return nil
}
