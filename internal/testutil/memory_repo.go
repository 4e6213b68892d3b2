package testutil

import (
	"context"
	"sync"

	"github.com/moleculab/sarscope/internal/domain/dataset"
	apperrors "github.com/moleculab/sarscope/pkg/errors"
	"github.com/moleculab/sarscope/pkg/types/common"
	compoundtypes "github.com/moleculab/sarscope/pkg/types/compound"
)

// MemoryDatasetRepo is an in-memory dataset.Repository for tests that wire
// real services without PostgreSQL.
type MemoryDatasetRepo struct {
	mu       sync.Mutex
	datasets map[common.ID]*dataset.Dataset
	order    []common.ID
}

// NewMemoryDatasetRepo returns an empty repository.
func NewMemoryDatasetRepo() *MemoryDatasetRepo {
	return &MemoryDatasetRepo{datasets: make(map[common.ID]*dataset.Dataset)}
}

func (r *MemoryDatasetRepo) Save(_ context.Context, d *dataset.Dataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.datasets {
		if existing.Name == d.Name {
			return apperrors.New(apperrors.ErrCodeDatasetAlreadyExists, "dataset name already in use")
		}
	}
	r.datasets[d.ID] = d
	r.order = append(r.order, d.ID)
	return nil
}

func (r *MemoryDatasetRepo) FindByID(_ context.Context, id common.ID) (*dataset.Dataset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.datasets[id]
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeDatasetNotFound, "dataset not found")
	}
	return d, nil
}

func (r *MemoryDatasetRepo) List(_ context.Context, p common.Pagination) ([]compoundtypes.DatasetDTO, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := int64(len(r.order))
	start := p.Offset()
	if start > len(r.order) {
		start = len(r.order)
	}
	end := start + p.PageSize
	if end > len(r.order) {
		end = len(r.order)
	}

	out := make([]compoundtypes.DatasetDTO, 0, end-start)
	for _, id := range r.order[start:end] {
		out = append(out, r.datasets[id].ToDTO())
	}
	return out, total, nil
}

func (r *MemoryDatasetRepo) Delete(_ context.Context, id common.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.datasets[id]; !ok {
		return apperrors.New(apperrors.ErrCodeDatasetNotFound, "dataset not found")
	}
	delete(r.datasets, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
