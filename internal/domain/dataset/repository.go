package dataset

import (
	"context"

	"github.com/moleculab/sarscope/pkg/types/common"
	compoundtypes "github.com/moleculab/sarscope/pkg/types/compound"
)

// Repository is the persistence port for datasets.  Implementations live in
// the infrastructure layer.
type Repository interface {
	// Save persists the dataset and all of its compounds atomically.
	Save(ctx context.Context, d *Dataset) error

	// FindByID loads a dataset with its full compound list, in source order.
	FindByID(ctx context.Context, id common.ID) (*Dataset, error)

	// List returns dataset metadata ordered by creation time descending,
	// with the total dataset count for pagination.
	List(ctx context.Context, p common.Pagination) ([]compoundtypes.DatasetDTO, int64, error)

	// Delete removes the dataset and its compounds.
	Delete(ctx context.Context, id common.ID) error
}
