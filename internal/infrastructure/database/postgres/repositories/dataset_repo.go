// Package repositories contains the PostgreSQL implementations of the domain
// persistence ports.
package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moleculab/sarscope/internal/domain/compound"
	"github.com/moleculab/sarscope/internal/domain/dataset"
	"github.com/moleculab/sarscope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/moleculab/sarscope/pkg/errors"
	"github.com/moleculab/sarscope/pkg/types/common"
	compoundtypes "github.com/moleculab/sarscope/pkg/types/compound"
)

// DatasetRepository persists datasets and their compounds in PostgreSQL.
// Compound rows are written with COPY, which keeps bulk ingestion of large
// CSV uploads a single round trip.
type DatasetRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewDatasetRepository builds a repository over the given pool.
func NewDatasetRepository(pool *pgxpool.Pool, logger logging.Logger) *DatasetRepository {
	return &DatasetRepository{pool: pool, logger: logger.Named("dataset-repo")}
}

var _ dataset.Repository = (*DatasetRepository)(nil)

const insertDatasetSQL = `
INSERT INTO datasets (id, name, source, raw_object_key,
                      rows_read, rows_loaded, rows_excluded, exclusions,
                      created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// Save writes the dataset row and bulk-copies its compounds in one
// transaction.  A duplicate dataset name maps to a conflict error.
func (r *DatasetRepository) Save(ctx context.Context, d *dataset.Dataset) error {
	exclusions, err := json.Marshal(d.Report.Exclusions)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "encoding load report")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "beginning transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, insertDatasetSQL,
		d.ID, d.Name, string(d.Source), d.RawObjectKey,
		d.Report.RowsRead, d.Report.RowsLoaded, d.Report.RowsExcluded, exclusions,
		d.CreatedAt, d.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.New(apperrors.ErrCodeDatasetAlreadyExists, "dataset name already in use").
				WithDetail("name: " + d.Name)
		}
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "inserting dataset")
	}

	rows := make([][]any, 0, len(d.Compounds))
	for seq := range d.Compounds {
		c := &d.Compounds[seq]
		var pic50 *float64
		if !math.IsNaN(c.PIC50) {
			v := c.PIC50
			pic50 = &v
		}
		rows = append(rows, []any{
			d.ID, seq, c.ChemblID, c.Name, c.Target,
			c.IC50, c.MW, c.LogP, c.HBD, c.HBA, c.PSA,
			pic50, c.LipinskiViolations, c.DrugLike,
		})
	}

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"compounds"},
		[]string{"dataset_id", "seq", "chembl_id", "name", "target",
			"ic50", "mw", "logp", "hbd", "hba", "psa",
			"pic50", "lipinski_violations", "is_drug_like"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "copying compounds")
	}
	if int(copied) != len(rows) {
		return apperrors.Newf(apperrors.ErrCodeDatabaseError,
			"copied %d of %d compound rows", copied, len(rows))
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "committing dataset")
	}

	r.logger.Info("dataset saved",
		logging.String("dataset_id", string(d.ID)),
		logging.String("name", d.Name),
		logging.Int("compounds", len(d.Compounds)))
	return nil
}

const selectDatasetSQL = `
SELECT id, name, source, raw_object_key,
       rows_read, rows_loaded, rows_excluded, exclusions,
       created_at, updated_at
FROM datasets WHERE id = $1`

const selectCompoundsSQL = `
SELECT chembl_id, name, target, ic50, mw, logp, hbd, hba, psa,
       pic50, lipinski_violations, is_drug_like
FROM compounds WHERE dataset_id = $1 ORDER BY seq`

// FindByID loads a dataset and its compounds in source order.
func (r *DatasetRepository) FindByID(ctx context.Context, id common.ID) (*dataset.Dataset, error) {
	var (
		d          dataset.Dataset
		source     string
		exclusions []byte
	)
	err := r.pool.QueryRow(ctx, selectDatasetSQL, id).Scan(
		&d.ID, &d.Name, &source, &d.RawObjectKey,
		&d.Report.RowsRead, &d.Report.RowsLoaded, &d.Report.RowsExcluded, &exclusions,
		&d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.New(apperrors.ErrCodeDatasetNotFound, "dataset not found").
			WithDetail("id: " + string(id))
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "loading dataset")
	}
	d.Source = compoundtypes.DatasetSource(source)
	if len(exclusions) > 0 {
		if err := json.Unmarshal(exclusions, &d.Report.Exclusions); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "decoding load report")
		}
	}

	rows, err := r.pool.Query(ctx, selectCompoundsSQL, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "loading compounds")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c     compound.Compound
			pic50 *float64
		)
		if err := rows.Scan(&c.ChemblID, &c.Name, &c.Target,
			&c.IC50, &c.MW, &c.LogP, &c.HBD, &c.HBA, &c.PSA,
			&pic50, &c.LipinskiViolations, &c.DrugLike); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "scanning compound")
		}
		if pic50 != nil {
			c.PIC50 = *pic50
		} else {
			c.PIC50 = math.NaN()
		}
		d.Compounds = append(d.Compounds, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "iterating compounds")
	}

	return &d, nil
}

const listDatasetsSQL = `
SELECT d.id, d.name, d.source, d.raw_object_key,
       d.rows_read, d.rows_loaded, d.rows_excluded,
       d.created_at, d.updated_at,
       count(c.chembl_id)          AS compound_count,
       count(DISTINCT c.target)    AS target_count
FROM datasets d
LEFT JOIN compounds c ON c.dataset_id = d.id
GROUP BY d.id
ORDER BY d.created_at DESC
LIMIT $1 OFFSET $2`

// List returns dataset metadata newest first.
func (r *DatasetRepository) List(ctx context.Context, p common.Pagination) ([]compoundtypes.DatasetDTO, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM datasets`).Scan(&total); err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "counting datasets")
	}

	rows, err := r.pool.Query(ctx, listDatasetsSQL, p.PageSize, p.Offset())
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "listing datasets")
	}
	defer rows.Close()

	var out []compoundtypes.DatasetDTO
	for rows.Next() {
		var (
			dto    compoundtypes.DatasetDTO
			source string
		)
		if err := rows.Scan(&dto.ID, &dto.Name, &source, &dto.RawObjectKey,
			&dto.LoadReport.RowsRead, &dto.LoadReport.RowsLoaded, &dto.LoadReport.RowsExcluded,
			&dto.CreatedAt, &dto.UpdatedAt,
			&dto.CompoundCount, &dto.TargetCount); err != nil {
			return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "scanning dataset")
		}
		dto.Source = compoundtypes.DatasetSource(source)
		out = append(out, dto)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "iterating datasets")
	}

	return out, total, nil
}

// Delete removes a dataset; compound rows cascade.
func (r *DatasetRepository) Delete(ctx context.Context, id common.ID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "deleting dataset")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.ErrCodeDatasetNotFound, "dataset not found").
			WithDetail("id: " + string(id))
	}
	r.logger.Info("dataset deleted", logging.String("dataset_id", string(id)))
	return nil
}
