// Package dataset contains the dataset aggregate and the analysis operations
// that run over it: CSV loading, property filtering and aggregate statistics.
package dataset

import (
	"sort"
	"time"

	"github.com/moleculab/sarscope/internal/domain/compound"
	apperrors "github.com/moleculab/sarscope/pkg/errors"
	"github.com/moleculab/sarscope/pkg/types/common"
	compoundtypes "github.com/moleculab/sarscope/pkg/types/compound"
)

// Dataset is a named collection of annotated compounds loaded from a single
// source (upload, drop directory or ChEMBL fetch).  Compounds keep their
// source order.
type Dataset struct {
	ID        common.ID
	Name      string
	Source    compoundtypes.DatasetSource
	CreatedAt time.Time
	UpdatedAt time.Time

	// RawObjectKey locates the archived source CSV in object storage.
	// Empty for datasets whose raw file was not retained.
	RawObjectKey string

	Compounds []compound.Compound
	Report    compoundtypes.LoadReport
}

// NewDataset constructs a dataset with a fresh identity.
func NewDataset(name string, source compoundtypes.DatasetSource, compounds []compound.Compound, report compoundtypes.LoadReport) *Dataset {
	now := time.Now().UTC()
	return &Dataset{
		ID:        common.NewID(),
		Name:      name,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
		Compounds: compounds,
		Report:    report,
	}
}

// Validate checks the aggregate invariants.
func (d *Dataset) Validate() error {
	if d.Name == "" {
		return apperrors.New(apperrors.ErrCodeBadRequest, "dataset name must not be empty")
	}
	if len(d.Compounds) == 0 {
		// The load report tells the caller what happened to their rows;
		// without it an all-excluded upload just looks empty.
		return apperrors.New(apperrors.ErrCodeDatasetEmpty, "dataset contains no compounds").
			WithDetail(d.Report.String())
	}
	return nil
}

// Size returns the number of compounds in the dataset.
func (d *Dataset) Size() int { return len(d.Compounds) }

// Targets returns the distinct protein target names, sorted.
func (d *Dataset) Targets() []string {
	seen := make(map[string]struct{}, len(d.Compounds))
	for i := range d.Compounds {
		seen[d.Compounds[i].Target] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// DrugLikeCount returns how many compounds pass the drug-likeness policy
// they were annotated under.
func (d *Dataset) DrugLikeCount() int {
	n := 0
	for i := range d.Compounds {
		if d.Compounds[i].DrugLike {
			n++
		}
	}
	return n
}

// FindByChemblID returns the first compound with the given identifier.
func (d *Dataset) FindByChemblID(chemblID string) (*compound.Compound, error) {
	for i := range d.Compounds {
		if d.Compounds[i].ChemblID == chemblID {
			return &d.Compounds[i], nil
		}
	}
	return nil, apperrors.New(apperrors.ErrCodeCompoundNotFound, "compound not found").
		WithDetail("chembl_id: " + chemblID)
}

// ToDTO converts dataset metadata (not the compound rows) for transport.
func (d *Dataset) ToDTO() compoundtypes.DatasetDTO {
	return compoundtypes.DatasetDTO{
		BaseEntity: common.BaseEntity{
			ID:        d.ID,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		},
		Name:          d.Name,
		Source:        d.Source,
		CompoundCount: len(d.Compounds),
		TargetCount:   len(d.Targets()),
		RawObjectKey:  d.RawObjectKey,
		LoadReport:    d.Report,
	}
}
