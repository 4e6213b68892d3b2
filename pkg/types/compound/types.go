// Package compound defines the cross-layer data transfer types for compound
// records and datasets: the wire schema shared by the HTTP interface, the
// persistence layer, and the CLI.
package compound

import (
	"fmt"
	"sort"
	"strings"

	"github.com/moleculab/sarscope/pkg/types/common"
)

// PropertyField identifies one of the analysable numeric descriptors of a
// compound record.
type PropertyField string

const (
	FieldMW    PropertyField = "mw"
	FieldLogP  PropertyField = "logp"
	FieldHBD   PropertyField = "hbd"
	FieldHBA   PropertyField = "hba"
	FieldPSA   PropertyField = "psa"
	FieldPIC50 PropertyField = "pic50"
)

// AnalysisFields lists the descriptor fields covered by summary statistics and
// the correlation matrix, in canonical order.
var AnalysisFields = []PropertyField{FieldMW, FieldLogP, FieldHBD, FieldHBA, FieldPSA, FieldPIC50}

// IsValid reports whether f names a known analysable field.
func (f PropertyField) IsValid() bool {
	switch f {
	case FieldMW, FieldLogP, FieldHBD, FieldHBA, FieldPSA, FieldPIC50:
		return true
	}
	return false
}

func (f PropertyField) String() string { return string(f) }

// DatasetSource describes where a dataset's rows came from.
type DatasetSource string

const (
	SourceUpload DatasetSource = "upload"
	SourceWatch  DatasetSource = "watch"
	SourceChEMBL DatasetSource = "chembl"
)

// CompoundDTO is the wire representation of a single annotated compound record.
// Derived fields are always populated; PIC50 is null when IC50 <= 0 (undefined
// logarithm).
type CompoundDTO struct {
	ChemblID string `json:"chembl_id"`
	Name     string `json:"name,omitempty"`
	Target   string `json:"target"`

	IC50 float64 `json:"ic50"`
	MW   float64 `json:"mw"`
	LogP float64 `json:"logp"`
	HBD  float64 `json:"hbd"`
	HBA  float64 `json:"hba"`
	PSA  float64 `json:"psa"`

	PIC50              *float64 `json:"pic50"`
	LipinskiViolations int      `json:"lipinski_violations"`
	DrugLike           bool     `json:"is_drug_like"`
}

// LoadReport summarises the outcome of parsing a raw compound table.
// Load failures are row-local: bad rows are excluded and tallied here rather
// than failing the whole dataset.
type LoadReport struct {
	RowsRead     int            `json:"rows_read"`
	RowsLoaded   int            `json:"rows_loaded"`
	RowsExcluded int            `json:"rows_excluded"`
	Exclusions   map[string]int `json:"exclusions,omitempty"`
}

// String renders the tally in one line, with exclusion reasons sorted so the
// output is stable.
func (r LoadReport) String() string {
	if len(r.Exclusions) == 0 {
		return fmt.Sprintf("%d rows read, %d loaded, %d excluded",
			r.RowsRead, r.RowsLoaded, r.RowsExcluded)
	}
	reasons := make([]string, 0, len(r.Exclusions))
	for reason := range r.Exclusions {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	parts := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		parts = append(parts, fmt.Sprintf("%s=%d", reason, r.Exclusions[reason]))
	}
	return fmt.Sprintf("%d rows read, %d loaded, %d excluded (%s)",
		r.RowsRead, r.RowsLoaded, r.RowsExcluded, strings.Join(parts, ", "))
}

// DatasetDTO is the wire representation of dataset metadata.
type DatasetDTO struct {
	common.BaseEntity

	Name          string        `json:"name"`
	Source        DatasetSource `json:"source"`
	CompoundCount int           `json:"compound_count"`
	TargetCount   int           `json:"target_count"`
	RawObjectKey  string        `json:"raw_object_key,omitempty"`
	LoadReport    LoadReport    `json:"load_report"`
}
