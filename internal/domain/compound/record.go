// Package compound contains the core domain model of SARScope: bioactivity
// records, molecular property descriptors and the Lipinski Rule-of-Five
// classification policy.
package compound

import (
	"fmt"
	"math"
	"strings"

	apperrors "github.com/moleculab/sarscope/pkg/errors"
	compoundtypes "github.com/moleculab/sarscope/pkg/types/compound"
)

// ─────────────────────────────────────────────────────────────────────────────
// Record
// ─────────────────────────────────────────────────────────────────────────────

// Record is a single raw bioactivity measurement as it arrives from a CSV
// upload or the ChEMBL web service, before any derived annotation.
//
// IC50 is in nanomolar.  MW is molecular weight in daltons, LogP the
// octanol-water partition coefficient, HBD/HBA hydrogen-bond donor/acceptor
// counts and PSA the polar surface area in square angstroms.
type Record struct {
	ChemblID string
	Name     string
	Target   string
	IC50     float64
	MW       float64
	LogP     float64
	HBD      float64
	HBA      float64
	PSA      float64
}

// Validate checks the structural invariants a record must satisfy before it
// may enter a dataset.  A non-positive IC50 is NOT a validation error; such
// records are kept and simply carry an undefined potency.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.ChemblID) == "" {
		return apperrors.New(apperrors.ErrCodeCompoundInvalid, "compound record is missing chembl_id")
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"ic50", r.IC50},
		{"mw", r.MW},
		{"logp", r.LogP},
		{"hbd", r.HBD},
		{"hba", r.HBA},
		{"psa", r.PSA},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return apperrors.New(apperrors.ErrCodeCompoundInvalid,
				fmt.Sprintf("compound %s has a non-finite %s value", r.ChemblID, f.name))
		}
	}
	if r.MW < 0 || r.HBD < 0 || r.HBA < 0 || r.PSA < 0 {
		return apperrors.New(apperrors.ErrCodeCompoundInvalid,
			fmt.Sprintf("compound %s has a negative descriptor value", r.ChemblID))
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Compound (annotated record)
// ─────────────────────────────────────────────────────────────────────────────

// Compound is a Record annotated with its derived properties: potency on the
// pIC50 scale, Rule-of-Five violation count and the drug-likeness verdict.
type Compound struct {
	Record

	// PIC50 is NaN when IC50 is not a positive number.
	PIC50 float64

	LipinskiViolations int
	DrugLike           bool
}

// HasPIC50 reports whether the compound carries a defined potency value.
func (c *Compound) HasPIC50() bool {
	return !math.IsNaN(c.PIC50)
}

// Property returns the value of the named analysis field.  For PIC50 the
// returned value may be NaN; callers performing statistics must handle that.
func (c *Compound) Property(field compoundtypes.PropertyField) (float64, error) {
	switch field {
	case compoundtypes.FieldMW:
		return c.MW, nil
	case compoundtypes.FieldLogP:
		return c.LogP, nil
	case compoundtypes.FieldHBD:
		return c.HBD, nil
	case compoundtypes.FieldHBA:
		return c.HBA, nil
	case compoundtypes.FieldPSA:
		return c.PSA, nil
	case compoundtypes.FieldPIC50:
		return c.PIC50, nil
	default:
		return 0, apperrors.New(apperrors.ErrCodeBadRequest,
			fmt.Sprintf("unknown property field %q", field))
	}
}

// ToDTO converts the compound to its transport representation.
func (c *Compound) ToDTO() compoundtypes.CompoundDTO {
	dto := compoundtypes.CompoundDTO{
		ChemblID:           c.ChemblID,
		Name:               c.Name,
		Target:             c.Target,
		IC50:               c.IC50,
		MW:                 c.MW,
		LogP:               c.LogP,
		HBD:                c.HBD,
		HBA:                c.HBA,
		PSA:                c.PSA,
		LipinskiViolations: c.LipinskiViolations,
		DrugLike:           c.DrugLike,
	}
	if c.HasPIC50() {
		v := c.PIC50
		dto.PIC50 = &v
	}
	return dto
}
