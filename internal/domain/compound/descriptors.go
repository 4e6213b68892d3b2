package compound

import "math"

// nanomolarToMolar converts an IC50 given in nM to molar concentration.
const nanomolarToMolar = 1e-9

// PIC50 converts an IC50 in nanomolar to the pIC50 scale:
//
//	pIC50 = -log10(ic50 * 1e-9)
//
// An IC50 of 1000 nM (1 µM) maps to 6.0; smaller IC50 values (more potent
// compounds) map to larger pIC50 values.  Zero and negative inputs have no
// logarithm and yield NaN.
func PIC50(ic50nM float64) float64 {
	if !(ic50nM > 0) { // also catches NaN
		return math.NaN()
	}
	return -math.Log10(ic50nM * nanomolarToMolar)
}

// Lipinski Rule-of-Five thresholds.  A descriptor strictly above its
// threshold counts as one violation; values exactly at the threshold comply.
const (
	LipinskiMaxMW   = 500.0
	LipinskiMaxLogP = 5.0
	LipinskiMaxHBD  = 5.0
	LipinskiMaxHBA  = 10.0
)

// RuleOfFive is the drug-likeness classification policy.  MaxViolations is
// the number of rule violations a compound may carry and still be classified
// drug-like; the strict convention is 0.
type RuleOfFive struct {
	MaxViolations int
}

// StrictRuleOfFive is the default policy: any violation disqualifies.
var StrictRuleOfFive = RuleOfFive{MaxViolations: 0}

// Violations counts how many of the four Lipinski criteria the record
// breaks: MW > 500, LogP > 5, HBD > 5, HBA > 10.
func (p RuleOfFive) Violations(r *Record) int {
	n := 0
	if r.MW > LipinskiMaxMW {
		n++
	}
	if r.LogP > LipinskiMaxLogP {
		n++
	}
	if r.HBD > LipinskiMaxHBD {
		n++
	}
	if r.HBA > LipinskiMaxHBA {
		n++
	}
	return n
}

// DrugLike reports whether the record passes the policy.
func (p RuleOfFive) DrugLike(r *Record) bool {
	return p.Violations(r) <= p.MaxViolations
}

// Annotate derives all computed properties for a record under the given
// policy.  The input record is copied, never mutated.
func (p RuleOfFive) Annotate(r Record) Compound {
	violations := p.Violations(&r)
	return Compound{
		Record:             r,
		PIC50:              PIC50(r.IC50),
		LipinskiViolations: violations,
		DrugLike:           violations <= p.MaxViolations,
	}
}

// AnnotateAll annotates a batch of records, preserving input order.
func (p RuleOfFive) AnnotateAll(records []Record) []Compound {
	out := make([]Compound, 0, len(records))
	for _, r := range records {
		out = append(out, p.Annotate(r))
	}
	return out
}
