package dataset

import (
	"fmt"

	"github.com/moleculab/sarscope/internal/domain/compound"
	apperrors "github.com/moleculab/sarscope/pkg/errors"
	compoundtypes "github.com/moleculab/sarscope/pkg/types/compound"
)

// Range is an inclusive numeric interval.  A nil bound is open on that side.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Contains reports whether v lies inside the range.  NaN never lies inside
// any bounded range because no comparison with NaN holds.
func (r Range) Contains(v float64) bool {
	if r.Min != nil && !(v >= *r.Min) {
		return false
	}
	if r.Max != nil && !(v <= *r.Max) {
		return false
	}
	return true
}

// Filter selects compounds by target membership, property ranges and
// drug-likeness.  All set criteria must hold (logical AND); an unset
// criterion matches everything, so the zero Filter selects every compound.
type Filter struct {
	// Targets restricts to compounds whose target is in the list.
	Targets []string `json:"targets,omitempty"`

	// Ranges restricts numeric properties to inclusive intervals, keyed by
	// analysis field name.  A compound with an undefined pIC50 fails any
	// bounded pic50 range.
	Ranges map[compoundtypes.PropertyField]Range `json:"ranges,omitempty"`

	// DrugLikeOnly keeps only compounds classified drug-like.
	DrugLikeOnly bool `json:"drug_like_only,omitempty"`

	// MaxViolations, when set, keeps only compounds with at most that many
	// Rule-of-Five violations.
	MaxViolations *int `json:"max_violations,omitempty"`
}

// IsEmpty reports whether the filter has no criteria set.
func (f *Filter) IsEmpty() bool {
	return len(f.Targets) == 0 && len(f.Ranges) == 0 && !f.DrugLikeOnly && f.MaxViolations == nil
}

// Validate rejects unknown property fields and inverted ranges.
func (f *Filter) Validate() error {
	for field, r := range f.Ranges {
		if !field.IsValid() {
			return apperrors.New(apperrors.ErrCodeDatasetFilterInvalid,
				fmt.Sprintf("unknown filter field %q", field))
		}
		if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
			return apperrors.New(apperrors.ErrCodeDatasetFilterInvalid,
				fmt.Sprintf("filter range for %s has min %g above max %g", field, *r.Min, *r.Max))
		}
	}
	if f.MaxViolations != nil && (*f.MaxViolations < 0 || *f.MaxViolations > 4) {
		return apperrors.New(apperrors.ErrCodeDatasetFilterInvalid,
			fmt.Sprintf("max_violations %d is out of range [0, 4]", *f.MaxViolations))
	}
	return nil
}

// Matches reports whether a single compound satisfies every criterion.
func (f *Filter) Matches(c *compound.Compound) bool {
	if len(f.Targets) > 0 {
		found := false
		for _, t := range f.Targets {
			if c.Target == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	for field, r := range f.Ranges {
		v, err := c.Property(field)
		if err != nil {
			return false
		}
		if !r.Contains(v) {
			return false
		}
	}

	if f.DrugLikeOnly && !c.DrugLike {
		return false
	}
	if f.MaxViolations != nil && c.LipinskiViolations > *f.MaxViolations {
		return false
	}
	return true
}

// Apply returns the compounds matching the filter, in their original order.
// The input slice is never mutated.
func (f *Filter) Apply(compounds []compound.Compound) []compound.Compound {
	out := make([]compound.Compound, 0, len(compounds))
	for i := range compounds {
		if f.Matches(&compounds[i]) {
			out = append(out, compounds[i])
		}
	}
	return out
}
