package dataset

import (
	"fmt"
	"math"
	"sort"

	"github.com/moleculab/sarscope/internal/domain/compound"
	apperrors "github.com/moleculab/sarscope/pkg/errors"
	compoundtypes "github.com/moleculab/sarscope/pkg/types/compound"
)

// NeighborFields are the structural descriptors used for similarity lookups.
// Potency is excluded: it is the measured outcome, not a structural property,
// and may be undefined.
var NeighborFields = []compoundtypes.PropertyField{
	compoundtypes.FieldMW,
	compoundtypes.FieldLogP,
	compoundtypes.FieldHBD,
	compoundtypes.FieldHBA,
	compoundtypes.FieldPSA,
}

// Neighbor is one result of a descriptor-space similarity lookup.
type Neighbor struct {
	ChemblID string  `json:"chembl_id"`
	Name     string  `json:"name,omitempty"`
	Target   string  `json:"target"`
	Distance float64 `json:"distance"`
}

// Neighbors returns the k compounds closest to the query compound by
// Euclidean distance in z-scored descriptor space.  Each descriptor is
// standardized over the whole compound set so that no single unit dominates;
// a descriptor with zero variance contributes nothing to any distance.  The
// query compound itself is never part of the result.  Ties are broken by
// ChEMBL identifier for deterministic output.
func Neighbors(compounds []compound.Compound, chemblID string, k int) ([]Neighbor, error) {
	if k < 1 {
		return nil, apperrors.New(apperrors.ErrCodeBadRequest,
			fmt.Sprintf("neighbor count %d must be >= 1", k))
	}

	queryIdx := -1
	for i := range compounds {
		if compounds[i].ChemblID == chemblID {
			queryIdx = i
			break
		}
	}
	if queryIdx < 0 {
		return nil, apperrors.New(apperrors.ErrCodeCompoundNotFound, "compound not found").
			WithDetail("chembl_id: " + chemblID)
	}

	scored := zscore(compounds)
	query := scored[queryIdx]

	neighbors := make([]Neighbor, 0, len(compounds)-1)
	for i := range compounds {
		if i == queryIdx {
			continue
		}
		var sum float64
		for d := range query {
			diff := scored[i][d] - query[d]
			sum += diff * diff
		}
		neighbors = append(neighbors, Neighbor{
			ChemblID: compounds[i].ChemblID,
			Name:     compounds[i].Name,
			Target:   compounds[i].Target,
			Distance: math.Sqrt(sum),
		})
	}

	sort.Slice(neighbors, func(a, b int) bool {
		if neighbors[a].Distance != neighbors[b].Distance {
			return neighbors[a].Distance < neighbors[b].Distance
		}
		return neighbors[a].ChemblID < neighbors[b].ChemblID
	})

	if k < len(neighbors) {
		neighbors = neighbors[:k]
	}
	return neighbors, nil
}

// zscore standardizes every neighbor descriptor over the compound set and
// returns one coordinate vector per compound.
func zscore(compounds []compound.Compound) [][]float64 {
	out := make([][]float64, len(compounds))
	for i := range out {
		out[i] = make([]float64, len(NeighborFields))
	}

	for d, field := range NeighborFields {
		col := rawColumn(compounds, field)
		m := mean(col)
		sd := sampleStd(col, m)
		for i, v := range col {
			if math.IsNaN(sd) || sd == 0 {
				out[i][d] = 0
				continue
			}
			out[i][d] = (v - m) / sd
		}
	}
	return out
}
