package handlers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	domaindataset "github.com/moleculab/sarscope/internal/domain/dataset"
	apperrors "github.com/moleculab/sarscope/pkg/errors"
	compoundtypes "github.com/moleculab/sarscope/pkg/types/compound"
)

// bindQueryInt parses an optional integer query parameter into dst, leaving
// dst untouched when the parameter is absent.
func bindQueryInt(c *gin.Context, name string, dst *int) error {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// bindQueryFloat parses an optional float query parameter, leaving dst nil
// when the parameter is absent.
func bindQueryFloat(c *gin.Context, name string, dst **float64) error {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return err
	}
	*dst = &v
	return nil
}

// parseRecordFilter builds a compound filter from record listing query
// parameters: repeated target, drug_like_only, max_violations and
// min_<field>/max_<field> bounds for every analysis field.  It returns a nil
// filter when no criterion is present, and false after responding with an
// error for malformed values.
func parseRecordFilter(c *gin.Context) (*domaindataset.Filter, bool) {
	var f domaindataset.Filter
	f.Targets = c.QueryArray("target")

	if raw, ok := c.GetQuery("drug_like_only"); ok && raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, apperrors.InvalidParam("invalid drug_like_only value "+strconv.Quote(raw)))
			return nil, false
		}
		f.DrugLikeOnly = v
	}
	if raw, ok := c.GetQuery("max_violations"); ok && raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, apperrors.InvalidParam("invalid max_violations value "+strconv.Quote(raw)))
			return nil, false
		}
		f.MaxViolations = &v
	}

	for _, field := range compoundtypes.AnalysisFields {
		var r domaindataset.Range
		if err := bindQueryFloat(c, "min_"+string(field), &r.Min); err != nil {
			respondError(c, apperrors.InvalidParam(fmt.Sprintf("invalid min_%s value", field)))
			return nil, false
		}
		if err := bindQueryFloat(c, "max_"+string(field), &r.Max); err != nil {
			respondError(c, apperrors.InvalidParam(fmt.Sprintf("invalid max_%s value", field)))
			return nil, false
		}
		if r.Min != nil || r.Max != nil {
			if f.Ranges == nil {
				f.Ranges = make(map[compoundtypes.PropertyField]domaindataset.Range)
			}
			f.Ranges[field] = r
		}
	}

	if f.IsEmpty() {
		return nil, true
	}
	return &f, true
}
