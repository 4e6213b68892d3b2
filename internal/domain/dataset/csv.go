package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/moleculab/sarscope/internal/domain/compound"
	apperrors "github.com/moleculab/sarscope/pkg/errors"
	compoundtypes "github.com/moleculab/sarscope/pkg/types/compound"
)

// RequiredColumns is the exact set of columns a bioactivity CSV must carry.
// Column order is free and extra columns are ignored.
var RequiredColumns = []string{
	"chembl_id", "name", "target", "ic50", "mw", "logp", "hbd", "hba", "psa",
}

// Exclusion reason keys reported in LoadReport.Exclusions.
const (
	ExclusionBadFieldCount = "bad_field_count"
	ExclusionNonNumeric    = "non_numeric_value"
	ExclusionInvalidRecord = "invalid_record"
)

// LoadCSV parses a bioactivity CSV stream, annotates every structurally valid
// row under the given policy and reports what was excluded.
//
// The header must contain every required column (case-insensitive, extras
// ignored); a missing column fails the whole load with the missing names.
// Individual malformed rows never fail the load: they are dropped and
// counted per reason in the returned LoadReport.
func LoadCSV(r io.Reader, policy compound.RuleOfFive) ([]compound.Compound, compoundtypes.LoadReport, error) {
	var report compoundtypes.LoadReport

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // row width is validated per row
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, report, apperrors.New(apperrors.ErrCodeDatasetSchemaInvalid, "csv stream is empty")
	}
	if err != nil {
		return nil, report, apperrors.Wrap(err, apperrors.ErrCodeDatasetSchemaInvalid, "reading csv header")
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, report, err
	}

	exclude := func(reason string) {
		report.RowsExcluded++
		if report.Exclusions == nil {
			report.Exclusions = make(map[string]int)
		}
		report.Exclusions[reason]++
	}

	var compounds []compound.Compound
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// csv.Reader only errors per row on quoting problems here.
			report.RowsRead++
			exclude(ExclusionBadFieldCount)
			continue
		}
		report.RowsRead++

		rec, ok := parseRow(row, cols, exclude)
		if !ok {
			continue
		}
		if err := rec.Validate(); err != nil {
			exclude(ExclusionInvalidRecord)
			continue
		}

		compounds = append(compounds, policy.Annotate(rec))
		report.RowsLoaded++
	}

	return compounds, report, nil
}

// columnIndex maps each required column name to its position in the header.
type columnIndex map[string]int

func mapColumns(header []string) (columnIndex, error) {
	idx := make(columnIndex, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, apperrors.New(apperrors.ErrCodeDatasetSchemaInvalid,
			fmt.Sprintf("csv is missing required columns: %s", strings.Join(missing, ", ")))
	}
	return idx, nil
}

func parseRow(row []string, cols columnIndex, exclude func(string)) (compound.Record, bool) {
	get := func(col string) (string, bool) {
		i := cols[col]
		if i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}

	var rec compound.Record
	for _, col := range RequiredColumns {
		raw, ok := get(col)
		if !ok {
			exclude(ExclusionBadFieldCount)
			return compound.Record{}, false
		}

		switch col {
		case "chembl_id":
			rec.ChemblID = raw
		case "name":
			rec.Name = raw
		case "target":
			rec.Target = raw
		default:
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				exclude(ExclusionNonNumeric)
				return compound.Record{}, false
			}
			switch col {
			case "ic50":
				rec.IC50 = v
			case "mw":
				rec.MW = v
			case "logp":
				rec.LogP = v
			case "hbd":
				rec.HBD = v
			case "hba":
				rec.HBA = v
			case "psa":
				rec.PSA = v
			}
		}
	}
	return rec, true
}
