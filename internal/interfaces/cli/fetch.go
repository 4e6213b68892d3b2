package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	ingestapp "github.com/moleculab/sarscope/internal/application/ingest"
	"github.com/moleculab/sarscope/internal/domain/compound"
	domaindataset "github.com/moleculab/sarscope/internal/domain/dataset"
	"github.com/moleculab/sarscope/internal/infrastructure/chembl"
	compoundtypes "github.com/moleculab/sarscope/pkg/types/compound"
)

// localIngestor adapts the ChEMBL fetch pipeline to a local CSV file instead
// of the server's database.
type localIngestor struct {
	policy compound.RuleOfFive
}

func (l *localIngestor) IngestRecords(_ context.Context, name string, records []compound.Record, report compoundtypes.LoadReport, source compoundtypes.DatasetSource) (*domaindataset.Dataset, error) {
	d := domaindataset.NewDataset(name, source, l.policy.AnnotateAll(records), report)
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func newFetchCmd() *cobra.Command {
	var (
		name    string
		targets []string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch bioactivity data from ChEMBL into a local CSV file",
		Long:  "Download IC50 activities and molecular descriptors for the given protein\ntargets from the ChEMBL web services and write them as a bioactivity CSV.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}

			policy := compound.RuleOfFive{MaxViolations: cliCtx.Config.Analysis.LipinskiMaxViolations}
			client := chembl.NewClient(cliCtx.Config.ChEMBL, cliCtx.Logger)
			service := ingestapp.NewService(client, &localIngestor{policy: policy}, nil, nil, cliCtx.Logger)

			d, err := service.Fetch(cmd.Context(), name, targets)
			if err != nil {
				return err
			}

			if err := os.WriteFile(outPath, renderCompoundCSV(d.Compounds), 0o644); err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "%d compounds across %d targets written to %s",
				d.Size(), len(d.Targets()), outPath)
			if d.Report.RowsExcluded > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), " (%d rows excluded)", d.Report.RowsExcluded)
			}
			fmt.Fprintln(cmd.ErrOrStderr())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "chembl-fetch", "dataset name")
	cmd.Flags().StringSliceVar(&targets, "target", nil, "target ChEMBL ID (repeatable) [REQUIRED]")
	cmd.Flags().StringVar(&outPath, "out", "compounds.csv", "output CSV path")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

// renderCompoundCSV serializes compounds in the canonical bioactivity schema,
// so the output can be fed back into analyze and neighbors.
func renderCompoundCSV(compounds []compound.Compound) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	_ = w.Write(domaindataset.RequiredColumns)
	for _, c := range compounds {
		_ = w.Write([]string{
			c.ChemblID,
			c.Name,
			c.Target,
			formatValue(c.IC50),
			formatValue(c.MW),
			formatValue(c.LogP),
			formatValue(c.HBD),
			formatValue(c.HBA),
			formatValue(c.PSA),
		})
	}
	w.Flush()
	return buf.Bytes()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
