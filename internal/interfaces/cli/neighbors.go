package cli

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/moleculab/sarscope/internal/domain/compound"
	domaindataset "github.com/moleculab/sarscope/internal/domain/dataset"
)

// neighborList wraps neighbor results for tabular output.
type neighborList struct {
	Query     string                   `json:"query"`
	Neighbors []domaindataset.Neighbor `json:"neighbors"`
}

func (l *neighborList) TableHeaders() []string {
	return []string{"chembl_id", "name", "target", "distance"}
}

func (l *neighborList) TableRows() [][]string {
	rows := make([][]string, 0, len(l.Neighbors))
	for _, n := range l.Neighbors {
		rows = append(rows, []string{
			n.ChemblID,
			n.Name,
			n.Target,
			strconv.FormatFloat(n.Distance, 'f', 4, 64),
		})
	}
	return rows
}

func newNeighborsCmd() *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:   "neighbors <file.csv> <chembl_id>",
		Short: "Find the structurally closest compounds in a CSV file",
		Long:  "Rank compounds by Euclidean distance in standardized descriptor space\n(MW, LogP, HBD, HBA, PSA) relative to the query compound.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("k") {
				k = cliCtx.Config.Analysis.NeighborDefaultK
			}

			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			policy := compound.RuleOfFive{MaxViolations: cliCtx.Config.Analysis.LipinskiMaxViolations}
			compounds, _, err := domaindataset.LoadCSV(file, policy)
			if err != nil {
				return err
			}

			neighbors, err := domaindataset.Neighbors(compounds, args[1], k)
			if err != nil {
				return err
			}
			return printResult(cmd, cliCtx.Output, &neighborList{Query: args[1], Neighbors: neighbors})
		},
	}

	cmd.Flags().IntVarP(&k, "k", "k", 0, "number of neighbors to return (default from config)")
	return cmd
}
