package cli

import (
	"github.com/spf13/cobra"

	ingestapp "github.com/moleculab/sarscope/internal/application/ingest"
	"github.com/moleculab/sarscope/internal/infrastructure/chembl"
)

// targetList wraps target search results for tabular output.
type targetList struct {
	Query   string          `json:"query"`
	Targets []chembl.Target `json:"targets"`
}

func (l *targetList) TableHeaders() []string {
	return []string{"chembl_id", "name", "organism", "type"}
}

func (l *targetList) TableRows() [][]string {
	rows := make([][]string, 0, len(l.Targets))
	for _, t := range l.Targets {
		rows = append(rows, []string{t.ChemblID, t.PrefName, t.Organism, t.TargetType})
	}
	return rows
}

func newTargetsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "targets <query>",
		Short: "Search ChEMBL protein targets by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}

			client := chembl.NewClient(cliCtx.Config.ChEMBL, cliCtx.Logger)
			service := ingestapp.NewService(client, nil, nil, nil, cliCtx.Logger)

			targets, err := service.SearchTargets(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			return printResult(cmd, cliCtx.Output, &targetList{Query: args[0], Targets: targets})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of targets to return")
	return cmd
}
