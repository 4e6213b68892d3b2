package cli

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	analysisapp "github.com/moleculab/sarscope/internal/application/analysis"
	"github.com/moleculab/sarscope/internal/domain/compound"
	domaindataset "github.com/moleculab/sarscope/internal/domain/dataset"
	compoundtypes "github.com/moleculab/sarscope/pkg/types/compound"
)

// analyzeReport is the full output of the analyze command.
type analyzeReport struct {
	File          string         `json:"file"`
	RowsRead      int            `json:"rows_read"`
	RowsLoaded    int            `json:"rows_loaded"`
	RowsExcluded  int            `json:"rows_excluded"`
	Exclusions    map[string]int `json:"exclusions,omitempty"`
	CompoundCount int            `json:"compound_count"`
	TargetCount   int            `json:"target_count"`
	DrugLikeCount int            `json:"drug_like_count"`
	MeanPIC50     *float64       `json:"mean_pic50"`
	MaxPIC50      *float64       `json:"max_pic50"`
	TopCompoundID string         `json:"top_compound_id,omitempty"`
	Summary       []summaryRow   `json:"summary"`

	compounds []compound.Compound
}

type summaryRow struct {
	Field  compoundtypes.PropertyField `json:"field"`
	Count  int                         `json:"count"`
	Mean   *float64                    `json:"mean"`
	Median *float64                    `json:"median"`
	Std    *float64                    `json:"std"`
	Min    *float64                    `json:"min"`
	Max    *float64                    `json:"max"`
}

func (r *analyzeReport) TableHeaders() []string {
	return []string{"field", "count", "mean", "median", "std", "min", "max"}
}

func (r *analyzeReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Summary))
	for _, s := range r.Summary {
		rows = append(rows, []string{
			string(s.Field),
			strconv.Itoa(s.Count),
			fmtPtr(s.Mean),
			fmtPtr(s.Median),
			fmtPtr(s.Std),
			fmtPtr(s.Min),
			fmtPtr(s.Max),
		})
	}
	return rows
}

func newAnalyzeCmd() *cobra.Command {
	var (
		maxViolations int
		targets       []string
		drugLikeOnly  bool
		minPIC50      float64
		maxPIC50      float64
		exportDir     string
	)

	cmd := &cobra.Command{
		Use:   "analyze <file.csv>",
		Short: "Analyze a local bioactivity CSV file",
		Long:  "Load a compound CSV, annotate pIC50 and rule-of-five compliance, optionally\nfilter the records, and print descriptive statistics.  With --export-dir the\nsummary and correlation reports are also written as CSV files.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("max-violations") {
				maxViolations = cliCtx.Config.Analysis.LipinskiMaxViolations
			}

			filter := buildFilter(cmd, targets, drugLikeOnly, minPIC50, maxPIC50)
			report, err := runAnalyze(args[0], compound.RuleOfFive{MaxViolations: maxViolations}, filter)
			if err != nil {
				return err
			}

			if exportDir != "" {
				if err := writeExports(exportDir, report.compounds); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "reports written to %s\n", exportDir)
			}

			if cliCtx.Output == "text" {
				printAnalyzeHeader(cmd, report)
			}
			return printResult(cmd, cliCtx.Output, report)
		},
	}

	cmd.Flags().IntVar(&maxViolations, "max-violations", 0, "maximum Lipinski violations for drug-likeness")
	cmd.Flags().StringSliceVar(&targets, "target", nil, "keep only compounds for these targets")
	cmd.Flags().BoolVar(&drugLikeOnly, "drug-like", false, "keep only drug-like compounds")
	cmd.Flags().Float64Var(&minPIC50, "min-pic50", 0, "keep only compounds with pIC50 >= this value")
	cmd.Flags().Float64Var(&maxPIC50, "max-pic50", 0, "keep only compounds with pIC50 <= this value")
	cmd.Flags().StringVar(&exportDir, "export-dir", "", "directory to write summary and correlation CSV reports")

	return cmd
}

// buildFilter assembles a filter from flags; nil when no filter flag was set.
func buildFilter(cmd *cobra.Command, targets []string, drugLikeOnly bool, minPIC50, maxPIC50 float64) *domaindataset.Filter {
	f := domaindataset.Filter{Targets: targets, DrugLikeOnly: drugLikeOnly}

	var r domaindataset.Range
	if cmd.Flags().Changed("min-pic50") {
		r.Min = &minPIC50
	}
	if cmd.Flags().Changed("max-pic50") {
		r.Max = &maxPIC50
	}
	if r.Min != nil || r.Max != nil {
		f.Ranges = map[compoundtypes.PropertyField]domaindataset.Range{
			compoundtypes.FieldPIC50: r,
		}
	}

	if f.IsEmpty() {
		return nil
	}
	return &f
}

func runAnalyze(path string, policy compound.RuleOfFive, filter *domaindataset.Filter) (*analyzeReport, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	compounds, loadReport, err := domaindataset.LoadCSV(file, policy)
	if err != nil {
		return nil, err
	}

	if filter != nil {
		if err := filter.Validate(); err != nil {
			return nil, err
		}
		compounds = filter.Apply(compounds)
	}

	overview := domaindataset.Summarize(compounds)
	summaries := domaindataset.Describe(compounds)

	report := &analyzeReport{
		File:          filepath.Base(path),
		RowsRead:      loadReport.RowsRead,
		RowsLoaded:    loadReport.RowsLoaded,
		RowsExcluded:  loadReport.RowsExcluded,
		Exclusions:    loadReport.Exclusions,
		CompoundCount: overview.CompoundCount,
		TargetCount:   overview.TargetCount,
		DrugLikeCount: overview.DrugLikeCount,
		MeanPIC50:     finitePtr(overview.MeanPIC50),
		MaxPIC50:      finitePtr(overview.MaxPIC50),
		TopCompoundID: overview.TopCompoundID,
		compounds:     compounds,
	}
	for _, s := range summaries {
		report.Summary = append(report.Summary, summaryRow{
			Field:  s.Field,
			Count:  s.Count,
			Mean:   finitePtr(s.Mean),
			Median: finitePtr(s.Median),
			Std:    finitePtr(s.Std),
			Min:    finitePtr(s.Min),
			Max:    finitePtr(s.Max),
		})
	}
	return report, nil
}

func printAnalyzeHeader(cmd *cobra.Command, r *analyzeReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "File:       %s\n", r.File)
	fmt.Fprintf(out, "Rows:       %d read, %d loaded, %d excluded\n", r.RowsRead, r.RowsLoaded, r.RowsExcluded)
	fmt.Fprintf(out, "Compounds:  %d across %d targets (%d drug-like)\n", r.CompoundCount, r.TargetCount, r.DrugLikeCount)
	if r.MaxPIC50 != nil {
		fmt.Fprintf(out, "Top pIC50:  %.4f (%s)\n", *r.MaxPIC50, r.TopCompoundID)
	}
	fmt.Fprintln(out)
}

// writeExports writes the summary and correlation reports next to each other
// in dir, creating it when needed.
func writeExports(dir string, compounds []compound.Compound) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	summary := analysisapp.RenderSummaryCSV(domaindataset.Describe(compounds))
	if err := os.WriteFile(filepath.Join(dir, "summary_statistics.csv"), summary, 0o644); err != nil {
		return err
	}
	correlation := analysisapp.RenderCorrelationCSV(domaindataset.Correlate(compounds))
	return os.WriteFile(filepath.Join(dir, "correlation_matrix.csv"), correlation, 0o644)
}

func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func fmtPtr(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}
