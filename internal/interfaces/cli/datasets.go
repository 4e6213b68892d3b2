package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/moleculab/sarscope/pkg/errors"
	"github.com/moleculab/sarscope/pkg/types/common"
	compoundtypes "github.com/moleculab/sarscope/pkg/types/compound"
)

// apiClient is a minimal client for a running API server, used by the
// datasets subcommands.
type apiClient struct {
	base string
	hc   *http.Client
}

func newAPIClient(base string) *apiClient {
	return &apiClient{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// apiGet fetches one envelope-wrapped resource.  Server-side errors are
// surfaced under their original error code.
func apiGet[T any](ctx context.Context, c *apiClient, path string) (*common.APIResponse[T], error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, apperrors.Internal("building api request").WithCause(err)
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeSourceUnavailable, "api server unreachable").
			WithDetail(c.base).WithCause(err)
	}
	defer res.Body.Close()

	var out common.APIResponse[T]
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, apperrors.New(apperrors.ErrCodeSourceParseError, "decoding api response").WithCause(err)
	}
	if out.Error != nil {
		return nil, apperrors.New(apperrors.ErrorCode(out.Error.Code), out.Error.Message).
			WithDetail(out.Error.Detail)
	}
	if !out.Success {
		return nil, apperrors.Internal(fmt.Sprintf("api server returned status %d", res.StatusCode))
	}
	return &out, nil
}

func (c *apiClient) deleteDataset(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.base+"/api/v1/datasets/"+id, nil)
	if err != nil {
		return apperrors.Internal("building api request").WithCause(err)
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return apperrors.New(apperrors.ErrCodeSourceUnavailable, "api server unreachable").
			WithDetail(c.base).WithCause(err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNoContent {
		return nil
	}
	var out common.APIResponse[any]
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return apperrors.New(apperrors.ErrCodeSourceParseError, "decoding api response").WithCause(err)
	}
	if out.Error != nil {
		return apperrors.New(apperrors.ErrorCode(out.Error.Code), out.Error.Message).
			WithDetail(out.Error.Detail)
	}
	return apperrors.Internal(fmt.Sprintf("api server returned status %d", res.StatusCode))
}

// datasetList wraps a dataset listing for tabular output.
type datasetList struct {
	Server   string                     `json:"server"`
	Total    int64                      `json:"total"`
	Datasets []compoundtypes.DatasetDTO `json:"datasets"`
}

func (l *datasetList) TableHeaders() []string {
	return []string{"id", "name", "source", "compounds", "targets", "excluded", "created"}
}

func (l *datasetList) TableRows() [][]string {
	rows := make([][]string, 0, len(l.Datasets))
	for _, d := range l.Datasets {
		rows = append(rows, []string{
			string(d.ID),
			d.Name,
			string(d.Source),
			strconv.Itoa(d.CompoundCount),
			strconv.Itoa(d.TargetCount),
			strconv.Itoa(d.LoadReport.RowsExcluded),
			d.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	return rows
}

func newDatasetsCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "Manage datasets on a running API server",
	}
	cmd.PersistentFlags().StringVar(&server, "server", "",
		"API server base URL (default http://localhost:<configured port>)")

	cmd.AddCommand(
		newDatasetsListCmd(&server),
		newDatasetsDeleteCmd(&server),
	)
	return cmd
}

// serverBase resolves the API base URL from the flag or the configured port.
func serverBase(cliCtx *cliContext, flag string) string {
	if flag != "" {
		return flag
	}
	return fmt.Sprintf("http://localhost:%d", cliCtx.Config.Server.Port)
}

func newDatasetsListCmd(server *string) *cobra.Command {
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}

			client := newAPIClient(serverBase(cliCtx, *server))
			path := fmt.Sprintf("/api/v1/datasets?page=%d&page_size=%d", page, pageSize)
			resp, err := apiGet[[]compoundtypes.DatasetDTO](cmd.Context(), client, path)
			if err != nil {
				return err
			}

			list := &datasetList{Server: client.base, Datasets: resp.Data}
			if resp.Pagination != nil {
				list.Total = resp.Pagination.Total
			}
			return printResult(cmd, cliCtx.Output, list)
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "datasets per page")
	return cmd
}

func newDatasetsDeleteCmd(server *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <dataset_id>",
		Short: "Delete a dataset and everything derived from it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}

			client := newAPIClient(serverBase(cliCtx, *server))
			if err := client.deleteDataset(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted dataset %s\n", args[0])
			return nil
		},
	}
	return cmd
}
