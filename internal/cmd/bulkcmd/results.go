package bulkcmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/shopify-cli/internal/cmd/root"
	clierrors "github.com/open-cli-collective/shopify-cli/internal/errors"
)

func newResultsCommand(opts *root.Options) *cobra.Command {
	var (
		partial     bool
		resultsFile string
	)

	cmd := &cobra.Command{
		Use:   "results <id>",
		Short: "Download the results of a bulk operation",
		Long: `Download the JSONL results of a completed bulk operation.

With --partial the data a failed or canceled operation produced before it
stopped is downloaded instead.

Examples:
  shopctl bulk results gid://shopify/BulkOperation/123
  shopctl bulk results gid://shopify/BulkOperation/123 --results-file out.jsonl
  shopctl bulk results gid://shopify/BulkOperation/123 --partial`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResults(cmd.Context(), opts, args[0], partial, resultsFile)
		},
	}

	cmd.Flags().BoolVar(&partial, "partial", false, "Download partial data of a failed or canceled operation")
	cmd.Flags().StringVar(&resultsFile, "results-file", "", "Write results to a file instead of stdout")

	return cmd
}

func runResults(ctx context.Context, opts *root.Options, id string, partial bool, resultsFile string) error {
	client, err := opts.BulkClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create bulk client: %w", err)
	}

	op, err := client.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get bulk operation: %w", err)
	}

	var records []json.RawMessage
	if partial {
		records, err = client.PartialResults(ctx, op)
	} else {
		records, err = client.Results(ctx, op)
	}
	if clierrors.IsNotFound(err) || clierrors.IsForbidden(err) {
		return fmt.Errorf("result file of %s is no longer available (result links expire a week after completion): %w", id, err)
	}
	if err != nil {
		return fmt.Errorf("failed to download results: %w", err)
	}

	return writeResults(opts.View(), records, resultsFile)
}
