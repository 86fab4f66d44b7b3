package bulkcmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/shopify-cli/api/bulk"
	"github.com/open-cli-collective/shopify-cli/internal/cmd/root"
)

type queryOptions struct {
	file        string
	wait        bool
	resultsFile string
	waitFlags
}

func newQueryCommand(opts *root.Options) *cobra.Command {
	var qo queryOptions

	cmd := &cobra.Command{
		Use:   "query [<graphql>]",
		Short: "Submit a bulk query",
		Long: `Submit a bulk query and optionally wait for its results.

The query is passed as an argument or read from --file ("-" reads stdin).
With --wait the command blocks until the operation finishes and writes its
JSONL results to stdout or --results-file.

Examples:
  shopctl bulk query '{ products { edges { node { id title } } } }'
  shopctl bulk query --file products.graphql --wait --results-file products.jsonl
  cat orders.graphql | shopctl bulk query --file - --wait --timeout 30m`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := documentFrom(opts, args, qo.file, "query")
			if err != nil {
				return err
			}
			return runQuery(cmd.Context(), opts, query, qo)
		},
	}

	cmd.Flags().StringVarP(&qo.file, "file", "f", "", "Read the query from a file")
	cmd.Flags().BoolVarP(&qo.wait, "wait", "w", false, "Wait for the operation and download its results")
	cmd.Flags().StringVar(&qo.resultsFile, "results-file", "", "Write results to a file instead of stdout (implies --wait)")
	qo.waitFlags.register(cmd)

	return cmd
}

func runQuery(ctx context.Context, opts *root.Options, query string, qo queryOptions) error {
	client, err := opts.BulkClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create bulk client: %w", err)
	}

	v := opts.View()

	op, err := client.SubmitQuery(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to submit bulk query: %w", err)
	}

	if !qo.wait && qo.resultsFile == "" {
		return renderOperation(v, op)
	}

	progress(opts, "Bulk query submitted: %s", op.ID)
	return finish(ctx, opts, client, op.ID, qo.waitFlags, qo.resultsFile)
}

// finish waits for the operation and writes the results of a completed one.
func finish(ctx context.Context, opts *root.Options, client *bulk.Client, id string, wf waitFlags, resultsFile string) error {
	v := opts.View()

	progress(opts, "Waiting for bulk operation to finish...")
	op, err := client.WaitFor(ctx, id, wf.pollConfig(opts))
	if err != nil {
		return fmt.Errorf("failed waiting for bulk operation: %w", err)
	}

	if op.Status != bulk.StatusCompleted {
		if op.ErrorCode != "" {
			return fmt.Errorf("bulk operation %s finished with status %s (%s)", op.ID, op.Status, op.ErrorCode)
		}
		return fmt.Errorf("bulk operation %s finished with status %s", op.ID, op.Status)
	}
	progress(opts, "Bulk operation completed: %d object(s)", op.ObjectCount)

	if op.URL == "" {
		v.Warning("No results: the operation matched no objects")
		return nil
	}

	records, err := client.Results(ctx, op)
	if err != nil {
		return fmt.Errorf("failed to download results: %w", err)
	}
	return writeResults(v, records, resultsFile)
}

// documentFrom returns the GraphQL document from the positional argument or
// from file, requiring exactly one of them.
func documentFrom(opts *root.Options, args []string, file, what string) (string, error) {
	switch {
	case len(args) == 1 && file != "":
		return "", fmt.Errorf("pass the %s as an argument or with --file, not both", what)
	case len(args) == 1:
		return args[0], nil
	case file != "":
		data, err := readSource(opts, file)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(string(data)) == "" {
			return "", fmt.Errorf("%s file %s is empty", what, file)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("a %s is required: pass it as an argument or with --file", what)
	}
}
