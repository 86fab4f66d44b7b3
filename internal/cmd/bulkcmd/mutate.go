package bulkcmd

import (
	"bytes"
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/shopify-cli/api/bulk"
	"github.com/open-cli-collective/shopify-cli/internal/cmd/root"
)

type mutateOptions struct {
	file             string
	input            string
	clientIdentifier string
	wait             bool
	resultsFile      string
	waitFlags
}

func newMutateCommand(opts *root.Options) *cobra.Command {
	var mo mutateOptions

	cmd := &cobra.Command{
		Use:   "mutate [<graphql>]",
		Short: "Submit a bulk mutation",
		Long: `Submit a bulk mutation that runs once per line of a variables file.

The variables are read from --input ("-" reads stdin) either as JSON lines
or as a JSON array of objects. They are uploaded to a staged target before
the operation is started.

Examples:
  shopctl bulk mutate --file productCreate.graphql --input products.jsonl
  shopctl bulk mutate 'mutation call($input: ProductInput!) { productCreate(input: $input) { product { id } } }' --input products.json --wait`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mutation, err := documentFrom(opts, args, mo.file, "mutation")
			if err != nil {
				return err
			}
			return runMutate(cmd.Context(), opts, mutation, mo)
		},
	}

	cmd.Flags().StringVarP(&mo.file, "file", "f", "", "Read the mutation from a file")
	cmd.Flags().StringVarP(&mo.input, "input", "i", "", "Variables file: JSON lines or a JSON array (required)")
	cmd.Flags().StringVar(&mo.clientIdentifier, "client-identifier", "", "Tag the operation with a caller-chosen identifier")
	cmd.Flags().BoolVarP(&mo.wait, "wait", "w", false, "Wait for the operation and download its results")
	cmd.Flags().StringVar(&mo.resultsFile, "results-file", "", "Write results to a file instead of stdout (implies --wait)")
	mo.waitFlags.register(cmd)
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// loadPayload reads the variables file. A JSON array is converted to JSON
// lines; anything else is uploaded as is.
func loadPayload(opts *root.Options, path string) (bulk.Payload, error) {
	data, err := readSource(opts, path)
	if err != nil {
		return bulk.Payload{}, err
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		return bulk.JSONLFromArray(trimmed)
	}
	return bulk.BytesPayload(data), nil
}

func runMutate(ctx context.Context, opts *root.Options, mutation string, mo mutateOptions) error {
	payload, err := loadPayload(opts, mo.input)
	if err != nil {
		return fmt.Errorf("invalid variables: %w", err)
	}
	if payload.Lines() == 0 {
		return fmt.Errorf("variables file %s has no lines", mo.input)
	}

	client, err := opts.BulkClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create bulk client: %w", err)
	}

	v := opts.View()

	progress(opts, "Uploading variables (%s)...", payload)
	op, err := client.SubmitMutation(ctx, mutation, payload, bulk.MutationOptions{
		ClientIdentifier: mo.clientIdentifier,
	})
	if err != nil {
		return fmt.Errorf("failed to submit bulk mutation: %w", err)
	}

	if !mo.wait && mo.resultsFile == "" {
		return renderOperation(v, op)
	}

	progress(opts, "Bulk mutation submitted: %s", op.ID)
	return finish(ctx, opts, client, op.ID, mo.waitFlags, mo.resultsFile)
}
