package bulkcmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/shopify-cli/api/bulk"
	"github.com/open-cli-collective/shopify-cli/internal/cmd/root"
)

func newStatusCommand(opts *root.Options) *cobra.Command {
	var opType string

	cmd := &cobra.Command{
		Use:   "status [<id>]",
		Short: "Show a bulk operation",
		Long: `Show the status of a bulk operation.

Without an id the shop's current (most recent) operation of --type is shown.

Examples:
  shopctl bulk status gid://shopify/BulkOperation/123
  shopctl bulk status
  shopctl bulk status --type mutation -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runStatus(cmd.Context(), opts, id, opType)
		},
	}

	cmd.Flags().StringVarP(&opType, "type", "t", "query", "Operation type for the current operation: query, mutation")

	return cmd
}

func parseType(s string) (bulk.Type, error) {
	switch t := bulk.Type(strings.ToUpper(s)); t {
	case bulk.TypeQuery, bulk.TypeMutation:
		return t, nil
	}
	return "", fmt.Errorf("invalid operation type %q (valid types: query, mutation)", s)
}

func runStatus(ctx context.Context, opts *root.Options, id, opType string) error {
	t, err := parseType(opType)
	if err != nil {
		return err
	}

	client, err := opts.BulkClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create bulk client: %w", err)
	}

	var op *bulk.Operation
	if id == "" {
		op, err = client.Current(ctx, t)
	} else {
		op, err = client.Get(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("failed to get bulk operation: %w", err)
	}

	return renderOperation(opts.View(), op)
}
