package bulkcmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/shopify-cli/internal/cmd/root"
	"github.com/open-cli-collective/shopify-cli/internal/view"
)

func newCancelCommand(opts *root.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a running bulk operation",
		Long: `Request cancellation of a running bulk operation.

Cancellation is asynchronous: the operation moves to CANCELING and then
CANCELED. Use 'shopctl bulk wait' to block until it has stopped.

Examples:
  shopctl bulk cancel gid://shopify/BulkOperation/123`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCancel(cmd.Context(), opts, args[0])
		},
	}
}

func runCancel(ctx context.Context, opts *root.Options, id string) error {
	client, err := opts.BulkClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create bulk client: %w", err)
	}

	op, err := client.Cancel(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to cancel bulk operation: %w", err)
	}

	v := opts.View()
	if v.Format == view.FormatJSON {
		return v.JSON(op)
	}
	v.Success("Cancellation requested for %s (status %s)", op.ID, op.Status)
	return nil
}
