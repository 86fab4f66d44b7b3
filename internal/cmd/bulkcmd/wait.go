package bulkcmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/shopify-cli/internal/cmd/root"
)

func newWaitCommand(opts *root.Options) *cobra.Command {
	var wf waitFlags

	cmd := &cobra.Command{
		Use:   "wait <id>",
		Short: "Wait for a bulk operation to finish",
		Long: `Poll a bulk operation until it finishes, then show it.

Examples:
  shopctl bulk wait gid://shopify/BulkOperation/123
  shopctl bulk wait gid://shopify/BulkOperation/123 --timeout 10m --interval 5s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWait(cmd.Context(), opts, args[0], wf)
		},
	}

	wf.register(cmd)

	return cmd
}

func runWait(ctx context.Context, opts *root.Options, id string, wf waitFlags) error {
	client, err := opts.BulkClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create bulk client: %w", err)
	}

	op, err := client.WaitFor(ctx, id, wf.pollConfig(opts))
	if err != nil {
		return fmt.Errorf("failed waiting for bulk operation: %w", err)
	}

	return renderOperation(opts.View(), op)
}
