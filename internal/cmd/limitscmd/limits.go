// Package limitscmd provides the limits command for viewing the shop's query cost budget.
package limitscmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/shopify-cli/api"
	"github.com/open-cli-collective/shopify-cli/internal/cmd/root"
	"github.com/open-cli-collective/shopify-cli/internal/view"
)

// Register registers the limits command with the root command.
func Register(parent *cobra.Command, opts *root.Options) {
	parent.AddCommand(NewCommand(opts))
}

// NewCommand creates the limits command.
func NewCommand(opts *root.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "limits",
		Short: "Display the GraphQL query cost budget",
		Long: `Display the shop's GraphQL throttle status: the size of the query cost
bucket, how much of it is available and how fast it refills.

Calls that exceed the available budget fail as throttled and are retried.

Examples:
  shopctl limits
  shopctl limits -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLimits(cmd.Context(), opts)
		},
	}
}

func runLimits(ctx context.Context, opts *root.Options) error {
	client, err := opts.APIClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	cost, err := client.GetQueryCost(ctx)
	if err != nil {
		return fmt.Errorf("failed to get limits: %w", err)
	}

	return renderLimits(opts, cost.ThrottleStatus)
}

func renderLimits(opts *root.Options, status api.ThrottleStatus) error {
	v := opts.View()

	used := status.MaximumAvailable - status.CurrentlyAvailable
	pct := float64(0)
	if status.MaximumAvailable > 0 {
		pct = used / status.MaximumAvailable * 100
	}

	if v.Format == view.FormatJSON {
		return v.JSON(map[string]any{
			"max":         status.MaximumAvailable,
			"available":   status.CurrentlyAvailable,
			"used":        used,
			"restoreRate": status.RestoreRate,
		})
	}

	headers := []string{"Limit", "Max", "Available", "Used", "Usage %", "Restore Rate"}
	rows := [][]string{{
		"Query cost",
		formatPoints(status.MaximumAvailable),
		formatPoints(status.CurrentlyAvailable),
		formatPoints(used),
		fmt.Sprintf("%.1f%%", pct),
		formatPoints(status.RestoreRate) + "/s",
	}}

	return v.Table(headers, rows)
}

func formatPoints(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
