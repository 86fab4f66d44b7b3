// Package versionscmd provides the api-versions command.
package versionscmd

import (
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/shopify-cli/api"
	"github.com/open-cli-collective/shopify-cli/internal/cmd/root"
	"github.com/open-cli-collective/shopify-cli/internal/view"
)

// now is replaced in tests.
var now = time.Now

// Register registers the api-versions command with the root command.
func Register(parent *cobra.Command, opts *root.Options) {
	parent.AddCommand(NewCommand(opts))
}

// NewCommand creates the api-versions command.
func NewCommand(opts *root.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "api-versions",
		Short: "List supported Admin API versions",
		Long: `List the stable Admin API versions that are currently supported.

A stable version is released every quarter and supported for twelve months.
Calls pinned to an unsupported version are sent to unstable instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersions(opts)
		},
	}
}

type versionInfo struct {
	Version     api.Version `json:"version"`
	Released    string      `json:"released"`
	SupportEnds string      `json:"supportEnds"`
	Default     bool        `json:"default"`
}

func runVersions(opts *root.Options) error {
	versions := lo.Map(api.SupportedVersions(now()), func(v api.Version, _ int) versionInfo {
		return versionInfo{
			Version:     v,
			Released:    v.ReleasedAt().Format("2006-01-02"),
			SupportEnds: v.SupportEndsAt().Format("2006-01-02"),
			Default:     v == api.DefaultAPIVersion,
		}
	})

	v := opts.View()
	if v.Format == view.FormatJSON {
		return v.JSON(versions)
	}

	rows := lo.Map(versions, func(info versionInfo, _ int) []string {
		mark := ""
		if info.Default {
			mark = "*"
		}
		return []string{string(info.Version), info.Released, info.SupportEnds, mark}
	})
	return v.Table([]string{"VERSION", "RELEASED", "SUPPORT ENDS", "DEFAULT"}, rows)
}
