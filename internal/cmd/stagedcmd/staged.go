// Package stagedcmd provides commands for staged uploads.
package stagedcmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/shopify-cli/api/staged"
	"github.com/open-cli-collective/shopify-cli/internal/cmd/root"
	"github.com/open-cli-collective/shopify-cli/internal/view"
)

var resources = []staged.Resource{
	staged.ResourceBulkMutationVariables,
	staged.ResourceCollectionImage,
	staged.ResourceFile,
	staged.ResourceImage,
	staged.ResourceModel3D,
	staged.ResourceProductImage,
	staged.ResourceReturnLabel,
	staged.ResourceShopImage,
	staged.ResourceURLRedirectImport,
	staged.ResourceVideo,
}

// Register registers the staged command with the root command.
func Register(parent *cobra.Command, opts *root.Options) {
	cmd := &cobra.Command{
		Use:   "staged",
		Short: "Upload files to staged targets",
		Long: `Staged upload commands.

A staged upload reserves a one-time upload target on the platform and sends a
local file to it. The printed staged path is passed to later mutations, for
example as fileCreate's originalSource.`,
	}

	cmd.AddCommand(newUploadCommand(opts))

	parent.AddCommand(cmd)
}

func newUploadCommand(opts *root.Options) *cobra.Command {
	var (
		resource string
		mimeType string
	)

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Stage and upload a file",
		Long: `Create a staged upload target for a local file and upload it.

The MIME type is detected from the file content unless --mime-type is set.

Examples:
  shopctl staged upload banner.png --resource image
  shopctl staged upload redirects.csv --resource url_redirect_import
  shopctl staged upload manual.pdf -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := parseResource(resource)
			if err != nil {
				return err
			}
			return runUpload(cmd.Context(), opts, args[0], res, mimeType)
		},
	}

	cmd.Flags().StringVarP(&resource, "resource", "r", "file", "Resource type of the upload")
	cmd.Flags().StringVar(&mimeType, "mime-type", "", "MIME type of the file (detected when unset)")

	return cmd
}

func parseResource(s string) (staged.Resource, error) {
	r := staged.Resource(strings.ToUpper(strings.ReplaceAll(s, "-", "_")))
	if lo.Contains(resources, r) {
		return r, nil
	}
	names := lo.Map(resources, func(r staged.Resource, _ int) string { return strings.ToLower(string(r)) })
	return "", fmt.Errorf("invalid resource %q (valid resources: %s)", s, strings.Join(names, ", "))
}

func runUpload(ctx context.Context, opts *root.Options, path string, resource staged.Resource, mimeType string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if mimeType == "" {
		mimeType = mimetype.Detect(content).String()
	}
	name := filepath.Base(path)

	client, err := opts.StagedClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create staged upload client: %w", err)
	}

	target, err := client.CreateTarget(ctx, staged.Input{
		Resource:   resource,
		Filename:   name,
		MimeType:   mimeType,
		HTTPMethod: staged.HTTPMethodPost,
		FileSize:   int64(len(content)),
	})
	if err != nil {
		return fmt.Errorf("failed to create staged target: %w", err)
	}

	if err := client.Upload(ctx, *target, staged.File{Name: name, MimeType: mimeType, Content: content}); err != nil {
		return fmt.Errorf("failed to upload %s: %w", name, err)
	}

	v := opts.View()
	if v.Format == view.FormatJSON {
		return v.JSON(map[string]any{
			"file":        name,
			"mimeType":    mimeType,
			"size":        len(content),
			"stagedPath":  target.StagedPath(),
			"resourceUrl": target.ResourceURL,
		})
	}
	if v.Format == view.FormatPlain {
		v.Info("%s", target.StagedPath())
		return nil
	}
	v.Success("Uploaded %s (%s, %d bytes)", name, mimeType, len(content))
	v.Info("Staged path: %s", target.StagedPath())
	return nil
}
