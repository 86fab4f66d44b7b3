// Package graphqlcmd provides the graphql command for one-off Admin API calls.
package graphqlcmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/shopify-cli/api"
	"github.com/open-cli-collective/shopify-cli/internal/cmd/root"
	"github.com/open-cli-collective/shopify-cli/internal/view"
)

// Register registers the graphql command with the root command.
func Register(parent *cobra.Command, opts *root.Options) {
	parent.AddCommand(NewCommand(opts))
}

// NewCommand creates the graphql command.
func NewCommand(opts *root.Options) *cobra.Command {
	var (
		file      string
		variables string
		path      string
	)

	cmd := &cobra.Command{
		Use:   "graphql [<document>]",
		Short: "Execute a GraphQL query or mutation",
		Long: `Execute a GraphQL document against the Admin API and display the node at --path.

Variables are given as a JSON object, or as @file to read them from a file.
Path steps are separated by dots; numeric steps index into arrays.

Examples:
  shopctl graphql '{ shop { name currencyCode } }'
  shopctl graphql '{ products(first: 5) { nodes { id title } } }' --path data.products.nodes
  shopctl graphql --file order.graphql --variables '{"id":"gid://shopify/Order/1"}' -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			document, err := readDocument(args, file)
			if err != nil {
				return err
			}
			vars, err := parseVariables(variables)
			if err != nil {
				return err
			}
			return runGraphQL(cmd.Context(), opts, document, vars, api.ParsePath(path))
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the document from a file")
	cmd.Flags().StringVar(&variables, "variables", "", "Variables as a JSON object or @file")
	cmd.Flags().StringVarP(&path, "path", "p", "data", "Dot-separated path of the node to display")

	return cmd
}

func readDocument(args []string, file string) (string, error) {
	if len(args) == 1 && file != "" {
		return "", fmt.Errorf("pass the document as an argument or with --file, not both")
	}
	if len(args) == 1 {
		return args[0], nil
	}
	if file == "" {
		return "", fmt.Errorf("a GraphQL document is required")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", file, err)
	}
	return string(data), nil
}

func parseVariables(s string) (map[string]any, error) {
	if s == "" {
		return nil, nil
	}
	data := []byte(s)
	if name, ok := strings.CutPrefix(s, "@"); ok {
		var err error
		if data, err = os.ReadFile(name); err != nil {
			return nil, fmt.Errorf("failed to read variables: %w", err)
		}
	}
	var vars map[string]any
	if err := json.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("variables must be a JSON object: %w", err)
	}
	return vars, nil
}

func runGraphQL(ctx context.Context, opts *root.Options, document string, vars map[string]any, path api.Path) error {
	client, err := opts.APIClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	raw, err := client.Raw(ctx, document, vars, path)
	if err != nil {
		return fmt.Errorf("graphql call failed: %w", err)
	}

	return renderNode(opts.View(), raw)
}

// renderNode shows a list of objects as a table and an object as key/value
// pairs. Anything else, and JSON output, is printed as JSON.
func renderNode(v *view.View, raw json.RawMessage) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var node any
	if err := dec.Decode(&node); err != nil {
		return err
	}
	if v.Format == view.FormatJSON {
		return v.JSON(node)
	}

	switch val := node.(type) {
	case []any:
		objects := lo.FilterMap(val, func(item any, _ int) (map[string]any, bool) {
			m, ok := item.(map[string]any)
			return m, ok
		})
		if len(objects) == 0 || len(objects) != len(val) {
			return v.JSON(node)
		}
		headers := columns(objects)
		rows := lo.Map(objects, func(obj map[string]any, _ int) []string {
			return lo.Map(headers, func(h string, _ int) string { return formatValue(obj[h]) })
		})
		if err := v.Table(headers, rows); err != nil {
			return err
		}
		if v.Format == view.FormatTable {
			v.Info("\n%d row(s)", len(rows))
		}
		return nil
	case map[string]any:
		keys := lo.Keys(val)
		sort.Strings(keys)
		return v.KeyValues(lo.Map(keys, func(k string, _ int) [2]string {
			return [2]string{k, formatValue(val[k])}
		}))
	default:
		return v.JSON(node)
	}
}

// columns returns the union of keys of objects, with id first.
func columns(objects []map[string]any) []string {
	keys := lo.Uniq(lo.FlatMap(objects, func(obj map[string]any, _ int) []string { return lo.Keys(obj) }))
	sort.Strings(keys)
	if lo.Contains(keys, "id") {
		keys = append([]string{"id"}, lo.Without(keys, "id")...)
	}
	return keys
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return fmt.Sprintf("%t", val)
	case map[string]any, []any:
		data, _ := json.Marshal(val)
		return view.Truncate(string(data), 60)
	default:
		return fmt.Sprintf("%v", val)
	}
}
