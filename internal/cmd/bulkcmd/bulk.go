// Package bulkcmd provides commands for Shopify bulk operations.
package bulkcmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/shopify-cli/api/bulk"
	"github.com/open-cli-collective/shopify-cli/internal/cmd/root"
	"github.com/open-cli-collective/shopify-cli/internal/view"
)

// Register registers the bulk command with the root command.
func Register(parent *cobra.Command, opts *root.Options) {
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Run bulk queries and mutations",
		Long: `Bulk operation commands for exporting and importing large data sets.

A bulk query runs asynchronously on the shop and produces a JSONL file with
one object per line. A bulk mutation runs one mutation per line of a JSONL
variables file.

Examples:
  shopctl bulk query '{ products { edges { node { id title } } } }' --wait
  shopctl bulk mutate --file productCreate.graphql --input products.jsonl --wait
  shopctl bulk status
  shopctl bulk wait gid://shopify/BulkOperation/123
  shopctl bulk results gid://shopify/BulkOperation/123 --results-file out.jsonl
  shopctl bulk cancel gid://shopify/BulkOperation/123`,
	}

	cmd.AddCommand(newQueryCommand(opts))
	cmd.AddCommand(newMutateCommand(opts))
	cmd.AddCommand(newStatusCommand(opts))
	cmd.AddCommand(newWaitCommand(opts))
	cmd.AddCommand(newResultsCommand(opts))
	cmd.AddCommand(newCancelCommand(opts))

	parent.AddCommand(cmd)
}

// waitFlags are shared by every command that can block on an operation.
type waitFlags struct {
	timeout  time.Duration
	interval time.Duration
}

func (w *waitFlags) register(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&w.timeout, "timeout", 0, "Give up waiting after this long (0 waits indefinitely)")
	cmd.Flags().DurationVar(&w.interval, "interval", 0, "Pause between status checks (default: poll_interval from config)")
}

func (w *waitFlags) pollConfig(opts *root.Options) bulk.PollConfig {
	cfg := opts.PollConfig(w.timeout)
	if w.interval > 0 {
		cfg.Interval = w.interval
	}
	return cfg
}

func progress(opts *root.Options, format string, args ...any) {
	_, _ = fmt.Fprintf(opts.Stderr, format+"\n", args...)
}

func renderOperation(v *view.View, op *bulk.Operation) error {
	if v.Format == view.FormatJSON {
		return v.JSON(op)
	}

	pairs := [][2]string{
		{"ID", op.ID},
		{"Type", string(op.Type)},
		{"Status", string(op.Status)},
		{"Objects", strconv.FormatUint(uint64(op.ObjectCount), 10)},
		{"Root Objects", strconv.FormatUint(uint64(op.RootObjectCount), 10)},
		{"Created", op.CreatedAt.Format(time.RFC3339)},
	}
	if op.CompletedAt != nil {
		pairs = append(pairs, [2]string{"Completed", op.CompletedAt.Format(time.RFC3339)})
	}
	if op.ErrorCode != "" {
		pairs = append(pairs, [2]string{"Error Code", string(op.ErrorCode)})
	}
	if op.FileSize > 0 {
		pairs = append(pairs, [2]string{"File Size", strconv.FormatUint(uint64(op.FileSize), 10)})
	}
	if op.URL != "" {
		pairs = append(pairs, [2]string{"URL", op.URL})
	}
	if op.PartialDataURL != "" {
		pairs = append(pairs, [2]string{"Partial Data URL", op.PartialDataURL})
	}
	return v.KeyValues(pairs)
}

// writeResults writes downloaded records as JSON lines to path, or to stdout
// when path is empty.
func writeResults(v *view.View, records []json.RawMessage, path string) error {
	if path == "" {
		return v.JSONLines(records)
	}

	var buf bytes.Buffer
	for _, rec := range records {
		buf.Write(rec)
		buf.WriteByte('\n')
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	v.Success("%d record(s) written to %s", len(records), path)
	return nil
}

// readSource returns the contents of a file argument; "-" reads stdin.
func readSource(opts *root.Options, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(opts.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
