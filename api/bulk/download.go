package bulk

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/open-cli-collective/shopify-cli/api"
)

// Download fetches a JSONL result file and parses every non-blank line as a
// JSON document. A single malformed line fails the whole call. The download
// is retried like any other remote call.
func (c *Client) Download(ctx context.Context, url string) ([]json.RawMessage, error) {
	return api.Retry[string, []json.RawMessage](ctx, c.api.MaxAttempts(),
		api.OperationFunc[string, []json.RawMessage](c.download), url)
}

func (c *Client) download(ctx context.Context, url string) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &api.Error{Kind: api.KindConnectionFailed, Message: "failed to create download request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &api.Error{Kind: api.KindConnectionFailed, Message: "download failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &api.Error{
			Kind:       api.KindOther,
			Message:    "result download rejected",
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body), 200),
		}
	}

	records, err := readJSONL(resp.Body)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			apiErr.StatusCode = resp.StatusCode
		}
		return nil, err
	}

	c.logger.Debug("downloaded bulk results",
		zap.Int("status", resp.StatusCode),
		zap.Int("records", len(records)))
	return records, nil
}

// readJSONL splits r on "\n", drops blank lines and validates each remaining
// line as JSON.
func readJSONL(r io.Reader) ([]json.RawMessage, error) {
	br := bufio.NewReader(r)
	records := []json.RawMessage{}

	for lineNo := 1; ; lineNo++ {
		line, err := br.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, &api.Error{Kind: api.KindResponseBroken, Message: "failed to read result file", Err: err}
		}

		trimmed := bytes.TrimSpace(line)
		if len(trimmed) > 0 {
			if !utf8.Valid(trimmed) {
				return nil, &api.Error{Kind: api.KindResponseBroken, Message: "result file is not valid UTF-8 text"}
			}
			if !json.Valid(trimmed) {
				return nil, &api.Error{
					Kind:    api.KindNotJSON,
					Message: "invalid JSON on line " + strconv.Itoa(lineNo),
					Body:    truncate(string(trimmed), 200),
				}
			}
			records = append(records, json.RawMessage(bytes.Clone(trimmed)))
		}

		if errors.Is(err, io.EOF) {
			return records, nil
		}
	}
}

// Results downloads the result file of a completed operation.
func (c *Client) Results(ctx context.Context, op *Operation) ([]json.RawMessage, error) {
	if op.Status != StatusCompleted {
		return nil, api.Other("bulk operation not completed (status %s)", op.Status)
	}
	if op.URL == "" {
		return nil, api.Other("empty result set")
	}
	return c.Download(ctx, op.URL)
}

// PartialResults downloads whatever a failed or canceled operation produced
// before stopping.
func (c *Client) PartialResults(ctx context.Context, op *Operation) ([]json.RawMessage, error) {
	if op.PartialDataURL == "" {
		return nil, api.Other("no partial results for bulk operation %s", op.ID)
	}
	return c.Download(ctx, op.PartialDataURL)
}

// DecodeRecords decodes downloaded records into T.
func DecodeRecords[T any](records []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(records))
	for i, rec := range records {
		var v T
		if err := json.Unmarshal(rec, &v); err != nil {
			return nil, &api.Error{Kind: api.KindNotWantedJSONFormat, Message: "record " + strconv.Itoa(i+1), Err: err}
		}
		out = append(out, v)
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
