package bulk

import (
	"context"
	"fmt"
	"time"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"go.uber.org/zap"

	"github.com/open-cli-collective/shopify-cli/api"
	"github.com/open-cli-collective/shopify-cli/api/staged"
)

const operationFields = `
  id
  status
  type
  errorCode
  url
  partialDataUrl
  query
  createdAt
  completedAt
  objectCount
  rootObjectCount
  fileSize`

var (
	nodeQuery = `query bulkOperation($id: ID!) {
  node(id: $id) {
    ... on BulkOperation {` + operationFields + `
    }
  }
}`

	currentQuery = `query currentBulkOperation($type: BulkOperationType!) {
  currentBulkOperation(type: $type) {` + operationFields + `
  }
}`

	runQueryMutation = `mutation bulkOperationRunQuery($query: String!) {
  bulkOperationRunQuery(query: $query) {
    bulkOperation {` + operationFields + `
    }
    userErrors {
      field
      message
    }
  }
}`

	runMutationMutation = `mutation bulkOperationRunMutation($mutation: String!, $stagedUploadPath: String!, $clientIdentifier: String) {
  bulkOperationRunMutation(mutation: $mutation, stagedUploadPath: $stagedUploadPath, clientIdentifier: $clientIdentifier) {
    bulkOperation {` + operationFields + `
    }
    userErrors {
      field
      message
    }
  }
}`

	cancelMutation = `mutation bulkOperationCancel($id: ID!) {
  bulkOperationCancel(id: $id) {
    bulkOperation {` + operationFields + `
    }
    userErrors {
      field
      message
    }
  }
}`
)

// Staged upload settings for bulk mutation variables.
const (
	VariablesFilename = "bulk_op_vars.jsonl"
	VariablesMimeType = "text/jsonl"
)

// validateDocument parses doc and checks that it holds an operation of the
// wanted kind.
func validateDocument(doc string, want ast.Operation, what string) error {
	parsed, err := parser.ParseQuery(&ast.Source{Input: doc})
	if err != nil {
		return api.Other("invalid bulk %s: %s", what, err)
	}
	if len(parsed.Operations) == 0 {
		return api.Other("invalid bulk %s: no operation", what)
	}
	for _, op := range parsed.Operations {
		if op.Operation != want {
			return api.Other("invalid bulk %s: expected a %s operation, got %s", what, want, op.Operation)
		}
	}
	return nil
}

func (c *Client) run(ctx context.Context, document string, variables map[string]any, field string) (*Operation, error) {
	payload, err := api.Execute[runPayload](ctx, c.api, document, variables,
		api.Path{api.Key("data"), api.Key(field)})
	if err != nil {
		return nil, err
	}
	if len(payload.UserErrors) > 0 {
		return nil, payload.UserErrors
	}
	if payload.BulkOperation == nil {
		return nil, &api.Error{Kind: api.KindNotWantedJSONFormat, Message: field + " returned no bulk operation"}
	}
	return payload.BulkOperation, nil
}

// SubmitQuery starts a bulk query. The query is syntax checked locally before
// anything is sent. User errors are returned as api.UserErrors.
func (c *Client) SubmitQuery(ctx context.Context, query string) (*Operation, error) {
	if err := validateDocument(query, ast.Query, "query"); err != nil {
		return nil, err
	}

	op, err := c.run(ctx, runQueryMutation, map[string]any{"query": query}, "bulkOperationRunQuery")
	if err != nil {
		return nil, err
	}
	c.logger.Debug("bulk query submitted", zap.String("id", op.ID), zap.String("status", string(op.Status)))
	return op, nil
}

// SubmitMutation starts a bulk mutation. It stages the payload as the
// mutation's variables file, uploads it and runs mutation against it. When
// staging or uploading fails no operation is created.
func (c *Client) SubmitMutation(ctx context.Context, mutation string, payload Payload, opts MutationOptions) (*Operation, error) {
	if err := validateDocument(mutation, ast.Mutation, "mutation"); err != nil {
		return nil, err
	}

	content := payload.Bytes()
	target, err := c.staged.CreateTarget(ctx, staged.Input{
		Resource:   staged.ResourceBulkMutationVariables,
		Filename:   VariablesFilename,
		MimeType:   VariablesMimeType,
		HTTPMethod: staged.HTTPMethodPost,
		FileSize:   int64(len(content)),
	})
	if err != nil {
		return nil, err
	}

	if err := c.staged.Upload(ctx, *target, staged.File{
		Name:     VariablesFilename,
		MimeType: VariablesMimeType,
		Content:  content,
	}); err != nil {
		return nil, err
	}

	vars := map[string]any{
		"mutation":         mutation,
		"stagedUploadPath": target.StagedPath(),
	}
	if opts.ClientIdentifier != "" {
		vars["clientIdentifier"] = opts.ClientIdentifier
	}

	op, err := c.run(ctx, runMutationMutation, vars, "bulkOperationRunMutation")
	if err != nil {
		return nil, err
	}
	c.logger.Debug("bulk mutation submitted",
		zap.String("id", op.ID),
		zap.String("staged_upload_path", target.StagedPath()),
		zap.Int("payload_bytes", len(content)))
	return op, nil
}

// Get fetches a bulk operation by id. An id that does not resolve to a bulk
// operation is an Other error.
func (c *Client) Get(ctx context.Context, id string) (*Operation, error) {
	op, err := api.Execute[*Operation](ctx, c.api, nodeQuery, map[string]any{"id": id},
		api.Path{api.Key("data"), api.Key("node")})
	if err != nil {
		return nil, err
	}
	if op == nil || op.ID == "" {
		return nil, api.Other("bulk operation %s not found", id)
	}
	return op, nil
}

// Current fetches the most recent bulk operation of type t, or an Other error
// when there is none.
func (c *Client) Current(ctx context.Context, t Type) (*Operation, error) {
	op, err := api.Execute[*Operation](ctx, c.api, currentQuery, map[string]any{"type": t},
		api.Path{api.Key("data"), api.Key("currentBulkOperation")})
	if err != nil {
		return nil, err
	}
	if op == nil {
		return nil, api.Other("no current bulk %s", t)
	}
	return op, nil
}

// Cancel requests cancellation of a running bulk operation.
func (c *Client) Cancel(ctx context.Context, id string) (*Operation, error) {
	return c.run(ctx, cancelMutation, map[string]any{"id": id}, "bulkOperationCancel")
}

// WaitFor polls the operation until it reaches a terminal status and returns
// it. The first fetch is immediate; CREATED and RUNNING operations are
// refetched every cfg.Interval. With a cfg.Timeout, a non-terminal operation
// seen after the deadline ends the wait.
func (c *Client) WaitFor(ctx context.Context, id string, cfg PollConfig) (*Operation, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollConfig().Interval
	}

	var deadline time.Time
	if cfg.Timeout > 0 {
		deadline = c.now().Add(cfg.Timeout)
	}
	expired := func() bool {
		return !deadline.IsZero() && c.now().After(deadline)
	}

	for {
		op, err := c.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if op.Status.IsTerminal() {
			return op, nil
		}
		if expired() {
			return nil, api.Other("timeout waiting for bulk operation %s (last status %s)", id, op.Status)
		}

		c.logger.Debug("waiting for bulk operation",
			zap.String("id", id),
			zap.String("status", string(op.Status)),
			zap.Uint64("object_count", uint64(op.ObjectCount)))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.sleep(cfg.Interval):
		}

		if expired() {
			return nil, api.Other("timeout waiting for bulk operation %s (last status %s)", id, op.Status)
		}
	}
}

// Run submits a bulk query and waits for it to finish.
func (c *Client) Run(ctx context.Context, query string, cfg PollConfig) (*Operation, error) {
	op, err := c.SubmitQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return c.WaitFor(ctx, op.ID, cfg)
}

func (o *Operation) String() string {
	return fmt.Sprintf("%s (%s)", o.ID, o.Status)
}
