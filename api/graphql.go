package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"

	"go.uber.org/zap"
)

// ThrottledCode is the extensions.code value the platform uses for rate limiting
const ThrottledCode = "THROTTLED"

// Request is one GraphQL call: the document, its variables and the path of
// the node to decode from the response.
type Request struct {
	Query     string
	Variables any
	Path      Path
}

type requestBody struct {
	Query     string `json:"query"`
	Variables any    `json:"variables"`
}

type graphqlCall[T any] struct {
	client *Client
}

// Execute runs a GraphQL query or mutation and decodes the node at path into T.
// The call is attempted up to the client's MaxAttempts times; the last error is
// returned when every attempt fails.
func Execute[T any](ctx context.Context, c *Client, query string, variables any, path Path) (T, error) {
	req := Request{Query: query, Variables: variables, Path: path}
	return retryLogged[Request, T](ctx, c.maxAttempts, graphqlCall[T]{client: c}, req, c.logger.Named("retry"))
}

// Raw runs a GraphQL call and returns the node at path as raw JSON.
func (c *Client) Raw(ctx context.Context, query string, variables any, path Path) (json.RawMessage, error) {
	return Execute[json.RawMessage](ctx, c, query, variables, path)
}

// Invoke performs a single attempt.
func (g graphqlCall[T]) Invoke(ctx context.Context, req Request) (T, error) {
	var zero T
	c := g.client
	logger := c.logger.Named("graphql")

	variables := req.Variables
	if variables == nil {
		variables = map[string]any{}
	}
	payload, err := json.Marshal(requestBody{Query: req.Query, Variables: variables})
	if err != nil {
		return zero, &Error{Kind: KindOther, Message: "failed to marshal request body", Err: err}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return zero, &Error{Kind: KindConnectionFailed, Message: "rate limiter", Err: err}
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(payload))
	if err != nil {
		return zero, &Error{Kind: KindConnectionFailed, Message: "failed to create request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(AccessTokenHeader, c.accessToken)
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return zero, &Error{Kind: KindConnectionFailed, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, &Error{Kind: KindResponseBroken, Message: "failed to read response", StatusCode: resp.StatusCode, Err: err}
	}
	if !utf8.Valid(body) {
		return zero, &Error{Kind: KindResponseBroken, Message: "response is not valid UTF-8 text", StatusCode: resp.StatusCode}
	}

	logger.Debug("graphql response",
		zap.String("url", c.graphqlURL),
		zap.Int("status", resp.StatusCode),
		zap.ByteString("request", payload),
		zap.ByteString("response", body))

	return decodeResponse[T](body, resp.StatusCode, req.Path)
}

// decodeResponse classifies a response body and decodes the node at path.
func decodeResponse[T any](body []byte, statusCode int, path Path) (T, error) {
	var zero T

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return zero, &Error{Kind: KindNotJSON, Message: "failed to parse response", StatusCode: statusCode, Body: string(body), Err: err}
	}
	if dec.More() {
		return zero, &Error{Kind: KindNotJSON, Message: "trailing data after JSON document", StatusCode: statusCode, Body: string(body)}
	}

	gqlErrors := topLevelErrors(tree)
	for _, ge := range gqlErrors {
		if ge.Code() == ThrottledCode {
			return zero, &Error{Kind: KindThrottled, Message: ge.Message, StatusCode: statusCode}
		}
	}

	node, err := Extract(tree, path)
	if err != nil {
		return zero, &Error{
			Kind:          KindNotWantedJSONFormat,
			Message:       fmt.Sprintf("%s at %q", err, path.String()),
			StatusCode:    statusCode,
			Body:          string(body),
			GraphQLErrors: gqlErrors,
		}
	}
	if node == nil && len(gqlErrors) > 0 {
		return zero, &Error{
			Kind:          KindNotWantedJSONFormat,
			Message:       fmt.Sprintf("null at %q", path.String()),
			StatusCode:    statusCode,
			Body:          string(body),
			GraphQLErrors: gqlErrors,
		}
	}

	raw, err := json.Marshal(node)
	if err != nil {
		return zero, &Error{Kind: KindNotWantedJSONFormat, Message: "failed to re-encode node", StatusCode: statusCode, Body: string(body), Err: err}
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, &Error{Kind: KindNotWantedJSONFormat, Message: "failed to decode node", StatusCode: statusCode, Body: string(raw), Err: err}
	}
	return out, nil
}

// topLevelErrors returns the well-formed elements of the "errors" array. A
// missing or non-array "errors" member yields nil.
func topLevelErrors(tree any) []GraphQLError {
	obj, ok := tree.(map[string]any)
	if !ok {
		return nil
	}
	items, ok := obj["errors"].([]any)
	if !ok {
		return nil
	}

	out := make([]GraphQLError, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		ge := GraphQLError{}
		ge.Message, _ = m["message"].(string)
		ge.Path, _ = m["path"].([]any)
		ge.Extensions, _ = m["extensions"].(map[string]any)
		out = append(out, ge)
	}
	return out
}
