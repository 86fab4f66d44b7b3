// Package errors turns API failures into messages and exit codes for the terminal.
package errors

import (
	"context"
	"errors"
	"net/http"

	"github.com/open-cli-collective/shopify-cli/api"
)

// Sentinel errors for HTTP statuses that carry meaning regardless of the body.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized: check your access token")
	ErrForbidden    = errors.New("forbidden: the app is missing an access scope")
	ErrPaymentDue   = errors.New("shop is frozen: payment required")
	ErrLocked       = errors.New("shop is locked")
	ErrServerError  = errors.New("server error")
)

// Exit codes.
const (
	ExitOK        = 0
	ExitError     = 1
	ExitAuth      = 2
	ExitThrottled = 3
	ExitCancelled = 130
)

// FromStatus returns the sentinel for an HTTP status, or nil when the status
// alone says nothing.
func FromStatus(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusPaymentRequired:
		return ErrPaymentDue
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusLocked:
		return ErrLocked
	}
	if statusCode >= 500 {
		return ErrServerError
	}
	return nil
}

// Status returns the status sentinel for err when it is an API error that
// came back with a meaningful HTTP status.
func Status(err error) error {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return nil
	}
	return FromStatus(apiErr.StatusCode)
}

// Describe returns a one-line message for err and, when one applies, a hint
// on what to do next.
func Describe(err error) (msg, hint string) {
	if err == nil {
		return "", ""
	}
	msg = err.Error()

	if ue, ok := api.AsUserErrors(err); ok {
		return ue.Error(), "the request was rejected and nothing was created; fix the input and retry"
	}

	switch {
	case errors.Is(err, context.Canceled):
		return "cancelled", ""
	case errors.Is(err, context.DeadlineExceeded):
		return msg, "the operation took longer than allowed; raise --timeout or check the job later with 'shopctl bulk status'"
	case errors.Is(err, api.ErrShopRequired):
		return msg, "run 'shopctl init' or set SHOPCTL_SHOP"
	case errors.Is(err, api.ErrAccessTokenRequired):
		return msg, "run 'shopctl init' or set SHOPCTL_ACCESS_TOKEN"
	}

	switch {
	case IsUnauthorized(err):
		return msg, "the access token was rejected; run 'shopctl init' to store a new one"
	case IsForbidden(err):
		return msg, "grant the app the access scopes the query needs"
	case errors.Is(Status(err), ErrPaymentDue), errors.Is(Status(err), ErrLocked):
		return msg, "the shop is not accepting API calls; check its status in the admin"
	case IsServerError(err):
		return msg, "the platform had an internal error; retry later"
	}

	switch api.KindOf(err) {
	case api.KindThrottled:
		return msg, "the shop's query cost budget was exhausted; wait and retry, or set rate_limit in the config"
	case api.KindConnectionFailed:
		return msg, "check the shop name and your network connection"
	case api.KindNotWantedJSONFormat:
		return msg, "run with --verbose to see the full response"
	}
	return msg, ""
}

// ExitCode maps err to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitCancelled
	case errors.Is(err, api.ErrAccessTokenRequired), IsUnauthorized(err), IsForbidden(err):
		return ExitAuth
	case api.IsThrottled(err):
		return ExitThrottled
	}
	return ExitError
}

// IsNotFound returns true if the error came back with HTTP 404.
func IsNotFound(err error) bool {
	return errors.Is(Status(err), ErrNotFound)
}

// IsUnauthorized returns true if the error came back with HTTP 401.
func IsUnauthorized(err error) bool {
	return errors.Is(Status(err), ErrUnauthorized)
}

// IsForbidden returns true if the error came back with HTTP 403.
func IsForbidden(err error) bool {
	return errors.Is(Status(err), ErrForbidden)
}

// IsServerError returns true if the error came back with a 5xx status.
func IsServerError(err error) bool {
	return errors.Is(Status(err), ErrServerError)
}
