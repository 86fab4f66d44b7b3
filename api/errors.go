package api

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failed call. The taxonomy is flat: every error produced by
// this module carries exactly one kind.
type Kind int

// Error kinds.
const (
	// KindConnectionFailed means no response was obtained.
	KindConnectionFailed Kind = iota + 1
	// KindResponseBroken means a response arrived but could not be read as text.
	KindResponseBroken
	// KindNotJSON means the response text is not a parseable JSON document.
	KindNotJSON
	// KindThrottled means the platform rate-limited the call.
	KindThrottled
	// KindNotWantedJSONFormat means the response parsed but did not have the expected shape.
	KindNotWantedJSONFormat
	// KindOther is an orchestration-level failure (no staged target, job not found, ...).
	KindOther
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindConnectionFailed:
		return "ConnectionFailed"
	case KindResponseBroken:
		return "ResponseBroken"
	case KindNotJSON:
		return "NotJson"
	case KindThrottled:
		return "Throttled"
	case KindNotWantedJSONFormat:
		return "NotWantedJsonFormat"
	case KindOther:
		return "Other"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Sentinel errors, one per kind. An *Error matches its kind's sentinel with errors.Is.
var (
	ErrConnectionFailed    = errors.New("connection failed")
	ErrResponseBroken      = errors.New("response broken")
	ErrNotJSON             = errors.New("response is not JSON")
	ErrThrottled           = errors.New("throttled - try again later")
	ErrNotWantedJSONFormat = errors.New("response does not have the expected format")
	ErrOther               = errors.New("operation failed")
)

// Validation errors
var (
	ErrShopRequired        = errors.New("shop is required")
	ErrAccessTokenRequired = errors.New("access token is required")
)

// GraphQLError is one element of the top-level "errors" array of a GraphQL response.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Code returns extensions.code, or "" when absent.
func (e GraphQLError) Code() string {
	code, _ := e.Extensions["code"].(string)
	return code
}

// Error is a failed remote call or pipeline step.
type Error struct {
	Kind    Kind
	Message string

	// StatusCode is the HTTP status, when a response was obtained.
	StatusCode int
	// Body holds the raw or top-level response for diagnosis (NotJson, NotWantedJsonFormat).
	Body string
	// GraphQLErrors holds the top-level GraphQL errors returned alongside the response.
	GraphQLErrors []GraphQLError
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.StatusCode)
	}
	if len(e.GraphQLErrors) > 0 {
		msgs := make([]string, 0, len(e.GraphQLErrors))
		for _, ge := range e.GraphQLErrors {
			msgs = append(msgs, ge.Message)
		}
		b.WriteString(": ")
		b.WriteString(strings.Join(msgs, "; "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func (k Kind) sentinel() error {
	switch k {
	case KindConnectionFailed:
		return ErrConnectionFailed
	case KindResponseBroken:
		return ErrResponseBroken
	case KindNotJSON:
		return ErrNotJSON
	case KindThrottled:
		return ErrThrottled
	case KindNotWantedJSONFormat:
		return ErrNotWantedJSONFormat
	case KindOther:
		return ErrOther
	default:
		return nil
	}
}

// Other creates an orchestration-level error.
func Other(format string, args ...any) *Error {
	return &Error{Kind: KindOther, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or 0 if err is not (and does not wrap) an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// IsConnectionFailed returns true if no response was obtained
func IsConnectionFailed(err error) bool {
	return errors.Is(err, ErrConnectionFailed)
}

// IsResponseBroken returns true if the response could not be read
func IsResponseBroken(err error) bool {
	return errors.Is(err, ErrResponseBroken)
}

// IsNotJSON returns true if the response was not JSON
func IsNotJSON(err error) bool {
	return errors.Is(err, ErrNotJSON)
}

// IsThrottled returns true if the error indicates rate limiting
func IsThrottled(err error) bool {
	return errors.Is(err, ErrThrottled)
}

// IsNotWantedJSONFormat returns true if the response had an unexpected shape
func IsNotWantedJSONFormat(err error) bool {
	return errors.Is(err, ErrNotWantedJSONFormat)
}

// IsOther returns true for orchestration-level failures
func IsOther(err error) bool {
	return errors.Is(err, ErrOther)
}

// UserError is a validation failure reported by the platform for a mutation.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

func (u UserError) String() string {
	if len(u.Field) == 0 {
		return u.Message
	}
	return fmt.Sprintf("%s (field: %s)", u.Message, strings.Join(u.Field, "."))
}

// UserErrors is returned when the platform rejected a request with user errors.
// Nothing was created on the remote side.
type UserErrors []UserError

// Error implements the error interface
func (u UserErrors) Error() string {
	if len(u) == 1 {
		return "user error: " + u[0].String()
	}
	msgs := make([]string, 0, len(u))
	for _, ue := range u {
		msgs = append(msgs, ue.String())
	}
	return fmt.Sprintf("%d user errors: %s", len(u), strings.Join(msgs, "; "))
}

// AsUserErrors returns the user errors carried by err, if any.
func AsUserErrors(err error) (UserErrors, bool) {
	var ue UserErrors
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
