// Package bulk runs bulk operations: submitting bulk queries and mutations,
// waiting for them to finish and downloading their JSONL results.
package bulk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/open-cli-collective/shopify-cli/api"
)

// Status represents a bulk operation status.
type Status string

// Bulk operation statuses.
const (
	StatusCreated   Status = "CREATED"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCanceling Status = "CANCELING"
	StatusCanceled  Status = "CANCELED"
	StatusExpired   Status = "EXPIRED"
)

// IsTerminal reports whether polling should stop at s. Every status other
// than CREATED and RUNNING is terminal.
func (s Status) IsTerminal() bool {
	return s != StatusCreated && s != StatusRunning
}

// UnmarshalJSON rejects unknown statuses.
func (s *Status) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, (*string)(s), "status",
		StatusCreated, StatusRunning, StatusCompleted, StatusFailed,
		StatusCanceling, StatusCanceled, StatusExpired)
}

// ErrorCode represents why a bulk operation failed.
type ErrorCode string

// Bulk operation error codes.
const (
	ErrorCodeAccessDenied        ErrorCode = "ACCESS_DENIED"
	ErrorCodeInternalServerError ErrorCode = "INTERNAL_SERVER_ERROR"
	ErrorCodeTimeout             ErrorCode = "TIMEOUT"
)

// UnmarshalJSON rejects unknown error codes.
func (c *ErrorCode) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, (*string)(c), "error code",
		ErrorCodeAccessDenied, ErrorCodeInternalServerError, ErrorCodeTimeout)
}

// Type is the kind of bulk operation.
type Type string

// Bulk operation types.
const (
	TypeQuery    Type = "QUERY"
	TypeMutation Type = "MUTATION"
)

// UnmarshalJSON rejects unknown types.
func (t *Type) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, (*string)(t), "type", TypeQuery, TypeMutation)
}

func decodeEnum[E ~string](data []byte, dst *string, what string, allowed ...E) error {
	if bytes.Equal(data, []byte("null")) {
		*dst = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for _, a := range allowed {
		if string(a) == s {
			*dst = s
			return nil
		}
	}
	return fmt.Errorf("unknown bulk operation %s %q", what, s)
}

// Count is an unsigned 64-bit counter. The API encodes these as strings.
type Count uint64

// UnmarshalJSON accepts a quoted or bare integer, or null.
func (c *Count) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*c = 0
		return nil
	}
	s := string(data)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid count %s: %w", data, err)
	}
	*c = Count(n)
	return nil
}

// Operation represents a bulk operation.
type Operation struct {
	ID              string     `json:"id"`
	Status          Status     `json:"status"`
	Type            Type       `json:"type,omitempty"`
	ErrorCode       ErrorCode  `json:"errorCode,omitempty"`
	URL             string     `json:"url,omitempty"`
	PartialDataURL  string     `json:"partialDataUrl,omitempty"`
	Query           string     `json:"query,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	ObjectCount     Count      `json:"objectCount"`
	RootObjectCount Count      `json:"rootObjectCount"`
	FileSize        Count      `json:"fileSize"`
}

// PollConfig contains configuration for waiting on a bulk operation.
type PollConfig struct {
	// Interval is the pause between status checks
	Interval time.Duration
	// Timeout bounds the whole wait (0 waits indefinitely)
	Timeout time.Duration
}

// DefaultPollConfig returns default polling configuration.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		Interval: time.Second,
	}
}

// MutationOptions are optional settings for SubmitMutation.
type MutationOptions struct {
	// ClientIdentifier is an optional caller-chosen tag for the operation
	ClientIdentifier string
}

type runPayload struct {
	BulkOperation *Operation     `json:"bulkOperation"`
	UserErrors    api.UserErrors `json:"userErrors"`
}
