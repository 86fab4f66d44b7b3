package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/open-cli-collective/shopify-cli/api"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusOK, nil},
		{http.StatusBadRequest, nil},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusPaymentRequired, ErrPaymentDue},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusLocked, ErrLocked},
		{http.StatusInternalServerError, ErrServerError},
		{http.StatusServiceUnavailable, ErrServerError},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, FromStatus(tt.status))
		})
	}
}

func TestStatus_OnlyForAPIErrors(t *testing.T) {
	assert.Nil(t, Status(errors.New("plain")))
	assert.Nil(t, Status(&api.Error{Kind: api.KindOther}))

	wrapped := fmt.Errorf("get shop: %w", &api.Error{Kind: api.KindNotWantedJSONFormat, StatusCode: 401})
	assert.True(t, IsUnauthorized(wrapped))
	assert.False(t, IsForbidden(wrapped))
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		hintPart string
	}{
		{"user errors", api.UserErrors{{Field: []string{"query"}, Message: "Invalid bulk query"}}, "nothing was created"},
		{"unauthorized", &api.Error{Kind: api.KindNotWantedJSONFormat, StatusCode: 401}, "shopctl init"},
		{"forbidden", &api.Error{Kind: api.KindNotWantedJSONFormat, StatusCode: 403}, "access scopes"},
		{"server error", &api.Error{Kind: api.KindNotJSON, StatusCode: 502}, "retry later"},
		{"throttled", &api.Error{Kind: api.KindThrottled}, "rate_limit"},
		{"connection", &api.Error{Kind: api.KindConnectionFailed}, "network"},
		{"shape", &api.Error{Kind: api.KindNotWantedJSONFormat}, "--verbose"},
		{"missing shop", api.ErrShopRequired, "SHOPCTL_SHOP"},
		{"deadline", context.DeadlineExceeded, "--timeout"},
		{"other", api.Other("no staged target"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, hint := Describe(tt.err)
			assert.NotEmpty(t, msg)
			if tt.hintPart == "" {
				assert.Empty(t, hint)
			} else {
				assert.Contains(t, hint, tt.hintPart)
			}
		})
	}

	msg, hint := Describe(nil)
	assert.Empty(t, msg)
	assert.Empty(t, hint)
}

func TestStatusHelpers(t *testing.T) {
	notFound := fmt.Errorf("results: %w", &api.Error{Kind: api.KindOther, StatusCode: 404})
	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsServerError(notFound))

	assert.True(t, IsServerError(&api.Error{Kind: api.KindNotJSON, StatusCode: 503}))
	assert.True(t, IsForbidden(&api.Error{Kind: api.KindOther, StatusCode: 403}))
	assert.False(t, IsNotFound(errors.New("404")))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitError, ExitCode(errors.New("boom")))
	assert.Equal(t, ExitCancelled, ExitCode(fmt.Errorf("wait: %w", context.Canceled)))
	assert.Equal(t, ExitAuth, ExitCode(api.ErrAccessTokenRequired))
	assert.Equal(t, ExitAuth, ExitCode(&api.Error{Kind: api.KindNotWantedJSONFormat, StatusCode: 401}))
	assert.Equal(t, ExitAuth, ExitCode(&api.Error{Kind: api.KindNotWantedJSONFormat, StatusCode: 403}))
	assert.Equal(t, ExitThrottled, ExitCode(&api.Error{Kind: api.KindThrottled}))
}
