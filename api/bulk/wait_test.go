package bulk

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/shopify-cli/api"
)

// sequence serves the given node payloads in order and fails the test when
// asked for more.
func sequence(t *testing.T, nodes ...string) func(graphqlRequest) string {
	i := 0
	return func(graphqlRequest) string {
		if i >= len(nodes) {
			t.Errorf("unexpected fetch #%d", i+1)
			return nodeResponse("null")
		}
		node := nodes[i]
		i++
		return nodeResponse(node)
	}
}

func TestWaitFor_StopsAtFirstTerminalStatus(t *testing.T) {
	f := newFakeShop(t)
	f.on("node", sequence(t,
		operationJSON(opID, StatusCreated),
		operationJSON(opID, StatusRunning),
		operationJSON(opID, StatusRunning),
		operationJSON(opID, StatusCompleted),
	))
	client, _ := newTestClient(t, f)

	op, err := client.WaitFor(context.Background(), opID, DefaultPollConfig())
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, op.Status)
	assert.Equal(t, 4, f.count("node"))
}

func TestWaitFor_TerminalStatuses(t *testing.T) {
	for _, status := range []Status{StatusCompleted, StatusFailed, StatusCanceling, StatusCanceled, StatusExpired} {
		t.Run(string(status), func(t *testing.T) {
			f := newFakeShop(t)
			f.on("node", sequence(t, operationJSON(opID, status)))
			client, _ := newTestClient(t, f)

			op, err := client.WaitFor(context.Background(), opID, DefaultPollConfig())
			require.NoError(t, err)
			assert.Equal(t, status, op.Status)
			assert.Equal(t, 1, f.count("node"))
		})
	}
}

func TestWaitFor_NotFound(t *testing.T) {
	f := newFakeShop(t)
	f.on("node", sequence(t, "null"))
	client, _ := newTestClient(t, f)

	op, err := client.WaitFor(context.Background(), opID, DefaultPollConfig())
	assert.Nil(t, op)
	assert.True(t, api.IsOther(err))
}

func TestWaitFor_DisappearsWhileRunning(t *testing.T) {
	f := newFakeShop(t)
	f.on("node", sequence(t, operationJSON(opID, StatusRunning), "null"))
	client, _ := newTestClient(t, f)

	op, err := client.WaitFor(context.Background(), opID, DefaultPollConfig())
	assert.Nil(t, op)
	assert.True(t, api.IsOther(err))
	assert.Contains(t, err.Error(), "not found")
	assert.Equal(t, 2, f.count("node"))
}

func TestWaitFor_ContextCancelled(t *testing.T) {
	f := newFakeShop(t)
	f.on("node", func(graphqlRequest) string {
		return nodeResponse(operationJSON(opID, StatusRunning))
	})
	client, _ := newTestClient(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	client.sleep = func(time.Duration) <-chan time.Time {
		cancel()
		return make(chan time.Time)
	}

	op, err := client.WaitFor(ctx, opID, DefaultPollConfig())
	assert.Nil(t, op)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, f.count("node"))
}

// fakeClock is advanced by the injected sleep and by slow handlers.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(client *Client) *fakeClock {
	c := &fakeClock{now: time.Date(2026, time.October, 14, 10, 0, 0, 0, time.UTC)}
	client.now = c.Now
	client.sleep = func(d time.Duration) <-chan time.Time {
		c.Advance(d)
		return immediate(d)
	}
	return c
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestWaitFor_Timeout(t *testing.T) {
	f := newFakeShop(t)
	f.on("node", func(graphqlRequest) string {
		return nodeResponse(operationJSON(opID, StatusRunning))
	})
	client, _ := newTestClient(t, f)
	newFakeClock(client)

	op, err := client.WaitFor(context.Background(), opID, PollConfig{
		Interval: 3 * time.Second,
		Timeout:  10 * time.Second,
	})
	assert.Nil(t, op)
	assert.True(t, api.IsOther(err))
	assert.Contains(t, err.Error(), "timeout")
	assert.Contains(t, err.Error(), "RUNNING")
	// fetches at 0s, 3s, 6s and 9s; the sleep to 12s passes the deadline
	assert.Equal(t, 4, f.count("node"))
}

func TestWaitFor_TimeoutAfterSlowFetch(t *testing.T) {
	f := newFakeShop(t)
	client, _ := newTestClient(t, f)
	clock := newFakeClock(client)
	slept := 0
	client.sleep = func(d time.Duration) <-chan time.Time {
		slept++
		return immediate(d)
	}
	f.on("node", func(graphqlRequest) string {
		clock.Advance(time.Minute)
		return nodeResponse(operationJSON(opID, StatusRunning))
	})

	op, err := client.WaitFor(context.Background(), opID, PollConfig{Interval: time.Second, Timeout: 10 * time.Second})
	assert.Nil(t, op)
	assert.True(t, api.IsOther(err))
	assert.Contains(t, err.Error(), "timeout")
	assert.Equal(t, 1, f.count("node"))
	assert.Zero(t, slept)
}

func TestWaitFor_TerminalAfterDeadline(t *testing.T) {
	f := newFakeShop(t)
	client, _ := newTestClient(t, f)
	clock := newFakeClock(client)
	f.on("node", func(graphqlRequest) string {
		clock.Advance(time.Minute)
		return nodeResponse(operationJSON(opID, StatusCompleted))
	})

	op, err := client.WaitFor(context.Background(), opID, PollConfig{Interval: time.Second, Timeout: 10 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, op.Status)
}

func TestWaitFor_UsesInterval(t *testing.T) {
	f := newFakeShop(t)
	f.on("node", sequence(t, operationJSON(opID, StatusRunning), operationJSON(opID, StatusCompleted)))
	client, _ := newTestClient(t, f)

	var slept []time.Duration
	client.sleep = func(d time.Duration) <-chan time.Time {
		slept = append(slept, d)
		return immediate(d)
	}

	_, err := client.WaitFor(context.Background(), opID, PollConfig{Interval: 3 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{3 * time.Second}, slept)
}

func TestRun(t *testing.T) {
	f := newFakeShop(t)
	f.on("bulkOperationRunQuery", func(graphqlRequest) string {
		return runResponse("bulkOperationRunQuery", operationJSON(opID, StatusCreated))
	})
	f.on("node", sequence(t, operationJSON(opID, StatusRunning), operationJSON(opID, StatusCompleted)))
	client, _ := newTestClient(t, f)

	op, err := client.Run(context.Background(), `{ products { edges { node { id } } } }`, DefaultPollConfig())
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, op.Status)
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusCreated.IsTerminal())
	assert.False(t, StatusRunning.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCanceling.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
}
