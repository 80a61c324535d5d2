package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velourdrapes/backoffice/internal/api"
)

func TestDo_RetriesTransportFailures(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), Policy{Retries: 2}, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &api.RemoteError{Message: api.TransportFailure}
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestDo_GivesUpAfterRetries(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{Retries: 2}, func(ctx context.Context) (int, error) {
		calls++
		return 0, &api.RemoteError{Message: api.TransportFailure}
	})
	require.Error(t, err)
	assert.True(t, api.IsTransport(err))
	assert.Equal(t, 3, calls)
}

func TestDo_DoesNotRetryServerErrors(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Default(), func(ctx context.Context) (int, error) {
		calls++
		return 0, &api.RemoteError{Message: "Name is required", Status: 400}
	})
	assert.Equal(t, 400, api.StatusOf(err))
	assert.Equal(t, 1, calls)
}

func TestDo_StopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	start := time.Now()
	_, err := Do(ctx, Policy{Retries: 5, Delay: time.Hour, Retryable: func(error) bool { return true }}, func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("flaky")
	})
	assert.EqualError(t, err, "flaky")
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Minute)
}
