package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		wantErr      error
		name         string
		wantDelays   []time.Duration
		failures     int
		maxAttempts  int
		wantAttempts int
	}{
		{
			name:         "succeeds first try",
			failures:     0,
			maxAttempts:  3,
			wantAttempts: 1,
			wantDelays:   nil,
		},
		{
			name:         "fails twice then succeeds",
			failures:     2,
			maxAttempts:  3,
			wantAttempts: 3,
			wantDelays:   []time.Duration{2 * time.Second, 4 * time.Second},
		},
		{
			name:         "always fails, propagates last error unchanged",
			failures:     10,
			maxAttempts:  3,
			wantAttempts: 3,
			wantDelays:   []time.Duration{2 * time.Second, 4 * time.Second},
			wantErr:      errBoom,
		},
		{
			name:         "zero attempts means single attempt",
			failures:     10,
			maxAttempts:  0,
			wantAttempts: 1,
			wantDelays:   nil,
			wantErr:      errBoom,
		},
		{
			name:         "one attempt means no retry",
			failures:     10,
			maxAttempts:  1,
			wantAttempts: 1,
			wantDelays:   nil,
			wantErr:      errBoom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts int
			var delays []time.Duration

			op := func() error {
				attempts++
				if attempts <= tt.failures {
					return errBoom
				}
				return nil
			}
			sleep := func(_ context.Context, d time.Duration) error {
				delays = append(delays, d)
				return nil
			}

			err := WithRetry(context.Background(), op, tt.maxAttempts, DefaultRetryDelay, sleep)

			if tt.wantErr != nil {
				// Failure kind must survive retry exhaustion unwrapped.
				assert.Equal(t, tt.wantErr, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantAttempts, attempts)
			assert.Equal(t, tt.wantDelays, delays)
		})
	}
}

func TestWithRetryContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var attempts int
	op := func() error {
		attempts++
		return errors.New("transient")
	}

	err := WithRetry(ctx, op, 3, DefaultRetryDelay, SleepContext)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts, "canceled context should stop after the in-flight attempt")
}
