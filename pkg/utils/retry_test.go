package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("connection reset")
var errMissing = errors.New("not found")

func TestRetry_RecoversFromTransientFailure(t *testing.T) {
	calls := 0
	got, err := Retry(context.Background(), 3, nil, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errFlaky
		}
		return 7, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, 3, calls)
}

func TestRetry_GivesUpAfterMax(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), 2, nil, func() (int, error) {
		calls++
		return 0, errFlaky
	})

	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 3, calls)
}

func TestRetry_PermanentErrorStopsImmediately(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), 5, func(err error) bool { return errors.Is(err, errMissing) }, func() (int, error) {
		calls++
		return 0, errMissing
	})

	assert.ErrorIs(t, err, errMissing)
	assert.Equal(t, 1, calls)
}
