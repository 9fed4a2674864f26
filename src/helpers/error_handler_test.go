package helpers

import (
	"errors"
	"testing"
	"time"

	"rescue-screener/src/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScreenerErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := NewDataUnavailable("universe snapshot unavailable", cause)

	assert.Equal(t, "universe snapshot unavailable: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := NewSourceCallError("history for 600000", nil)
	assert.Equal(t, "history for 600000", bare.Error())
	assert.Nil(t, errors.Unwrap(bare))
}

func TestRetryWithBackoffSucceedsAfterFailures(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := RetryWithBackoff("fetch", 3, time.Millisecond, logger.NewLogger("ERROR", "test"), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoffExhaustsRetries(t *testing.T) {
	t.Parallel()

	cause := errors.New("permanent")
	attempts := 0
	err := RetryWithBackoff("fetch", 3, time.Millisecond, logger.NewLogger("ERROR", "test"), func() error {
		attempts++
		return cause
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
}
