package stor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncrementCount(t *testing.T) {
	windows := NewGormRateWindowStor(newTestDB(t))
	windowStart := time.Now().Truncate(time.Minute).Unix()

	for want := 1; want <= 3; want++ {
		count, err := windows.IncrementCount("transfer", 1, windowStart)
		require.NoError(t, err)
		assert.Equal(t, want, count)
	}

	// A different caller, scope or window counts separately.
	count, err := windows.IncrementCount("transfer", 2, windowStart)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = windows.IncrementCount("rollback", 1, windowStart)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = windows.IncrementCount("transfer", 1, windowStart+60)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPruneWindowsBefore(t *testing.T) {
	windows := NewGormRateWindowStor(newTestDB(t))
	windowStart := time.Now().Truncate(time.Minute).Unix()

	_, err := windows.IncrementCount("transfer", 1, windowStart-120)
	require.NoError(t, err)
	_, err = windows.IncrementCount("transfer", 1, windowStart)
	require.NoError(t, err)

	require.NoError(t, windows.PruneWindowsBefore(windowStart))

	// The pruned window restarts from zero, the current one keeps counting.
	count, err := windows.IncrementCount("transfer", 1, windowStart-120)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = windows.IncrementCount("transfer", 1, windowStart)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
