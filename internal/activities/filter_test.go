package activities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterByDateRange(t *testing.T) {
	rows := testActivities(t)

	// range boundaries are inclusive at day granularity
	filtered, err := FilterByDateRange(rows,
		time.Date(2024, 3, 4, 23, 59, 0, 0, time.UTC),
		time.Date(2024, 3, 5, 0, 0, 1, 0, time.UTC),
	)
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	assert.Equal(t, "Hardlopen", filtered[0].ActivityType)
	assert.Equal(t, "Fietsen", filtered[1].ActivityType)

	filtered, err = FilterByDateRange(rows,
		time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.InDelta(t, 5.0, filtered[0].DistanceKm, 0.0001)
}

func TestFilterByDateRange_StartAfterEnd(t *testing.T) {
	rows := testActivities(t)
	filtered, err := FilterByDateRange(rows,
		time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	)
	assert.ErrorIs(t, err, ErrInvalidDateRange)
	assert.Nil(t, filtered)
}

func TestFilterByActivityType(t *testing.T) {
	rows := testActivities(t)

	assert.Len(t, FilterByActivityType(rows, []string{"Hardlopen"}), 2)
	assert.Len(t, FilterByActivityType(rows, []string{"Fietsen"}), 1)
	assert.Empty(t, FilterByActivityType(rows, []string{"Zwemmen"}))

	// sentinel and empty selections pass everything through
	assert.Len(t, FilterByActivityType(rows, nil), 3)
	assert.Len(t, FilterByActivityType(rows, []string{"Alle"}), 3)
	assert.Len(t, FilterByActivityType(rows, []string{"Zwemmen", "All"}), 3)
}

func TestFilterParams_Apply(t *testing.T) {
	rows := testActivities(t)

	from := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)

	filtered, err := FilterParams{}.Apply(rows)
	require.NoError(t, err)
	assert.Len(t, filtered, 3)

	filtered, err = FilterParams{From: &from}.Apply(rows)
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	filtered, err = FilterParams{To: &from}.Apply(rows)
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	filtered, err = FilterParams{From: &from, To: &to, Types: []string{"Hardlopen"}}.Apply(rows)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), filtered[0].Date)

	_, err = FilterParams{From: &to, To: &from}.Apply(rows)
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}
