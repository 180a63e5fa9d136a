package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapiree/billing-portal/internal/model"
)

func TestNextEndDate(t *testing.T) {
	jan15 := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	t.Run("month adds one month to the current end date", func(t *testing.T) {
		got, err := NextEndDate(jan15, model.IntervalMonth)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("year adds one year", func(t *testing.T) {
		got, err := NextEndDate(jan15, model.IntervalYear)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("lifetime is not renewable", func(t *testing.T) {
		_, err := NextEndDate(jan15, model.IntervalLifetime)
		assert.ErrorIs(t, err, ErrUnsupportedInterval)
	})

	t.Run("unknown interval is rejected", func(t *testing.T) {
		_, err := NextEndDate(jan15, "weekly")
		assert.ErrorIs(t, err, ErrUnsupportedInterval)
	})

	t.Run("anchor stays on the end date, not on now", func(t *testing.T) {
		// Renewing long after expiry still extends from the old end date.
		old := time.Date(2020, 6, 30, 0, 0, 0, 0, time.UTC)
		got, err := NextEndDate(old, model.IntervalMonth)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2020, 7, 30, 0, 0, 0, 0, time.UTC), got)
	})
}
