package itinerary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/triptailor/triptailor/internal/types"
)

func TestTimeBudgetChecker(t *testing.T) {
	checker := TimeBudgetChecker{}
	arrival := time.Date(2026, 6, 1, 14, 0, 0, 0, time.UTC)

	t.Run("fits with room to spare", func(t *testing.T) {
		candidate := &types.Candidate{AvgVisitDurationHrs: 1.0}
		tripEnd := arrival.Add(2 * time.Hour)

		v := checker.Check(candidate, arrival, tripEnd, 0.5)
		assert.True(t, v.IsViable)
		assert.Equal(t, arrival, v.AdjustedArrival)
		assert.Equal(t, arrival.Add(time.Hour), v.AdjustedDeparture)
		assert.Equal(t, 1.0, v.AdjustedDurationHrs)
	})

	t.Run("return journey pushes past trip end", func(t *testing.T) {
		candidate := &types.Candidate{AvgVisitDurationHrs: 1.0}
		tripEnd := arrival.Add(time.Hour)

		v := checker.Check(candidate, arrival, tripEnd, 0.5)
		assert.False(t, v.IsViable)
		assert.NotEmpty(t, v.Reason)
	})

	t.Run("exact fit is viable", func(t *testing.T) {
		candidate := &types.Candidate{AvgVisitDurationHrs: 1.0}
		tripEnd := arrival.Add(90 * time.Minute)

		v := checker.Check(candidate, arrival, tripEnd, 0.5)
		assert.True(t, v.IsViable)
	})
}
