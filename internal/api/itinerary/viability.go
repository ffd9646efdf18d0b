package itinerary

import (
	"time"

	"github.com/triptailor/triptailor/internal/types"
)

// ViabilityChecker decides whether a stop fits the remaining schedule.
// Richer implementations can factor in opening hours; the planner only
// requires the time-budget contract.
type ViabilityChecker interface {
	Check(candidate *types.Candidate, arrival time.Time, tripEnd time.Time, returnJourneyHrs float64) types.Viability
}

// TimeBudgetChecker admits a stop when the visit plus the journey home still
// fit before the trip window closes.
type TimeBudgetChecker struct{}

var _ ViabilityChecker = (*TimeBudgetChecker)(nil)

func (TimeBudgetChecker) Check(candidate *types.Candidate, arrival time.Time, tripEnd time.Time, returnJourneyHrs float64) types.Viability {
	durationHrs := candidate.AvgVisitDurationHrs
	needed := hoursToDuration(durationHrs + returnJourneyHrs)
	if arrival.Add(needed).After(tripEnd) {
		return types.Viability{
			IsViable: false,
			Reason:   "not enough time for the activity and return journey",
		}
	}
	return types.Viability{
		IsViable:            true,
		AdjustedArrival:     arrival,
		AdjustedDeparture:   arrival.Add(hoursToDuration(durationHrs)),
		AdjustedDurationHrs: durationHrs,
		Reason:              "time window is sufficient",
	}
}

func hoursToDuration(hrs float64) time.Duration {
	return time.Duration(hrs * float64(time.Hour))
}
