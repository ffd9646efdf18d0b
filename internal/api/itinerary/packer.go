package itinerary

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/triptailor/triptailor/config"
	"github.com/triptailor/triptailor/internal/api/location"
	"github.com/triptailor/triptailor/internal/types"
)

// packer runs the greedy schedule construction: score, route the shortlist,
// commit the best viable stop, repeat until time or candidates run out.
type packer struct {
	location location.Service
	cfg      config.PlannerConfig
	scorer   *scorer
	checker  ViabilityChecker
	logger   *slog.Logger
}

// packInput is everything one build invocation owns.
type packInput struct {
	start      types.GeoPoint
	windowFrom time.Time
	windowTo   time.Time
	budget     float64
	mode       types.TravelMode
	userPrefs  map[string]bool
	keywords   []string
	candidates []*types.Candidate
}

// legRoutes pairs the outbound and homebound routes for one candidate.
type legRoutes struct {
	outbound    *types.RouteInfo
	homeJourney *types.RouteInfo
}

func (p *packer) Pack(ctx context.Context, in packInput) ([]types.ItineraryItem, float64) {
	var items []types.ItineraryItem
	totalCost := 0.0
	currentTime := in.windowFrom
	currentPos := in.start

	remaining := make(map[int64]*types.Candidate, len(in.candidates))
	for _, c := range in.candidates {
		remaining[c.OSMID] = c
	}
	fulfilledPrefs := make(map[string]bool)
	addedSignatures := make(map[string]bool)

	maxIters := len(remaining) + 20
	for iter := 0; iter < maxIters; iter++ {
		timeLeftHrs := in.windowTo.Sub(currentTime).Hours()
		if timeLeftHrs < p.cfg.MinViableActivityHrs || len(remaining) == 0 {
			break
		}

		scored := p.scoreRemaining(remaining, in, fulfilledPrefs, addedSignatures)
		shortlist := scored
		if len(shortlist) > p.cfg.ShortlistSize {
			shortlist = shortlist[:p.cfg.ShortlistSize]
		}
		if len(shortlist) == 0 {
			break
		}

		routes := p.routeShortlist(ctx, shortlist, remaining, currentPos, in.start, in.mode)

		bestScore := math.Inf(-1)
		var bestKey int64
		var bestRoutes legRoutes
		var bestViability types.Viability
		for _, sc := range shortlist {
			r, ok := routes[sc.key]
			if !ok || r.outbound == nil || r.homeJourney == nil {
				continue
			}
			candidate := remaining[sc.key]
			arrival := currentTime.Add(hoursToDuration(r.outbound.DurationHrs))
			viability := p.checker.Check(candidate, arrival, in.windowTo, r.homeJourney.DurationHrs)
			if !viability.IsViable {
				continue
			}
			if viability.WaitTimeHrs > p.cfg.MaxWaitTimeHrs {
				continue
			}

			travelCost := p.travelCost(in.mode, r.outbound.DistanceKm)
			activityCost := 0.0
			if candidate.EstimatedCost != nil {
				activityCost = *candidate.EstimatedCost
			}
			if totalCost+travelCost+activityCost > in.budget {
				continue
			}

			adjusted := float64(sc.score) - r.outbound.DurationHrs*float64(p.cfg.Scoring.TravelHourPenalty)
			if adjusted > bestScore {
				bestScore = adjusted
				bestKey = sc.key
				bestRoutes = r
				bestViability = viability
			}
		}
		if math.IsInf(bestScore, -1) {
			break
		}

		selected := remaining[bestKey]
		delete(remaining, bestKey)
		matchedPrefs := MatchedPreferences(selected.Tags, in.userPrefs)

		previousDeparture := currentTime
		if len(items) > 0 && items[len(items)-1].EstimatedDeparture != nil {
			previousDeparture = *items[len(items)-1].EstimatedDeparture
		}
		travelStart := bestViability.AdjustedArrival.Add(-hoursToDuration(bestRoutes.outbound.DurationHrs))
		if wait := travelStart.Sub(previousDeparture).Hours(); wait > p.cfg.BreakThresholdHrs {
			items = append(items, types.ItineraryItem{
				LegType:              types.LegBreak,
				Activity:             "Free Time / Break",
				EstimatedDurationHrs: round2(wait),
				EstimatedArrival:     ptr(previousDeparture),
				EstimatedDeparture:   ptr(travelStart),
			})
		}

		travelCost := p.travelCost(in.mode, bestRoutes.outbound.DistanceKm)
		items = append(items, types.ItineraryItem{
			LegType:              types.LegTravel,
			Activity:             "Travel to " + selected.Name,
			EstimatedDurationHrs: round2(bestRoutes.outbound.DurationHrs),
			EstimatedCost:        ptr(round2(travelCost)),
			DistanceKm:           ptr(round1(bestRoutes.outbound.DistanceKm)),
			EstimatedArrival:     ptr(bestViability.AdjustedArrival),
			EstimatedDeparture:   ptr(travelStart),
			OverviewPolyline:     bestRoutes.outbound.Polyline,
		})
		totalCost += travelCost

		items = append(items, types.ItineraryItem{
			LegType:              types.LegActivity,
			Activity:             selected.Name,
			OSMID:                ptr(selected.OSMID),
			Description:          selected.Description,
			EstimatedDurationHrs: round2(bestViability.AdjustedDurationHrs),
			EstimatedCost:        selected.EstimatedCost,
			Lat:                  ptr(selected.Lat),
			Lon:                  ptr(selected.Lon),
			EstimatedArrival:     ptr(bestViability.AdjustedArrival),
			EstimatedDeparture:   ptr(bestViability.AdjustedDeparture),
			MatchedPreferences:   matchedPrefs,
			FoodType:             selected.FoodType,
			SpecificAmenity:      selected.SpecificAmenity(),
		})
		if selected.EstimatedCost != nil {
			totalCost += *selected.EstimatedCost
		}

		currentTime = bestViability.AdjustedDeparture
		currentPos = types.GeoPoint{Lat: selected.Lat, Lon: selected.Lon}
		for _, pref := range matchedPrefs {
			fulfilledPrefs[pref] = true
		}
		if sig := activitySignature(matchedPrefs, selected.Tags); sig != "" {
			addedSignatures[sig] = true
		}
	}

	items, totalCost = p.appendReturnLeg(ctx, items, totalCost, currentTime, currentPos, in)
	return items, round2(totalCost)
}

// appendReturnLeg closes the loop back to the start. Routing failure here is
// tolerated: the plan ships without the final leg.
func (p *packer) appendReturnLeg(ctx context.Context, items []types.ItineraryItem, totalCost float64, currentTime time.Time, currentPos types.GeoPoint, in packInput) ([]types.ItineraryItem, float64) {
	if len(items) == 0 || items[len(items)-1].LegType != types.LegActivity {
		return items, totalCost
	}
	route, err := p.location.GetRoute(ctx, currentPos, in.start, in.mode)
	if err != nil {
		p.logger.ErrorContext(ctx, "Could not calculate final return journey", slog.Any("error", err))
		return items, totalCost
	}
	cost := p.travelCost(in.mode, route.DistanceKm)
	arrival := currentTime.Add(hoursToDuration(route.DurationHrs))
	items = append(items, types.ItineraryItem{
		LegType:              types.LegTravel,
		Activity:             "Travel back to start location",
		EstimatedDurationHrs: round2(route.DurationHrs),
		EstimatedCost:        ptr(round2(cost)),
		DistanceKm:           ptr(round1(route.DistanceKm)),
		EstimatedArrival:     ptr(arrival),
		EstimatedDeparture:   ptr(currentTime),
		OverviewPolyline:     route.Polyline,
	})
	return items, totalCost + cost
}

type scoredKey struct {
	score int
	key   int64
}

func (p *packer) scoreRemaining(remaining map[int64]*types.Candidate, in packInput, fulfilledPrefs, addedSignatures map[string]bool) []scoredKey {
	scored := make([]scoredKey, 0, len(remaining))
	for key, candidate := range remaining {
		matchedPrefs := MatchedPreferences(candidate.Tags, in.userPrefs)
		score := p.scorer.Score(candidate, matchedPrefs, scoreContext{
			keywords:            in.keywords,
			fulfilledPrefs:      fulfilledPrefs,
			addedSignatures:     addedSignatures,
			distanceFromStartKm: HaversineKm(in.start, types.GeoPoint{Lat: candidate.Lat, Lon: candidate.Lon}),
		})
		scored = append(scored, scoredKey{score: score, key: key})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].key < scored[j].key
	})
	return scored
}

// routeShortlist fetches outbound and homebound routes in fixed-size chunks
// with a pause between chunks, keeping the routing provider happy. Failed
// pairs are simply absent from the result.
func (p *packer) routeShortlist(ctx context.Context, shortlist []scoredKey, remaining map[int64]*types.Candidate, from, home types.GeoPoint, mode types.TravelMode) map[int64]legRoutes {
	routes := make(map[int64]legRoutes, len(shortlist))
	for i := 0; i < len(shortlist); i += p.cfg.RouteChunkSize {
		end := i + p.cfg.RouteChunkSize
		if end > len(shortlist) {
			end = len(shortlist)
		}
		chunk := shortlist[i:end]
		results := make([]legRoutes, len(chunk))

		g, gctx := errgroup.WithContext(ctx)
		for j, sc := range chunk {
			candidate := remaining[sc.key]
			pos := types.GeoPoint{Lat: candidate.Lat, Lon: candidate.Lon}
			g.Go(func() error {
				outbound, err := p.location.GetRoute(gctx, from, pos, mode)
				if err != nil {
					return nil
				}
				homeJourney, err := p.location.GetRoute(gctx, pos, home, mode)
				if err != nil {
					return nil
				}
				results[j] = legRoutes{outbound: outbound, homeJourney: homeJourney}
				return nil
			})
		}
		_ = g.Wait()

		for j, sc := range chunk {
			if results[j].outbound != nil {
				routes[sc.key] = results[j]
			}
		}

		if end < len(shortlist) {
			select {
			case <-ctx.Done():
				return routes
			case <-time.After(p.cfg.RouteChunkPause):
			}
		}
	}
	return routes
}

func (p *packer) travelCost(mode types.TravelMode, distanceKm float64) float64 {
	if mode != types.ModeDriving {
		return 0
	}
	return p.cfg.Costs.BaseFareDriving + distanceKm*p.cfg.Costs.PerKmDriving
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
