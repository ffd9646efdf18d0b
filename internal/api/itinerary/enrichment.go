package itinerary

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/triptailor/triptailor/config"
	"github.com/triptailor/triptailor/internal/api/location"
	"github.com/triptailor/triptailor/internal/types"
)

// enricher turns raw search elements into scored-ready candidates. It owns
// the rejection rules and category defaults.
type enricher struct {
	location location.Service
	costs    config.CostDefaults
	logger   *slog.Logger
}

// Enrich validates one element and fills in duration, cost and description.
// A nil result means the element was rejected, never an error.
func (e *enricher) Enrich(ctx context.Context, element *types.OSMElement) *types.Candidate {
	tags := element.Tags
	name := strings.TrimSpace(tags["name"])
	if element.ID == 0 || name == "" {
		return nil
	}
	pos, ok := element.Position()
	if !ok {
		return nil
	}

	for key := range excludeKeyExists {
		if _, present := tags[key]; present {
			return nil
		}
	}
	for key, excluded := range excludedTagValues {
		if excluded[tags[key]] {
			return nil
		}
	}

	// The encyclopedia lookup is keyed by the wikipedia tag; untagged places
	// keep their OSM description and cost no external call.
	description := tags["description"]
	if title := wikipediaTitle(tags["wikipedia"]); title != "" {
		if summary, err := e.location.WikipediaSummary(ctx, title); err == nil && summary != "" {
			description = summary
		}
	}

	candidate := &types.Candidate{
		OSMID:               element.ID,
		Name:                name,
		Tags:                tags,
		Lat:                 pos.Lat,
		Lon:                 pos.Lon,
		AvgVisitDurationHrs: e.costs.DefaultActivityHrs,
		EstimatedCost:       ptr(e.costs.DefaultEntryCost),
		Description:         description,
	}

	switch {
	case tags["shop"] != "" && !dessertShopTags[tags["shop"]]:
		// Shopping spend is open-ended.
		candidate.EstimatedCost = nil
	case mealAmenities[tags["amenity"]]:
		candidate.FoodType = types.FoodMeal
		candidate.AvgVisitDurationHrs = e.costs.MealDurationHrs
		candidate.EstimatedCost = ptr(e.costs.MealCost)
	case snackAmenities[tags["amenity"]]:
		candidate.FoodType = types.FoodSnack
		candidate.AvgVisitDurationHrs = e.costs.SnackDurationHrs
		candidate.EstimatedCost = ptr(e.costs.SnackCost)
	case dessertAmenities[tags["amenity"]] || dessertShopTags[tags["shop"]]:
		candidate.FoodType = types.FoodDessert
		candidate.AvgVisitDurationHrs = e.costs.DessertDurationHrs
		candidate.EstimatedCost = ptr(e.costs.DessertCost)
	}
	return candidate
}

// wikipediaTitle cleans a wikipedia tag value into a lookup title: the
// language prefix and any trailing disambiguation parenthetical are dropped.
func wikipediaTitle(tag string) string {
	title := strings.TrimSpace(tag)
	if i := strings.Index(title, ":"); i >= 0 {
		title = title[i+1:]
	}
	if i := strings.LastIndex(title, " ("); i >= 0 && strings.HasSuffix(title, ")") {
		title = title[:i]
	}
	return strings.TrimSpace(title)
}

// EnrichAll runs Enrich over all elements with bounded concurrency.
func (e *enricher) EnrichAll(ctx context.Context, elements []types.OSMElement, concurrency int64) []*types.Candidate {
	sem := semaphore.NewWeighted(concurrency)
	results := make([]*types.Candidate, len(elements))
	var wg sync.WaitGroup
	for i := range elements {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = e.Enrich(ctx, &elements[i])
		}(i)
	}
	wg.Wait()

	candidates := make([]*types.Candidate, 0, len(results))
	for _, c := range results {
		if c != nil {
			candidates = append(candidates, c)
		}
	}
	return candidates
}

const dedupSimilarityThreshold = 0.85

// Deduplicate groups candidates whose names are nearly identical and keeps
// the one with the longest description from each group.
func Deduplicate(candidates []*types.Candidate) []*types.Candidate {
	remaining := append([]*types.Candidate(nil), candidates...)
	var unique []*types.Candidate
	for len(remaining) > 0 {
		base := remaining[0]
		baseName := strings.ToLower(strings.TrimSpace(base.Name))
		best := base
		next := remaining[:0]
		for _, other := range remaining[1:] {
			otherName := strings.ToLower(strings.TrimSpace(other.Name))
			if nameSimilarity(baseName, otherName) > dedupSimilarityThreshold {
				if len(other.Description) > len(best.Description) {
					best = other
				}
			} else {
				next = append(next, other)
			}
		}
		unique = append(unique, best)
		remaining = next
	}
	return unique
}

// nameSimilarity is 2*LCS/(len(a)+len(b)), a match ratio in [0,1].
func nameSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	lcs := prev[len(rb)]
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}

func ptr[T any](v T) *T { return &v }
