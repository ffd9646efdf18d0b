package itinerary

import (
	"strings"

	"github.com/triptailor/triptailor/config"
	"github.com/triptailor/triptailor/internal/types"
)

// scorer ranks candidates for the packing loop. Scoring is pure integer
// arithmetic over tags, names and descriptions, so identical inputs always
// produce identical plans.
type scorer struct {
	weights config.ScoringWeights
}

// scoreContext is the per-iteration state scoring reads but never mutates.
type scoreContext struct {
	keywords            []string
	fulfilledPrefs      map[string]bool
	addedSignatures     map[string]bool
	distanceFromStartKm float64
}

func (s *scorer) Score(c *types.Candidate, matchedPrefs []string, sc scoreContext) int {
	w := s.weights
	score := 0
	nameLower := strings.ToLower(c.Name)
	description := strings.ToLower(c.Description)

	isFoodie := containsPref(matchedPrefs, "foodie")
	isShopping := containsPref(matchedPrefs, "shopping")
	isSightseeing := containsPref(matchedPrefs, "sights") ||
		containsPref(matchedPrefs, "history") ||
		containsPref(matchedPrefs, "religious")
	isPark := containsPref(matchedPrefs, "park")

	// Relevance: the caller's own keywords matter most.
	for _, kw := range sc.keywords {
		if kw != "" && strings.Contains(nameLower, strings.ToLower(kw)) {
			score += w.KeywordDiscoveryBonus
			break
		}
	}

	newlyFulfilled := 0
	for _, pref := range matchedPrefs {
		if !sc.fulfilledPrefs[pref] {
			newlyFulfilled++
		}
	}
	score += w.PreferenceCoverageBonus * newlyFulfilled

	if len(matchedPrefs) > 0 && newlyFulfilled == len(matchedPrefs) {
		score += w.DiversificationBonus
	}

	// Notability: a wiki reference is the strongest proxy available.
	_, hasWikipedia := c.Tags["wikipedia"]
	_, hasWikidata := c.Tags["wikidata"]
	if hasWikipedia || hasWikidata {
		switch {
		case isFoodie:
			score += w.WikiNotabilityFood
		case isShopping:
			score += w.WikiNotabilityShop
		case isSightseeing:
			score += w.SignificanceSights
		case isPark:
			score += w.SignificancePark
		default:
			score += w.GenericNotability
		}
	}

	if description != "" {
		if isFoodie && containsAny(description, authenticityKeywords) {
			score += w.AuthenticityFood
		}
		if isShopping && containsAny(description, shoppingAuthenticityKeywords) {
			score += w.AuthenticityShop
		}
	}

	if isFoodie {
		for _, chain := range internationalFoodChains {
			if strings.Contains(nameLower, chain) {
				return w.ChainDisqualifyScore
			}
		}
		if c.Tags["amenity"] == "fast_food" {
			score += w.GenericFastFoodPenalty
		}
	}

	if isShopping {
		if nameHasGenericTerm(nameLower) {
			score += w.GenericStoreNamePenalty
		}
		switch shopType := c.Tags["shop"]; {
		case shopType == "mall":
			score += w.ShoppingMallBoost
		case souvenirShopTypes[shopType]:
			score += w.SouvenirGiftCraftArtBoost
		case generalShopTypes[shopType]:
			score += w.GeneralShopPenalty
		}
	}

	// Repeating the same kind of stop flattens the plan.
	if sig := activitySignature(matchedPrefs, c.Tags); sig != "" && sc.addedSignatures[sig] {
		score += w.SimilarActivityPenalty
	}

	if sc.distanceFromStartKm > w.DistanceFreeKm {
		score -= int((sc.distanceFromStartKm - w.DistanceFreeKm) * float64(w.DistancePenaltyPerKm))
	}

	return score
}

// activitySignature is "<primary pref>_<subtype>", e.g. "history_museum".
func activitySignature(matchedPrefs []string, tags map[string]string) string {
	if len(matchedPrefs) == 0 {
		return ""
	}
	subType := tags["amenity"]
	if subType == "" {
		subType = tags["shop"]
	}
	if subType == "" {
		subType = tags["leisure"]
	}
	if subType == "" {
		subType = tags["historic"]
	}
	if subType == "" {
		return ""
	}
	return matchedPrefs[0] + "_" + subType
}

func nameHasGenericTerm(nameLower string) bool {
	for _, word := range strings.Fields(nameLower) {
		if genericStoreTerms[word] {
			return true
		}
	}
	return false
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func containsPref(prefs []string, pref string) bool {
	for _, p := range prefs {
		if p == pref {
			return true
		}
	}
	return false
}
